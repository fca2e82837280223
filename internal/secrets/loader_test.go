package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromFileTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	if err := os.WriteFile(path, []byte("  file-secret \n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	secret, err := Load(Source{Name: "api key", Value: "inline", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if secret != "file-secret" {
		t.Fatalf("expected trimmed file secret, got %q", secret)
	}
}

func TestLoadFallsBackToEnv(t *testing.T) {
	t.Setenv("CV_JUDGE_TEST_SECRET", " env-secret ")

	secret, err := Load(Source{Name: "api key", Env: "CV_JUDGE_TEST_SECRET"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if secret != "env-secret" {
		t.Fatalf("expected trimmed env secret, got %q", secret)
	}
}

func TestLoadErrorsWhenUnconfigured(t *testing.T) {
	_, err := Load(Source{Name: "openrouter api key"})
	if err == nil {
		t.Fatal("expected error for unconfigured secret")
	}

	if !strings.Contains(err.Error(), "openrouter api key") {
		t.Fatalf("expected secret name in error, got %v", err)
	}
}

func TestLoadErrorsOnEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty")
	if err := os.WriteFile(path, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	_, err := Load(Source{Name: "api key", File: path})
	if err == nil {
		t.Fatal("expected error for empty secret file")
	}
}
