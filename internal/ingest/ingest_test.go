package ingest

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestIsURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		source string
		want   bool
	}{
		{"https://example.com/jd", true},
		{"http://example.com/jd", true},
		{"cv.pdf", false},
		{"/home/user/cv.txt", false},
		{"ftp://example.com/file", false},
	}

	for _, tc := range cases {
		if got := IsURL(tc.source); got != tc.want {
			t.Errorf("IsURL(%q) = %v, want %v", tc.source, got, tc.want)
		}
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "blank line runs collapse",
			in:   "top\n\n\n\n\nbottom",
			want: "top\n\nbottom",
		},
		{
			name: "space runs collapse",
			in:   "one    two  three",
			want: "one two three",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  \n body \n ",
			want: "body",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Clean(tc.in); got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestLoadTextFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "cv.md")
	if err := os.WriteFile(path, []byte("# Jane Doe\n\n\n\nGo engineer"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	loader := New(zap.NewNop())
	text, source, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if source != SourceFile {
		t.Errorf("source = %q, want %q", source, SourceFile)
	}
	if text != "# Jane Doe\n\nGo engineer" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestLoadRejectsUnsupportedExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "cv.docx")
	if err := os.WriteFile(path, []byte("binary"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	loader := New(zap.NewNop())
	if _, _, err := loader.Load(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	} else if !strings.Contains(err.Error(), "unsupported file type") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	loader := New(zap.NewNop())
	if _, _, err := loader.Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadURLExtractsText(t *testing.T) {
	t.Parallel()

	const page = `<html><head><title>ignored</title><style>p{}</style></head>
<body><script>var x=1;</script><h1>Senior Go Engineer</h1><p>Build   services.</p></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "Mozilla/5.0") {
			t.Errorf("unexpected user agent: %q", ua)
		}
		w.Write([]byte(page))
	}))
	defer srv.Close()

	loader := New(zap.NewNop())
	text, source, err := loader.Load(srv.URL)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if source != SourceURL {
		t.Errorf("source = %q, want %q", source, SourceURL)
	}
	if strings.Contains(text, "var x=1") || strings.Contains(text, "ignored") {
		t.Errorf("script/head content leaked into text: %q", text)
	}
	if !strings.Contains(text, "Senior Go Engineer") || !strings.Contains(text, "Build services.") {
		t.Errorf("expected body text, got %q", text)
	}
}

func TestLoadURLBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	loader := New(zap.NewNop())
	if _, _, err := loader.Load(srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
