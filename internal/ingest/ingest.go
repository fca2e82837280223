package ingest

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SourceType tells the caller where a document came from.
type SourceType string

const (
	SourceFile SourceType = "file"
	SourceURL  SourceType = "url"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

var supportedExtensions = map[string]struct{}{
	".txt":      {},
	".md":       {},
	".markdown": {},
	".pdf":      {},
}

// Loader resolves a CV or job-description reference into normalized plain
// text. The judging core never sees a loader; it consumes ready strings.
type Loader struct {
	logger *zap.Logger

	HTTPClient *http.Client
	UserAgent  string
}

func New(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		logger: log,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: browserUserAgent,
	}
}

// IsURL reports whether the source should be fetched over HTTP.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load reads the source and returns cleaned plain text together with where it
// came from.
func (l *Loader) Load(source string) (string, SourceType, error) {
	if IsURL(source) {
		text, err := l.fromURL(source)
		if err != nil {
			return "", SourceURL, err
		}
		return Clean(text), SourceURL, nil
	}

	text, err := l.fromFile(source)
	if err != nil {
		return "", SourceFile, err
	}
	return Clean(text), SourceFile, nil
}

func (l *Loader) fromFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := supportedExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported file type %q (supported: .txt, .md, .markdown, .pdf)", ext)
	}

	if ext == ".pdf" {
		return extractPDF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	return string(data), nil
}

func (l *Loader) fromURL(url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", l.UserAgent)

	l.logger.Debug("fetching document", zap.String("url", url))

	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: bad status: %s", url, resp.Status)
	}

	text, err := extractHTMLText(resp.Body)
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", url, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content extracted from %s", url)
	}

	return text, nil
}

var (
	blankRuns = regexp.MustCompile(`\n\s*\n\s*\n+`)
	spaceRuns = regexp.MustCompile(` +`)
)

// Clean normalizes whitespace: blank-line runs collapse to one blank line and
// space runs to a single space.
func Clean(text string) string {
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
