package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testPages is a small corpus: Київ -> Україна -> Одеса.
var testPages = map[string][]string{
	"Київ":    {"Україна", "Дніпро"},
	"Україна": {"Львів", "Одеса"},
	"Дніпро":  {"Київ"},
	"Львів":   {"Україна"},
	"Одеса":   {"Україна"},
}

// newWikiServer serves testPages as MediaWiki-like articles.
func newWikiServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title, ok := strings.CutPrefix(r.URL.Path, "/wiki/")
		links, exists := testPages[title]
		if !ok || !exists {
			http.NotFound(w, r)
			return
		}

		var b strings.Builder
		b.WriteString(`<html><body><div class="mw-content-ltr">`)
		for _, l := range links {
			fmt.Fprintf(&b, `<a href="/wiki/%s" title="%s">%s</a>`, url.PathEscape(l), l, l)
		}
		b.WriteString(`<a href="/wiki/Категорія:Міста" title="Категорія:Міста">cat</a>`)
		b.WriteString(`</div></body></html>`)
		_, _ = io.WriteString(w, b.String())
	}))
	t.Cleanup(server.Close)
	return server
}

// writeTestConfig writes a configuration file that points at baseURL,
// keeps the cache in dbDir and does not pace requests noticeably.
func writeTestConfig(t *testing.T, baseURL, dbDir string) string {
	t.Helper()

	content := fmt.Sprintf(`crawler:
  base_url: %s
  requests_per_minute: 600000
  max_retries: 0
  timeout: 5s
database:
  driver: sqlite
  dir: %s
`, baseURL, dbDir)

	path := filepath.Join(t.TempDir(), "wikirace.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	stdout, _, err := runCLIWithStderr(t, args...)
	return stdout, err
}

// runCLIWithStderr executes the root command with args and returns stdout
// and stderr.
func runCLIWithStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
