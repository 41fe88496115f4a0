package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docsplice/internal/include"
)

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	docs := t.TempDir()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := include.NewEngine(include.Options{
		SnippetsDir: filepath.Join(docs, "_snippets"),
		Reporter:    &include.SlogReporter{Log: discard},
	})
	return NewServer(engine, discard, docs), docs
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestDocRenderedWithExpansion(t *testing.T) {
	s, docs := newTestServer(t)
	writeDoc(t, filepath.Join(docs, "_snippets", "note.md"), "Included **content** here.")
	writeDoc(t, filepath.Join(docs, "guide.md"), "# Guide\n\n<Snippet file=\"note.md\" />\n")

	rec := get(t, s, "/docs/guide.md")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %s", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<title>Guide</title>") {
		t.Errorf("title not derived from heading:\n%s", body)
	}
	if !strings.Contains(body, "<strong>content</strong>") {
		t.Errorf("snippet not expanded:\n%s", body)
	}
	if strings.Contains(body, "Snippet file=") {
		t.Errorf("marker leaked into output:\n%s", body)
	}
}

func TestDocExtensionlessPath(t *testing.T) {
	s, docs := newTestServer(t)
	writeDoc(t, filepath.Join(docs, "setup.md"), "# Setup\n")

	rec := get(t, s, "/docs/setup")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Setup") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestDirectoryIndexFile(t *testing.T) {
	s, docs := newTestServer(t)
	writeDoc(t, filepath.Join(docs, "api", "index.md"), "# API Reference\n")

	rec := get(t, s, "/docs/api")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "API Reference") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRootListingWithoutIndex(t *testing.T) {
	s, docs := newTestServer(t)
	writeDoc(t, filepath.Join(docs, "alpha.md"), "# A\n")
	writeDoc(t, filepath.Join(docs, "sub", "beta.mdx"), "# B\n")
	writeDoc(t, filepath.Join(docs, "_snippets", "hidden.md"), "x")

	rec := get(t, s, "/docs/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="/docs/alpha.md"`) || !strings.Contains(body, `href="/docs/sub/beta.mdx"`) {
		t.Errorf("listing incomplete:\n%s", body)
	}
	if strings.Contains(body, "hidden.md") {
		t.Errorf("snippet dir leaked into listing:\n%s", body)
	}
}

func TestDocNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := get(t, s, "/docs/nope.md"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	s, docs := newTestServer(t)
	writeDoc(t, filepath.Join(filepath.Dir(docs), "secret.md"), "# Secret\n")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	req.URL.Path = "/docs/../secret.md"
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAssetServedRaw(t *testing.T) {
	s, docs := newTestServer(t)
	writeDoc(t, filepath.Join(docs, "assets", "data.txt"), "plain bytes")

	rec := get(t, s, "/docs/assets/data.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "plain bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestUnparseableDocGives500(t *testing.T) {
	s, docs := newTestServer(t)
	writeDoc(t, filepath.Join(docs, "bad.mdx"), "<Broken attr=\"1\">\n")

	if rec := get(t, s, "/docs/bad.mdx"); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestMetricsExposed(t *testing.T) {
	s, docs := newTestServer(t)
	writeDoc(t, filepath.Join(docs, "page.md"), "# P\n")
	get(t, s, "/docs/page.md")

	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "docsplice_page_requests_total") {
		t.Errorf("request counter missing:\n%s", body)
	}
	if !strings.Contains(body, "docsplice_snippets_expanded_total") {
		t.Errorf("expansion counter missing:\n%s", body)
	}
}

func TestWarningBannerShown(t *testing.T) {
	s, docs := newTestServer(t)
	writeDoc(t, filepath.Join(docs, "warn.md"), "# W\n\n<Snippet />\n")

	rec := get(t, s, "/docs/warn.md")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "1 warning(s)") {
		t.Errorf("banner missing:\n%s", rec.Body.String())
	}
}
