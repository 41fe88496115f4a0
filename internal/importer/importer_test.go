package importer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestImporter(t *testing.T) *Importer {
	t.Helper()
	return New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestImportCSV(t *testing.T) {
	im := newTestImporter(t)
	src := writeSource(t, "users.csv", "name,role\nalice,admin\nbob,viewer\n")

	out, err := im.Import(context.Background(), src, "")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if filepath.Base(out) != "users.md" {
		t.Errorf("output name = %s, want users.md", filepath.Base(out))
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	got := string(data)
	for _, want := range []string{"| name | role |", "| --- | --- |", "| alice | admin |", "| bob | viewer |"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestImportCSVEscapesPipes(t *testing.T) {
	im := newTestImporter(t)
	src := writeSource(t, "odd.csv", "col\n\"a|b\"\n")

	out, err := im.Import(context.Background(), src, "")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	data, _ := os.ReadFile(out)
	if !strings.Contains(string(data), `a\|b`) {
		t.Errorf("pipe not escaped:\n%s", data)
	}
}

func TestImportLocalHTML(t *testing.T) {
	im := newTestImporter(t)
	src := writeSource(t, "page.html", `<html><body>
<h1>Getting Started</h1>
<p>Install the <a href="https://example.com/docs">docs</a> first.</p>
</body></html>`)

	out, err := im.Import(context.Background(), src, "")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	data, _ := os.ReadFile(out)
	got := string(data)
	if !strings.Contains(got, "# Getting Started") {
		t.Errorf("heading not converted:\n%s", got)
	}
	if !strings.Contains(got, "[docs](https://example.com/docs)") {
		t.Errorf("link not converted:\n%s", got)
	}
}

func TestImportRemoteHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, "<h1>Remote Page</h1><p>Body text.</p>")
	}))
	defer srv.Close()

	im := newTestImporter(t)
	out, err := im.Import(context.Background(), srv.URL+"/guides/setup", "")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if filepath.Base(out) != "setup.md" {
		t.Errorf("output name = %s, want setup.md", filepath.Base(out))
	}
	data, _ := os.ReadFile(out)
	if !strings.Contains(string(data), "# Remote Page") {
		t.Errorf("not converted:\n%s", data)
	}
}

func TestImportRemoteStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	im := newTestImporter(t)
	if _, err := im.Import(context.Background(), srv.URL+"/gone", ""); err == nil {
		t.Fatal("expected error for 404 source")
	}
}

func TestImportText(t *testing.T) {
	im := newTestImporter(t)
	src := writeSource(t, "notes.txt", "first line\nsecond line\n\n\nnext para\n")

	out, err := im.Import(context.Background(), src, "")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	data, _ := os.ReadFile(out)
	want := "first line\nsecond line\n\nnext para\n"
	if string(data) != want {
		t.Errorf("got %q, want %q", data, want)
	}
}

func TestImportMarkdownPassthrough(t *testing.T) {
	im := newTestImporter(t)
	content := "# Kept\n\nAs-is, including `code`.\n"
	src := writeSource(t, "ready.md", content)

	out, err := im.Import(context.Background(), src, "")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != content {
		t.Errorf("markdown altered:\n%s", data)
	}
}

func TestImportUnsupportedFormat(t *testing.T) {
	im := newTestImporter(t)
	src := writeSource(t, "blob.xyz", "???")

	_, err := im.Import(context.Background(), src, "")
	if err == nil || !strings.Contains(err.Error(), "unsupported source format") {
		t.Fatalf("err = %v, want unsupported format", err)
	}
}

func TestImportNameOverride(t *testing.T) {
	im := newTestImporter(t)
	src := writeSource(t, "whatever.txt", "hello\n")

	out, err := im.Import(context.Background(), src, "greeting.md")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if filepath.Base(out) != "greeting.md" {
		t.Errorf("output name = %s, want greeting.md", filepath.Base(out))
	}
}

func TestFormatOf(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"guide.html", "html"},
		{"dir/report.DOCX", "docx"},
		{`C:\docs\file.pdf`, "pdf"},
		{"https://example.com/data.csv?v=2", "csv"},
		{"https://example.com/page", ""},
		{"noext", ""},
		{"trailing.", ""},
	}
	for _, tc := range cases {
		if got := formatOf(tc.source); got != tc.want {
			t.Errorf("formatOf(%q) = %q, want %q", tc.source, got, tc.want)
		}
	}
}

func TestOutputName(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"docs/intro.docx", "intro.md"},
		{"https://example.com/guides/Setup.html", "setup.md"},
		{"https://example.com/", "example.com.md"},
		{"https://example.com/a%20b", "a-b.md"},
		{"report.pdf", "report.md"},
	}
	for _, tc := range cases {
		if got := outputName(tc.source); got != tc.want {
			t.Errorf("outputName(%q) = %q, want %q", tc.source, got, tc.want)
		}
	}
}
