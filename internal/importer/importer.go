// Package importer converts external documents into markdown snippet
// files. Each Import call reads one source, a local file or a URL,
// converts it to markdown, and writes the result into the snippets
// directory where inclusion markers can reference it.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

const (
	fetchTimeout  = 30 * time.Second
	maxFetchBytes = 32 << 20
	userAgent     = "docsplice/1.0"
)

// Importer converts documents into markdown snippet files.
type Importer struct {
	OutDir string
	Client *http.Client
	Log    *slog.Logger

	// PdftotextFallback shells out to pdftotext when the Go PDF
	// library cannot extract any text.
	PdftotextFallback bool

	conv *converter.Converter
}

// New creates an Importer writing snippets under outDir.
func New(outDir string, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		OutDir: outDir,
		Client: &http.Client{Timeout: fetchTimeout},
		Log:    log,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Import reads source, converts it to markdown, and writes a snippet
// file under OutDir. It returns the written path. A non-empty name
// overrides the filename derived from the source.
func (im *Importer) Import(ctx context.Context, source, name string) (string, error) {
	var (
		data  []byte
		ctype string
		err   error
	)
	remote := strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
	if remote {
		data, ctype, err = im.fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}

	format := formatOf(source)
	if remote && !knownFormat(format) {
		if ct := contentTypeFormat(ctype); ct != "" {
			format = ct
		} else {
			format = "html"
		}
	}

	md, err := im.convert(data, format, source)
	if err != nil {
		return "", err
	}

	if name == "" {
		name = outputName(source)
	}
	if err := os.MkdirAll(im.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create snippets dir: %w", err)
	}
	out := filepath.Join(im.OutDir, name)
	if err := os.WriteFile(out, md, 0o644); err != nil {
		return "", fmt.Errorf("write snippet: %w", err)
	}
	im.Log.Info("imported", "source", source, "out", out, "bytes", len(md))
	return out, nil
}

func (im *Importer) convert(data []byte, format, source string) ([]byte, error) {
	switch format {
	case "html", "htm":
		return im.fromHTML(data, source)
	case "docx":
		return fromDOCX(data)
	case "pdf":
		return im.fromPDF(data)
	case "csv":
		return fromCSV(data)
	case "txt":
		return fromText(data)
	case "md", "mdx", "markdown":
		return data, nil
	}
	return nil, fmt.Errorf("unsupported source format %q", format)
}

func (im *Importer) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", userAgent)

	client := im.Client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// formatOf returns the lowercased extension of the source's last path
// segment, or "" when it has none.
func formatOf(source string) string {
	seg := source
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		seg = u.Path
	}
	if i := strings.LastIndexAny(seg, `/\`); i >= 0 {
		seg = seg[i+1:]
	}
	dot := strings.LastIndexByte(seg, '.')
	if dot < 0 || dot == len(seg)-1 {
		return ""
	}
	return strings.ToLower(seg[dot+1:])
}

func knownFormat(format string) bool {
	switch format {
	case "html", "htm", "docx", "pdf", "csv", "txt", "md", "mdx", "markdown":
		return true
	}
	return false
}

// contentTypeFormat maps an HTTP Content-Type to a format name, for
// remote sources whose URL carries no usable extension.
func contentTypeFormat(ctype string) string {
	mt, _, err := mime.ParseMediaType(ctype)
	if err != nil {
		return ""
	}
	switch mt {
	case "text/html", "application/xhtml+xml":
		return "html"
	case "text/markdown":
		return "md"
	case "application/pdf":
		return "pdf"
	case "text/csv":
		return "csv"
	case "text/plain":
		return "txt"
	}
	return ""
}

// outputName derives a snippet filename from the source reference.
func outputName(source string) string {
	name := source
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		name = strings.Trim(u.Path, "/")
		if name == "" {
			name = u.Host
		}
	}
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	// Strip the extension only when it names a convertible format, so
	// host-derived names like example.com keep their dots.
	if dot := strings.LastIndexByte(name, '.'); dot > 0 && knownFormat(strings.ToLower(name[dot+1:])) {
		name = name[:dot]
	}
	name = sanitizeName(name)
	if name == "" {
		name = "imported"
	}
	return name + ".md"
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-.")
}
