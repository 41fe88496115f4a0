// Package web serves a live preview of a documentation tree. Every
// page request re-reads the source file, expands its snippet markers,
// and renders sanitized HTML, so edits show up on refresh.
package web

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docsplice/internal/doctree"
	"github.com/dgallion1/docsplice/internal/include"
	"github.com/dgallion1/docsplice/internal/parser"
	"github.com/dgallion1/docsplice/internal/render"
	"github.com/dgallion1/docsplice/internal/resolve"
)

// Server is the preview HTTP server.
type Server struct {
	router  chi.Router
	engine  *include.Engine
	log     *slog.Logger
	docsDir string
	metrics *metrics
}

// NewServer creates and configures the preview server over docsDir.
func NewServer(engine *include.Engine, log *slog.Logger, docsDir string) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		engine:  engine,
		log:     log,
		docsDir: docsDir,
		metrics: newMetrics(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusFound)
	})
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusFound)
	})
	r.Get("/docs/*", s.handleDoc)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	rel := cleanDocPath(chi.URLParam(r, "*"))

	// Non-markdown assets (images, stylesheets) are served as-is.
	if rel != "" && !resolve.Classify(rel).MarkdownLike {
		full := filepath.Join(s.docsDir, filepath.FromSlash(rel))
		if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
			http.ServeFile(w, r, full)
			return
		}
	}

	source, ok := s.resolveDoc(rel)
	if !ok {
		if rel == "" {
			s.handleIndex(w, r)
			return
		}
		s.metrics.requests.WithLabelValues("404").Inc()
		http.NotFound(w, r)
		return
	}

	start := time.Now()
	page, err := s.renderDoc(r.Context(), source)
	if err != nil {
		s.metrics.requests.WithLabelValues("500").Inc()
		s.log.Error("render failed", "doc", source, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	s.metrics.duration.Observe(time.Since(start).Seconds())
	s.metrics.expanded.Add(float64(page.result.Expanded))
	if page.result.Warnings > 0 {
		s.metrics.problems.WithLabelValues("warning").Add(float64(page.result.Warnings))
	}
	if page.result.Errors > 0 {
		s.metrics.problems.WithLabelValues("error").Add(float64(page.result.Errors))
	}
	s.metrics.requests.WithLabelValues("200").Inc()

	s.writePage(w, pageData{
		Title:    page.title,
		Body:     template.HTML(page.body),
		Problems: problemsLine(page.result),
	})
}

type renderedPage struct {
	title  string
	body   []byte
	result include.Result
}

// renderDoc runs the full pipeline for one page: read, parse, expand,
// render. Expansion is fresh on every call so edits to docs and
// snippets are picked up without restarting.
func (s *Server) renderDoc(ctx context.Context, source string) (renderedPage, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return renderedPage{}, fmt.Errorf("read: %w", err)
	}
	doc, err := s.engine.Options().Parser.Parse(data, parser.Full)
	if err != nil {
		return renderedPage{}, fmt.Errorf("parse: %w", err)
	}
	res := s.engine.Expand(ctx, doc, include.FileContext{Path: source})
	body, err := render.HTML(doc)
	if err != nil {
		return renderedPage{}, fmt.Errorf("render: %w", err)
	}
	return renderedPage{
		title:  docTitle(doc, filepath.Base(source)),
		body:   body,
		result: res,
	}, nil
}

// resolveDoc maps a URL path to a source file, trying the path itself,
// then .md/.mdx variants, then a directory index.
func (s *Server) resolveDoc(rel string) (string, bool) {
	var candidates []string
	switch {
	case rel == "":
		candidates = []string{"index.md", "index.mdx", "README.md"}
	case resolve.Classify(rel).MarkdownLike:
		candidates = []string{rel}
	default:
		candidates = []string{
			rel + ".md",
			rel + ".mdx",
			path.Join(rel, "index.md"),
			path.Join(rel, "index.mdx"),
		}
	}
	for _, c := range candidates {
		full := filepath.Join(s.docsDir, filepath.FromSlash(c))
		if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
			return full, true
		}
	}
	return "", false
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	docs, err := listDocs(s.docsDir)
	if err != nil {
		s.metrics.requests.WithLabelValues("500").Inc()
		s.log.Error("list docs failed", "dir", s.docsDir, "error", err)
		http.Error(w, "failed to list documents", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, docs); err != nil {
		http.Error(w, "failed to render index", http.StatusInternalServerError)
		return
	}
	s.metrics.requests.WithLabelValues("200").Inc()
	s.writePage(w, pageData{Title: "Documents", Body: template.HTML(buf.Bytes())})
}

func (s *Server) writePage(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.log.Error("write page failed", "error", err)
	}
}

// cleanDocPath normalizes a wildcard URL path. Rooting the path before
// cleaning collapses any ".." segments, so the result can never escape
// the docs directory.
func cleanDocPath(raw string) string {
	cleaned := path.Clean("/" + raw)
	return strings.TrimPrefix(cleaned, "/")
}

// docTitle returns the text of the first heading, or fallback when the
// document has none.
func docTitle(doc *doctree.Node, fallback string) string {
	title := fallback
	found := false
	doctree.Walk(doc, func(n *doctree.Node) bool {
		if found {
			return false
		}
		if n.Kind == doctree.KindHeading {
			if t := strings.TrimSpace(n.TextContent()); t != "" {
				title = t
				found = true
			}
			return false
		}
		return true
	})
	return title
}

// listDocs collects the relative paths of all markdown sources under
// dir, skipping hidden and underscore-prefixed directories.
func listDocs(dir string) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return fs.SkipDir
			}
			return nil
		}
		if resolve.Classify(name).MarkdownLike {
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			docs = append(docs, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(docs)
	return docs, nil
}

func problemsLine(res include.Result) string {
	var parts []string
	if res.Warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", res.Warnings))
	}
	if res.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", res.Errors))
	}
	if len(parts) == 0 {
		return ""
	}
	return "snippet expansion reported " + strings.Join(parts, " and ")
}

type pageData struct {
	Title    string
	Body     template.HTML
	Problems string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { max-width: 46rem; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.6; color: #1f2328; }
pre { background: #f6f8fa; padding: 1rem; overflow-x: auto; border-radius: 6px; }
code { font-family: ui-monospace, monospace; font-size: 0.9em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #d1d9e0; padding: 0.4rem 0.8rem; }
blockquote { border-left: 4px solid #d1d9e0; margin-left: 0; padding-left: 1rem; color: #59636e; }
.notice { background: #fff8c5; border: 1px solid #d4a72c; padding: 0.5rem 1rem; border-radius: 6px; }
</style>
</head>
<body>
{{if .Problems}}<p class="notice">{{.Problems}}</p>
{{end}}<main>
{{.Body}}
</main>
</body>
</html>
`))

var indexTemplate = template.Must(template.New("index").Parse(`<h1>Documents</h1>
<ul>
{{range .}}<li><a href="/docs/{{.}}">{{.}}</a></li>
{{end}}</ul>
`))
