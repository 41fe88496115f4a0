// Package builder expands snippet markers across a whole docs tree.
//
// It walks a directory for .md/.mdx sources, expands each one with the
// inclusion engine under bounded concurrency, and writes the expanded
// markdown under the output directory with the same relative layout.
// Dot- and underscore-prefixed directories (snippets, build output,
// VCS metadata) are skipped.
package builder

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dgallion1/docsplice/internal/include"
	"github.com/dgallion1/docsplice/internal/parser"
	"github.com/dgallion1/docsplice/internal/render"
)

// Options tune a build run. The inclusion behavior itself (snippets dir,
// element name, attribute, depth) lives on the engine.
type Options struct {
	OutDir      string
	Concurrency int
}

// Stats aggregates one build run.
type Stats struct {
	Docs     int
	Failed   int
	Expanded int
	Warnings int
	Errors   int
}

// DocReport describes one document's outcome.
type DocReport struct {
	Path     string
	OutPath  string
	Expanded int
	Warnings int
	Errors   int
	Deps     []string
	Err      error
}

type Builder struct {
	engine *include.Engine
	log    *slog.Logger
	opts   Options
}

func New(engine *include.Engine, log *slog.Logger, opts Options) *Builder {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Builder{engine: engine, log: log, opts: opts}
}

// Build expands every markdown document under docsDir. It returns per-doc
// reports in walk order; the error covers directory-level failures only,
// never a single document's problems.
func (b *Builder) Build(ctx context.Context, docsDir string) (Stats, []DocReport, error) {
	files, err := collectSources(docsDir)
	if err != nil {
		return Stats{}, nil, err
	}
	if len(files) == 0 {
		return Stats{}, nil, nil
	}

	type fileResult struct {
		idx    int
		report DocReport
	}
	results := make(chan fileResult, len(files))
	sem := make(chan struct{}, b.opts.Concurrency)

	for i, path := range files {
		sem <- struct{}{}
		go func(i int, path string) {
			defer func() { <-sem }()
			results <- fileResult{idx: i, report: b.processFile(ctx, docsDir, path)}
		}(i, path)
	}

	reports := make([]DocReport, len(files))
	for range files {
		r := <-results
		reports[r.idx] = r.report
	}

	var stats Stats
	for _, rep := range reports {
		stats.Docs++
		if rep.Err != nil {
			stats.Failed++
			b.log.Error("build failed", "doc", rep.Path, "error", rep.Err)
			continue
		}
		stats.Expanded += rep.Expanded
		stats.Warnings += rep.Warnings
		stats.Errors += rep.Errors
		b.log.Info("built",
			"doc", rep.Path,
			"out", rep.OutPath,
			"snippets", rep.Expanded,
			"warnings", rep.Warnings,
			"errors", rep.Errors)
	}
	return stats, reports, nil
}

// BuildFile expands a single document, writing it under OutDir by its
// base name.
func (b *Builder) BuildFile(ctx context.Context, path string) (Stats, DocReport, error) {
	rep := b.processFile(ctx, filepath.Dir(path), path)
	stats := Stats{Docs: 1}
	if rep.Err != nil {
		stats.Failed = 1
		return stats, rep, nil
	}
	stats.Expanded = rep.Expanded
	stats.Warnings = rep.Warnings
	stats.Errors = rep.Errors
	return stats, rep, nil
}

func (b *Builder) processFile(ctx context.Context, docsDir, path string) DocReport {
	rep := DocReport{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		rep.Err = fmt.Errorf("read: %w", err)
		return rep
	}
	doc, err := b.engine.Options().Parser.Parse(data, parser.Full)
	if err != nil {
		rep.Err = fmt.Errorf("parse: %w", err)
		return rep
	}

	deps := &depSet{}
	res := b.engine.Expand(ctx, doc, include.FileContext{Path: path, Deps: deps})
	rep.Expanded = res.Expanded
	rep.Warnings = res.Warnings
	rep.Errors = res.Errors
	rep.Deps = deps.paths()

	rel, err := filepath.Rel(docsDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	outPath := filepath.Join(b.opts.OutDir, rel)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		rep.Err = fmt.Errorf("create output dir: %w", err)
		return rep
	}
	if err := os.WriteFile(outPath, []byte(render.Markdown(doc)), 0o644); err != nil {
		rep.Err = fmt.Errorf("write: %w", err)
		return rep
	}
	rep.OutPath = outPath
	return rep
}

// collectSources lists the markdown files under root in a stable walk
// order.
func collectSources(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".md", ".mdx":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// depSet is a concurrency-safe, de-duplicating dependency tracker.
type depSet struct {
	mu  sync.Mutex
	set map[string]struct{}
}

func (d *depSet) AddDependency(p string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.set == nil {
		d.set = make(map[string]struct{})
	}
	d.set[p] = struct{}{}
}

func (d *depSet) paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.set))
	for p := range d.set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
