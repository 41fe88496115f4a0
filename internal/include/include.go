// Package include implements the recursive snippet-inclusion transform.
//
// The engine walks a parsed document tree for marker elements such as
// <Snippet file="intro.md" />, resolves each reference against the
// snippets directory or over HTTP, expands the content recursively, and
// splices the result into the tree in place of the marker. Sibling
// markers resolve concurrently; each marker's failure is isolated to that
// marker and surfaces as a diagnostic, never as an aborted document.
package include

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgallion1/docsplice/internal/doctree"
	"github.com/dgallion1/docsplice/internal/parser"
	"github.com/dgallion1/docsplice/internal/resolve"
)

const (
	DefaultElementName   = "Snippet"
	DefaultFileAttribute = "file"

	// DefaultMaxDepth bounds recursive inclusion so reference cycles
	// terminate with a diagnostic instead of spinning forever.
	DefaultMaxDepth = 10
)

// Options configure a transform. The zero value works: defaults are
// filled in by NewEngine, and the same configuration — defaults included —
// is carried unchanged into every recursive expansion, so nested snippets
// resolve against the same snippets directory and the same element and
// attribute names.
type Options struct {
	SnippetsDir   string // default: <cwd>/_snippets
	ElementName   string
	FileAttribute string
	MaxDepth      int
	MaxFetchBytes int64 // cap on a single remote snippet body
	Parser        *parser.Parser
	Reporter      Reporter
	HTTPClient    *http.Client
}

func (o Options) withDefaults() Options {
	if o.SnippetsDir == "" {
		if wd, err := os.Getwd(); err == nil {
			o.SnippetsDir = filepath.Join(wd, "_snippets")
		} else {
			o.SnippetsDir = "_snippets"
		}
	}
	if o.ElementName == "" {
		o.ElementName = DefaultElementName
	}
	if o.FileAttribute == "" {
		o.FileAttribute = DefaultFileAttribute
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Parser == nil {
		o.Parser = parser.New()
	}
	if o.Reporter == nil {
		o.Reporter = &SlogReporter{}
	}
	return o
}

// DependencyTracker records local files a document's output depends on,
// enabling incremental rebuilds. Implementations must be safe for
// concurrent use. Remote URLs are never registered.
type DependencyTracker interface {
	AddDependency(path string)
}

// FileContext identifies the document being transformed.
type FileContext struct {
	Path string
	Deps DependencyTracker
}

// Result summarizes one transform invocation, nested expansions included.
type Result struct {
	Expanded int
	Warnings int
	Errors   int
}

// Engine expands snippet markers in place.
type Engine struct {
	opts     Options
	resolver *resolve.Resolver
}

func NewEngine(opts Options) *Engine {
	opts = opts.withDefaults()
	r := resolve.New(opts.SnippetsDir)
	if opts.HTTPClient != nil {
		r.Client = opts.HTTPClient
	}
	if opts.MaxFetchBytes > 0 {
		r.MaxBytes = opts.MaxFetchBytes
	}
	return &Engine{opts: opts, resolver: r}
}

// Options returns the engine's effective configuration, defaults applied.
func (e *Engine) Options() Options { return e.opts }

// Expand locates every marker element in doc and replaces it with the
// referenced content, expanded recursively. The tree is mutated in place
// and sibling order is preserved. Expand never fails as a whole: each
// marker either expands, or stays untouched with a diagnostic emitted.
func (e *Engine) Expand(ctx context.Context, doc *doctree.Node, fc FileContext) Result {
	return e.expand(ctx, doc, fc, 0)
}

// expansion is the private outcome of one marker's processing, gathered
// concurrently and spliced sequentially.
type expansion struct {
	replace  bool
	nodes    []*doctree.Node
	expanded int
	warnings int
	errors   int
}

func (e *Engine) expand(ctx context.Context, doc *doctree.Node, fc FileContext, depth int) Result {
	markers := e.locateMarkers(doc)
	if len(markers) == 0 {
		return Result{}
	}

	// Resolve and expand every marker concurrently; no expansion waits
	// on a sibling's I/O.
	results := make([]expansion, len(markers))
	var wg sync.WaitGroup
	for i, m := range markers {
		wg.Add(1)
		go func(i int, m *doctree.Node) {
			defer wg.Done()
			results[i] = e.expandMarker(ctx, m, fc, depth)
		}(i, m)
	}
	wg.Wait()

	// Splice sequentially in document order, decoupling completion order
	// from final placement.
	var res Result
	for i, m := range markers {
		r := results[i]
		res.Expanded += r.expanded
		res.Warnings += r.warnings
		res.Errors += r.errors
		if r.replace {
			m.ReplaceWith(r.nodes...)
		}
	}
	return res
}

// locateMarkers collects marker elements in document order without
// mutating the tree. Every marker present at call time is collected,
// including one nested inside another marker's children; markers
// introduced later by an expansion belong to the recursive invocation
// that parses the expanded content.
func (e *Engine) locateMarkers(doc *doctree.Node) []*doctree.Node {
	var markers []*doctree.Node
	doctree.Walk(doc, func(n *doctree.Node) bool {
		if n.IsElement() && n.Name == e.opts.ElementName {
			markers = append(markers, n)
		}
		return true
	})
	return markers
}

func (e *Engine) expandMarker(ctx context.Context, m *doctree.Node, fc FileContext, depth int) expansion {
	ref, ok := m.Attr(e.opts.FileAttribute)
	if !ok || ref == "" {
		e.warn(fc, m.Pos, "", fmt.Sprintf(
			"<%s> marker is missing the required %q attribute, leaving it in place",
			e.opts.ElementName, e.opts.FileAttribute))
		return expansion{warnings: 1}
	}

	if depth >= e.opts.MaxDepth {
		e.fail(fc, m.Pos, ref, fmt.Sprintf(
			"snippet nesting exceeded %d levels at %s; possible reference cycle", e.opts.MaxDepth, ref))
		return expansion{errors: 1}
	}

	lang, _ := m.Attr("lang")
	meta, _ := m.Attr("meta")

	res, err := e.resolver.Resolve(ctx, ref)
	if err != nil {
		source := ref
		var rerr *resolve.ResolutionError
		if errors.As(err, &rerr) {
			source = rerr.Source
		}
		e.fail(fc, m.Pos, source, err.Error())
		return expansion{errors: 1}
	}

	if !res.Remote && fc.Deps != nil {
		fc.Deps.AddDependency(res.SourceID)
	}

	// Dispatch on the reference string itself, never on content sniffing.
	cls := resolve.Classify(ref)
	if !cls.MarkdownLike {
		info := cls.Tag
		if lang != "" {
			info = lang
		}
		code := &doctree.Node{
			Kind:    doctree.KindCodeBlock,
			Info:    info,
			Meta:    meta,
			Literal: res.Text,
			Pos:     m.Pos,
		}
		return expansion{replace: true, nodes: []*doctree.Node{code}, expanded: 1}
	}

	sub, warnings, err := e.parseSnippet(fc, m.Pos, res)
	if err != nil {
		e.fail(fc, m.Pos, res.SourceID, fmt.Sprintf("Error reading snippet file %s: %v", res.SourceID, err))
		return expansion{warnings: warnings, errors: 1}
	}

	// Fresh sub-invocation with identical configuration; the nested
	// content's own markers are discovered here, not by re-walking the
	// outer tree.
	nested := e.expand(ctx, sub, FileContext{Path: res.SourceID, Deps: fc.Deps}, depth+1)

	return expansion{
		replace:  true,
		nodes:    sub.Children,
		expanded: 1 + nested.Expanded,
		warnings: warnings + nested.Warnings,
		errors:   nested.Errors,
	}
}

// parseSnippet parses markdown-like snippet content. Local content gets
// the full grammar and fails hard on grammar errors. Remote content tries
// the full grammar first and falls back to the minimal one with a warning;
// only a minimal-grammar failure is terminal.
func (e *Engine) parseSnippet(fc FileContext, pos doctree.Position, res resolve.Resolved) (*doctree.Node, int, error) {
	doc, err := e.opts.Parser.Parse([]byte(res.Text), parser.Full)
	if err == nil {
		return doc, 0, nil
	}
	if !res.Remote {
		return nil, 0, err
	}

	e.warn(fc, pos, res.SourceID, fmt.Sprintf(
		"remote snippet did not parse with the full grammar, falling back to minimal markdown: %v", err))
	doc, minErr := e.opts.Parser.Parse([]byte(res.Text), parser.Minimal)
	if minErr != nil {
		return nil, 1, minErr
	}
	return doc, 1, nil
}

func (e *Engine) warn(fc FileContext, pos doctree.Position, source, msg string) {
	e.opts.Reporter.Report(Diagnostic{
		Severity: SeverityWarning,
		DocPath:  fc.Path,
		Pos:      pos,
		Source:   source,
		Message:  msg,
	})
}

func (e *Engine) fail(fc FileContext, pos doctree.Position, source, msg string) {
	e.opts.Reporter.Report(Diagnostic{
		Severity: SeverityError,
		DocPath:  fc.Path,
		Pos:      pos,
		Source:   source,
		Message:  msg,
	})
}
