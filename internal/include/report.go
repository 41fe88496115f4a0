package include

import (
	"log/slog"
	"sync"

	"github.com/dgallion1/docsplice/internal/doctree"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic describes one marker's problem: a malformed marker, a failed
// resolution, or a grammar fallback. Diagnostics are the only failure
// channel; the transform itself never fails as a whole.
type Diagnostic struct {
	Severity Severity
	DocPath  string
	Pos      doctree.Position
	Source   string // resolved path or URL, when known
	Message  string
}

// Reporter receives diagnostics. Expansions report from multiple
// goroutines, so implementations must be safe for concurrent use.
type Reporter interface {
	Report(d Diagnostic)
}

// SlogReporter emits diagnostics through a structured logger.
type SlogReporter struct {
	Log *slog.Logger
}

func (r *SlogReporter) Report(d Diagnostic) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	attrs := []any{"doc", d.DocPath}
	if d.Pos.Line > 0 {
		attrs = append(attrs, "line", d.Pos.Line, "column", d.Pos.Column)
	}
	if d.Source != "" {
		attrs = append(attrs, "source", d.Source)
	}
	if d.Severity == SeverityWarning {
		log.Warn(d.Message, attrs...)
		return
	}
	log.Error(d.Message, attrs...)
}

// CollectReporter accumulates diagnostics, optionally forwarding each one
// to a wrapped reporter. Safe for concurrent use.
type CollectReporter struct {
	Next Reporter

	mu  sync.Mutex
	all []Diagnostic
}

func (r *CollectReporter) Report(d Diagnostic) {
	r.mu.Lock()
	r.all = append(r.all, d)
	r.mu.Unlock()
	if r.Next != nil {
		r.Next.Report(d)
	}
}

// Diagnostics returns a copy of everything reported so far.
func (r *CollectReporter) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.all))
	copy(out, r.all)
	return out
}

// Count returns how many diagnostics of the given severity were reported.
func (r *CollectReporter) Count(sev Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.all {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
