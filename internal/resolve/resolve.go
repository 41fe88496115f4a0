// Package resolve turns snippet references into raw content.
//
// A reference is either an http(s) URL, fetched with a single GET, or a
// path joined under the snippets directory and read from disk. Content is
// never cached: every reference triggers a fresh read or fetch, so edits
// to shared snippets are always picked up.
package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultMaxFetchBytes caps a single remote snippet body.
	DefaultMaxFetchBytes = 10 << 20

	defaultFetchTimeout = 30 * time.Second

	userAgent = "docsplice/1.0"
)

// Resolved is the outcome of a successful resolution. SourceID is the
// resolved local path or the URL verbatim; it feeds diagnostics and
// dependency registration.
type Resolved struct {
	Text     string
	SourceID string
	Remote   bool
}

// ResolutionError wraps a read or fetch failure together with the
// resolved path or URL it concerns.
type ResolutionError struct {
	Source string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("Error reading snippet file %s: %v", e.Source, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// IsRemote reports whether a reference is a URL rather than a local path.
func IsRemote(reference string) bool {
	return strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://")
}

// Resolver reads snippet content from disk or over HTTP. Fields may be
// adjusted before first use; a zero Client gets a default with a timeout.
type Resolver struct {
	SnippetsDir string
	Client      *http.Client
	MaxBytes    int64
}

func New(snippetsDir string) *Resolver {
	return &Resolver{
		SnippetsDir: snippetsDir,
		Client:      &http.Client{Timeout: defaultFetchTimeout},
		MaxBytes:    DefaultMaxFetchBytes,
	}
}

// Resolve fetches the content behind a reference. Failures come back as
// *ResolutionError carrying the resolved source identifier.
func (r *Resolver) Resolve(ctx context.Context, reference string) (Resolved, error) {
	if IsRemote(reference) {
		text, err := r.fetch(ctx, reference)
		if err != nil {
			return Resolved{}, &ResolutionError{Source: reference, Err: err}
		}
		return Resolved{Text: text, SourceID: reference, Remote: true}, nil
	}

	path := filepath.Join(r.SnippetsDir, reference)
	data, err := os.ReadFile(path)
	if err != nil {
		return Resolved{}, &ResolutionError{Source: path, Err: err}
	}
	return Resolved{Text: string(data), SourceID: path}, nil
}

func (r *Resolver) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	max := r.MaxBytes
	if max <= 0 {
		max = DefaultMaxFetchBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, max))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}
