package render

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/dgallion1/docsplice/internal/doctree"
)

var (
	previewMD = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(ghtml.WithUnsafe()),
	)
	previewPolicy = bluemonday.UGCPolicy()
)

// HTML renders a document tree to sanitized HTML for the preview server.
// The tree is serialized to markdown first so both outputs share one
// canonical serialization, then sanitized so raw HTML from included
// content cannot inject script.
func HTML(doc *doctree.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := previewMD.Convert([]byte(Markdown(doc)), &buf); err != nil {
		return nil, err
	}
	return previewPolicy.SanitizeBytes(buf.Bytes()), nil
}
