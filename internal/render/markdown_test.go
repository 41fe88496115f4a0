package render

import (
	"strings"
	"testing"

	"github.com/dgallion1/docsplice/internal/doctree"
	"github.com/dgallion1/docsplice/internal/parser"
)

func parse(t *testing.T, src string) *doctree.Node {
	t.Helper()
	doc, err := parser.New().Parse([]byte(src), parser.Full)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

func TestMarkdownRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"heading and paragraph", "# Title\n\nHello.\n", "# Title\n\nHello.\n"},
		{"bullet list", "- a\n- b\n", "- a\n- b\n"},
		{"ordered list", "1. x\n2. y\n", "1. x\n2. y\n"},
		{"blockquote", "> quoted\n", "> quoted\n"},
		{"code fence", "```go\ncode()\n```\n", "```go\ncode()\n```\n"},
		{"emphasis", "*em* **strong** `code`\n", "*em* **strong** `code`\n"},
		{"link", "[text](https://example.com)\n", "[text](https://example.com)\n"},
		{"autolink", "<https://example.com>\n", "<https://example.com>\n"},
		{"thematic break", "a\n\n---\n\nb\n", "a\n\n---\n\nb\n"},
		{"table", "| a | b |\n| --- | --- |\n| 1 | 2 |\n", "| a | b |\n| --- | --- |\n| 1 | 2 |\n"},
		{"self-closing element", "<Snippet file=\"a.md\" />\n", "<Snippet file=\"a.md\" />\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Markdown(parse(t, tt.src))
			if got != tt.want {
				t.Errorf("Markdown() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNestedElementNormalized(t *testing.T) {
	src := "<Tabs>\n  <Tab title=\"Go\">\n    First\n  </Tab>\n</Tabs>\n"
	want := "<Tabs>\n<Tab title=\"Go\">\nFirst\n</Tab>\n</Tabs>\n"

	if got := Markdown(parse(t, src)); got != want {
		t.Errorf("Markdown() = %q, want %q", got, want)
	}
}

func TestFenceGrowsPastBackticks(t *testing.T) {
	doc := &doctree.Node{Kind: doctree.KindDocument, Children: []*doctree.Node{
		{Kind: doctree.KindCodeBlock, Literal: "```\ninner\n```\n"},
	}}
	got := Markdown(doc)
	if !strings.HasPrefix(got, "````\n") {
		t.Errorf("fence should grow past embedded backticks, got %q", got)
	}
	if !strings.Contains(got, "```\ninner\n```\n") {
		t.Errorf("content must survive verbatim, got %q", got)
	}
}

func TestFragmentTransparent(t *testing.T) {
	frag := doctree.Fragment(
		&doctree.Node{Kind: doctree.KindParagraph, Children: []*doctree.Node{{Kind: doctree.KindText, Literal: "a"}}},
		&doctree.Node{Kind: doctree.KindParagraph, Children: []*doctree.Node{{Kind: doctree.KindText, Literal: "b"}}},
	)
	doc := &doctree.Node{Kind: doctree.KindDocument, Children: []*doctree.Node{
		{Kind: doctree.KindHeading, Depth: 1, Children: []*doctree.Node{{Kind: doctree.KindText, Literal: "H"}}},
		frag,
		{Kind: doctree.KindParagraph, Children: []*doctree.Node{{Kind: doctree.KindText, Literal: "c"}}},
	}}

	want := "# H\n\na\n\nb\n\nc\n"
	if got := Markdown(doc); got != want {
		t.Errorf("Markdown() = %q, want %q", got, want)
	}
}

func TestElementAttrsEscaped(t *testing.T) {
	doc := &doctree.Node{Kind: doctree.KindDocument, Children: []*doctree.Node{
		{Kind: doctree.KindFlowElement, Name: "Snippet", Attrs: []doctree.Attr{
			{Name: "file", Value: `say "hi" & bye`},
		}},
	}}
	got := Markdown(doc)
	if !strings.Contains(got, "&#34;") || !strings.Contains(got, "&amp;") {
		t.Errorf("attribute value should be escaped, got %q", got)
	}
}

func TestCodeSpanWithBackticks(t *testing.T) {
	doc := &doctree.Node{Kind: doctree.KindDocument, Children: []*doctree.Node{
		{Kind: doctree.KindParagraph, Children: []*doctree.Node{
			{Kind: doctree.KindInlineCode, Literal: "a`b"},
		}},
	}}
	want := "`` a`b ``\n"
	if got := Markdown(doc); got != want {
		t.Errorf("Markdown() = %q, want %q", got, want)
	}
}

func TestTaskListRendered(t *testing.T) {
	got := Markdown(parse(t, "- [x] done\n- [ ] todo\n"))
	want := "- [x] done\n- [ ] todo\n"
	if got != want {
		t.Errorf("Markdown() = %q, want %q", got, want)
	}
}
