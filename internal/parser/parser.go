// Package parser converts Markdown source into document trees.
//
// Two grammars are supported. Full is the authoring grammar for local
// documents: GFM tables, strikethrough, task lists, YAML/TOML frontmatter,
// and element tags like <Snippet file="intro.md" /> parsed into element
// nodes. Minimal is plain CommonMark with raw HTML kept verbatim; it is
// the fallback for third-party content that the full grammar rejects.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/docsplice/internal/doctree"
)

// Mode selects the grammar used for a parse.
type Mode int

const (
	// Full parses the authoring grammar: GFM, frontmatter and elements.
	Full Mode = iota
	// Minimal parses plain CommonMark. Raw HTML stays literal and
	// frontmatter, if any, is left in the body.
	Minimal
)

// Parser converts source text into a document tree. A Parser holds no
// per-document state and is safe for concurrent use.
type Parser struct {
	full    goldmark.Markdown
	minimal goldmark.Markdown
}

func New() *Parser {
	return &Parser{
		full: goldmark.New(goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		)),
		minimal: goldmark.New(),
	}
}

// Parse converts src into a document tree using the given mode. In Full
// mode, malformed frontmatter and malformed component tags are errors;
// in Minimal mode neither construct is interpreted.
func (p *Parser) Parse(src []byte, mode Mode) (*doctree.Node, error) {
	var frontAttrs []doctree.Attr
	lineOffset := 0
	if mode == Full {
		body, attrs, skipped, err := stripFrontmatter(src)
		if err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
		src = body
		frontAttrs = attrs
		lineOffset = skipped
	}

	md := p.full
	if mode == Minimal {
		md = p.minimal
	}
	root := md.Parser().Parse(text.NewReader(src))

	c := &converter{src: src, mode: mode, lines: lineStarts(src), lineOffset: lineOffset}
	doc, err := c.document(root)
	if err != nil {
		return nil, err
	}
	doc.Attrs = frontAttrs
	return doc, nil
}

// stripFrontmatter removes a leading frontmatter block and flattens its
// top-level fields into document attributes. skipped is the number of
// source lines removed, so node positions can stay relative to the
// original file.
func stripFrontmatter(src []byte) (body []byte, attrs []doctree.Attr, skipped int, err error) {
	var meta map[string]any
	rest, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(rest) == len(src) {
		return src, nil, 0, nil
	}
	skipped = bytes.Count(src[:len(src)-len(rest)], []byte("\n"))

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, doctree.Attr{Name: k, Value: fmt.Sprint(meta[k])})
	}
	return rest, attrs, skipped, nil
}

type converter struct {
	src        []byte
	mode       Mode
	lines      []int // byte offset of each line start
	lineOffset int

	// set when a task list checkbox is skipped in inline conversion,
	// consumed by the enclosing list item
	taskChecked *bool
}

// lineStarts returns the byte offset of every line start in src.
func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (c *converter) posAt(offset int) doctree.Position {
	line := sort.Search(len(c.lines), func(i int) bool { return c.lines[i] > offset })
	return doctree.Position{
		Line:   line + c.lineOffset,
		Column: offset - c.lines[line-1] + 1,
	}
}

func (c *converter) nodePos(n ast.Node) doctree.Position {
	if l := n.Lines(); l != nil && l.Len() > 0 {
		return c.posAt(l.At(0).Start)
	}
	return doctree.Position{}
}

func (c *converter) document(root ast.Node) (*doctree.Node, error) {
	doc := &doctree.Node{Kind: doctree.KindDocument}
	for child := root.FirstChild(); child != nil; child = child.NextSibling() {
		nodes, err := c.block(child)
		if err != nil {
			return nil, err
		}
		doc.Children = append(doc.Children, nodes...)
	}
	return doc, nil
}

// block converts one goldmark block node. An HTML block may expand into
// several element nodes, hence the slice.
func (c *converter) block(n ast.Node) ([]*doctree.Node, error) {
	switch b := n.(type) {
	case *ast.Heading:
		kids, err := c.inlines(b)
		if err != nil {
			return nil, err
		}
		return one(&doctree.Node{Kind: doctree.KindHeading, Depth: b.Level, Pos: c.nodePos(b), Children: kids}), nil

	case *ast.Paragraph:
		kids, err := c.inlines(b)
		if err != nil {
			return nil, err
		}
		return one(&doctree.Node{Kind: doctree.KindParagraph, Pos: c.nodePos(b), Children: kids}), nil

	case *ast.TextBlock:
		kids, err := c.inlines(b)
		if err != nil {
			return nil, err
		}
		return one(&doctree.Node{Kind: doctree.KindParagraph, Pos: c.nodePos(b), Children: kids}), nil

	case *ast.FencedCodeBlock:
		var info, meta string
		if b.Info != nil {
			info, meta = splitInfo(string(b.Info.Segment.Value(c.src)))
		}
		return one(&doctree.Node{
			Kind:    doctree.KindCodeBlock,
			Info:    info,
			Meta:    meta,
			Literal: c.linesValue(b),
			Pos:     c.nodePos(b),
		}), nil

	case *ast.CodeBlock:
		return one(&doctree.Node{Kind: doctree.KindCodeBlock, Literal: c.linesValue(b), Pos: c.nodePos(b)}), nil

	case *ast.Blockquote:
		quote := &doctree.Node{Kind: doctree.KindBlockquote, Pos: c.nodePos(b)}
		if err := c.appendBlocks(quote, b); err != nil {
			return nil, err
		}
		return one(quote), nil

	case *ast.List:
		list := &doctree.Node{Kind: doctree.KindList, Ordered: b.IsOrdered(), Start: b.Start, Pos: c.nodePos(b)}
		for item := b.FirstChild(); item != nil; item = item.NextSibling() {
			li := &doctree.Node{Kind: doctree.KindListItem}
			if err := c.appendBlocks(li, item); err != nil {
				return nil, err
			}
			if c.taskChecked != nil {
				li.Checked = c.taskChecked
				c.taskChecked = nil
			}
			list.AppendChild(li)
		}
		return one(list), nil

	case *ast.ThematicBreak:
		return one(&doctree.Node{Kind: doctree.KindThematicBreak}), nil

	case *ast.HTMLBlock:
		raw := c.htmlBlockValue(b)
		pos := c.nodePos(b)
		if c.mode == Full {
			nodes, err := parseElements(raw, false, pos)
			if err == nil {
				return nodes, nil
			}
			if !errors.Is(err, errPlainHTML) {
				return nil, fmt.Errorf("line %d: %w", pos.Line, err)
			}
		}
		return one(&doctree.Node{Kind: doctree.KindHTML, Literal: raw, Pos: pos}), nil

	case *east.Table:
		return c.table(b)

	default:
		// Unknown block kinds keep their text so content never vanishes.
		kids, err := c.inlines(n)
		if err != nil {
			return nil, err
		}
		if len(kids) == 0 {
			return nil, nil
		}
		return one(&doctree.Node{Kind: doctree.KindParagraph, Pos: c.nodePos(n), Children: kids}), nil
	}
}

func (c *converter) appendBlocks(parent *doctree.Node, n ast.Node) error {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		nodes, err := c.block(child)
		if err != nil {
			return err
		}
		parent.Children = append(parent.Children, nodes...)
	}
	return nil
}

func (c *converter) table(t *east.Table) ([]*doctree.Node, error) {
	table := &doctree.Node{Kind: doctree.KindTable, Pos: c.nodePos(t)}
	for _, a := range t.Alignments {
		table.Align = append(table.Align, alignString(a))
	}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		r := &doctree.Node{Kind: doctree.KindTableRow, Header: row.Kind() == east.KindTableHeader}
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			kids, err := c.inlines(cell)
			if err != nil {
				return nil, err
			}
			r.AppendChild(&doctree.Node{Kind: doctree.KindTableCell, Children: kids})
		}
		table.AppendChild(r)
	}
	return one(table), nil
}

func alignString(a east.Alignment) string {
	switch a {
	case east.AlignLeft:
		return "left"
	case east.AlignRight:
		return "right"
	case east.AlignCenter:
		return "center"
	}
	return ""
}

// inlines converts the inline children of a goldmark node.
func (c *converter) inlines(parent ast.Node) ([]*doctree.Node, error) {
	var out []*doctree.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch v := n.(type) {
		case *ast.Text:
			lit := string(v.Segment.Value(c.src))
			if v.HardLineBreak() {
				out = append(out,
					&doctree.Node{Kind: doctree.KindText, Literal: lit},
					&doctree.Node{Kind: doctree.KindBreak})
				continue
			}
			if v.SoftLineBreak() {
				lit += "\n"
			}
			out = append(out, &doctree.Node{Kind: doctree.KindText, Literal: lit})

		case *ast.String:
			out = append(out, &doctree.Node{Kind: doctree.KindText, Literal: string(v.Value)})

		case *ast.CodeSpan:
			out = append(out, &doctree.Node{Kind: doctree.KindInlineCode, Literal: c.rawText(v)})

		case *ast.Emphasis:
			kids, err := c.inlines(v)
			if err != nil {
				return nil, err
			}
			kind := doctree.KindEmphasis
			if v.Level == 2 {
				kind = doctree.KindStrong
			}
			out = append(out, &doctree.Node{Kind: kind, Children: kids})

		case *east.Strikethrough:
			kids, err := c.inlines(v)
			if err != nil {
				return nil, err
			}
			out = append(out, &doctree.Node{Kind: doctree.KindDelete, Children: kids})

		case *ast.Link:
			kids, err := c.inlines(v)
			if err != nil {
				return nil, err
			}
			out = append(out, &doctree.Node{
				Kind:     doctree.KindLink,
				URL:      string(v.Destination),
				Title:    string(v.Title),
				Children: kids,
			})

		case *ast.AutoLink:
			out = append(out, &doctree.Node{
				Kind:     doctree.KindLink,
				URL:      string(v.URL(c.src)),
				Children: []*doctree.Node{{Kind: doctree.KindText, Literal: string(v.Label(c.src))}},
			})

		case *ast.Image:
			kids, err := c.inlines(v)
			if err != nil {
				return nil, err
			}
			out = append(out, &doctree.Node{
				Kind:     doctree.KindImage,
				URL:      string(v.Destination),
				Title:    string(v.Title),
				Children: kids,
			})

		case *ast.RawHTML:
			raw, pos := c.rawHTMLValue(v)
			if c.mode == Full {
				elems, err := parseElements(raw, true, pos)
				if err == nil {
					out = append(out, elems...)
					continue
				}
				if !errors.Is(err, errPlainHTML) {
					return nil, fmt.Errorf("line %d: %w", pos.Line, err)
				}
			}
			out = append(out, &doctree.Node{Kind: doctree.KindHTML, Literal: raw, Pos: pos})

		case *east.TaskCheckBox:
			checked := v.IsChecked
			c.taskChecked = &checked

		default:
			kids, err := c.inlines(n)
			if err != nil {
				return nil, err
			}
			out = append(out, kids...)
		}
	}
	return out, nil
}

// rawText concatenates the raw source text of a node's children, used for
// code spans where markup is not interpreted.
func (c *converter) rawText(n ast.Node) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(c.src))
		}
	}
	return buf.String()
}

func (c *converter) linesValue(n ast.Node) string {
	var buf bytes.Buffer
	l := n.Lines()
	for i := 0; i < l.Len(); i++ {
		line := l.At(i)
		buf.Write(line.Value(c.src))
	}
	return buf.String()
}

func (c *converter) htmlBlockValue(b *ast.HTMLBlock) string {
	raw := c.linesValue(b)
	if b.HasClosure() {
		raw += string(b.ClosureLine.Value(c.src))
	}
	return raw
}

func (c *converter) rawHTMLValue(v *ast.RawHTML) (string, doctree.Position) {
	var buf bytes.Buffer
	for i := 0; i < v.Segments.Len(); i++ {
		seg := v.Segments.At(i)
		buf.Write(seg.Value(c.src))
	}
	pos := doctree.Position{}
	if v.Segments.Len() > 0 {
		pos = c.posAt(v.Segments.At(0).Start)
	}
	return buf.String(), pos
}

// splitInfo splits a fence info line into the language word and the rest.
func splitInfo(info string) (lang, meta string) {
	for i, r := range info {
		if r == ' ' || r == '\t' {
			return info[:i], trimLeftSpace(info[i:])
		}
	}
	return info, ""
}

func trimLeftSpace(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	return s
}

func one(n *doctree.Node) []*doctree.Node {
	return []*doctree.Node{n}
}
