// Package render serializes document trees back to text.
//
// Output is normalized rather than byte-identical to the source: ATX
// headings, dash bullets, backtick fences sized to clear their content,
// and re-serialized element tags. Fragments produced by splicing are
// transparent; their children render as if they sat in the parent.
package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/docsplice/internal/doctree"
)

// Markdown serializes a document tree to markdown text.
func Markdown(doc *doctree.Node) string {
	blocks := renderBlocks(doc.Children)
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func renderBlocks(nodes []*doctree.Node) []string {
	var out []string
	for _, n := range nodes {
		switch n.Kind {
		case doctree.KindHeading:
			out = append(out, strings.Repeat("#", n.Depth)+" "+renderInlines(n.Children))

		case doctree.KindParagraph:
			if s := renderInlines(n.Children); s != "" {
				out = append(out, s)
			}

		case doctree.KindCodeBlock:
			out = append(out, fencedBlock(n))

		case doctree.KindBlockquote:
			out = append(out, quotePrefix(strings.Join(renderBlocks(n.Children), "\n\n")))

		case doctree.KindList:
			out = append(out, renderList(n))

		case doctree.KindThematicBreak:
			out = append(out, "---")

		case doctree.KindTable:
			out = append(out, renderTable(n))

		case doctree.KindHTML:
			out = append(out, strings.TrimRight(n.Literal, "\n"))

		case doctree.KindText:
			if s := strings.TrimSpace(n.Literal); s != "" {
				out = append(out, s)
			}

		case doctree.KindFlowElement, doctree.KindInlineElement:
			if n.IsFragment() {
				out = append(out, renderBlocks(n.Children)...)
				continue
			}
			out = append(out, renderElement(n, false))

		case doctree.KindDocument:
			out = append(out, renderBlocks(n.Children)...)

		default:
			if s := renderInlines([]*doctree.Node{n}); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func renderInlines(nodes []*doctree.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case doctree.KindText:
			b.WriteString(n.Literal)

		case doctree.KindBreak:
			b.WriteString("\\\n")

		case doctree.KindEmphasis:
			b.WriteString("*" + renderInlines(n.Children) + "*")

		case doctree.KindStrong:
			b.WriteString("**" + renderInlines(n.Children) + "**")

		case doctree.KindDelete:
			b.WriteString("~~" + renderInlines(n.Children) + "~~")

		case doctree.KindInlineCode:
			b.WriteString(codeSpan(n.Literal))

		case doctree.KindLink:
			text := renderInlines(n.Children)
			if text == n.URL && n.Title == "" {
				b.WriteString("<" + n.URL + ">")
				break
			}
			b.WriteString("[" + text + "](" + linkTarget(n) + ")")

		case doctree.KindImage:
			b.WriteString("![" + renderInlines(n.Children) + "](" + linkTarget(n) + ")")

		case doctree.KindHTML:
			b.WriteString(n.Literal)

		case doctree.KindInlineElement:
			if n.IsFragment() {
				b.WriteString(renderInlines(n.Children))
				break
			}
			b.WriteString(renderElement(n, true))

		case doctree.KindFlowElement, doctree.KindDocument:
			// Block content spliced into a phrasing position; keep it
			// readable rather than dropping it.
			if n.IsFragment() || n.Kind == doctree.KindDocument {
				b.WriteString(strings.Join(renderBlocks(n.Children), "\n\n"))
				break
			}
			b.WriteString(renderElement(n, true))

		case doctree.KindParagraph:
			b.WriteString(renderInlines(n.Children))

		case doctree.KindCodeBlock:
			b.WriteString("\n" + fencedBlock(n) + "\n")

		default:
			b.WriteString(n.TextContent())
		}
	}
	return b.String()
}

func linkTarget(n *doctree.Node) string {
	if n.Title != "" {
		return n.URL + " \"" + n.Title + "\""
	}
	return n.URL
}

// codeSpan wraps literal in enough backticks to survive backticks in the
// content itself.
func codeSpan(lit string) string {
	ticks := strings.Repeat("`", longestRun(lit, '`')+1)
	if strings.Contains(lit, "`") || strings.HasPrefix(lit, " ") || strings.HasSuffix(lit, " ") {
		return ticks + " " + lit + " " + ticks
	}
	return ticks + lit + ticks
}

// fencedBlock emits a fenced code block, growing the fence past any
// backtick run inside the literal so content survives verbatim.
func fencedBlock(n *doctree.Node) string {
	fenceLen := 3
	if run := longestRun(n.Literal, '`'); run >= fenceLen {
		fenceLen = run + 1
	}
	fence := strings.Repeat("`", fenceLen)

	head := fence + n.Info
	if n.Meta != "" {
		head += " " + n.Meta
	}
	body := n.Literal
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return head + "\n" + body + fence
}

func longestRun(s string, ch byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == ch {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

func renderElement(n *doctree.Node, inline bool) string {
	var b strings.Builder
	b.WriteString("<" + n.Name)
	for _, a := range n.Attrs {
		b.WriteString(" " + a.Name + "=\"" + html.EscapeString(a.Value) + "\"")
	}
	if len(n.Children) == 0 {
		b.WriteString(" />")
		return b.String()
	}
	b.WriteString(">")
	if inline {
		b.WriteString(renderInlines(n.Children))
	} else {
		b.WriteString("\n" + strings.Join(renderBlocks(n.Children), "\n\n") + "\n")
	}
	b.WriteString("</" + n.Name + ">")
	return b.String()
}

func quotePrefix(content string) string {
	lines := strings.Split(content, "\n")
	for i, ln := range lines {
		if ln == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + ln
		}
	}
	return strings.Join(lines, "\n")
}

func renderList(l *doctree.Node) string {
	var items []string
	num := l.Start
	if num == 0 {
		num = 1
	}
	for _, item := range l.Children {
		marker := "- "
		if l.Ordered {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		if item.Checked != nil {
			if *item.Checked {
				marker += "[x] "
			} else {
				marker += "[ ] "
			}
		}
		content := strings.Join(renderBlocks(item.Children), "\n\n")
		items = append(items, prefixItem(content, marker))
	}
	return strings.Join(items, "\n")
}

// prefixItem puts the list marker on the first line and indents
// continuation lines to the marker width.
func prefixItem(content, marker string) string {
	indent := strings.Repeat(" ", len(marker))
	lines := strings.Split(content, "\n")
	for i, ln := range lines {
		switch {
		case i == 0:
			lines[i] = marker + ln
		case ln == "":
			// blank continuation lines stay blank
		default:
			lines[i] = indent + ln
		}
	}
	return strings.Join(lines, "\n")
}

func renderTable(t *doctree.Node) string {
	var lines []string
	for i, row := range t.Children {
		var cells []string
		for _, cell := range row.Children {
			cells = append(cells, strings.ReplaceAll(renderInlines(cell.Children), "|", "\\|"))
		}
		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			lines = append(lines, alignRow(t.Align, len(cells)))
		}
	}
	return strings.Join(lines, "\n")
}

func alignRow(align []string, cols int) string {
	if len(align) > cols {
		cols = len(align)
	}
	parts := make([]string, cols)
	for i := range parts {
		a := ""
		if i < len(align) {
			a = align[i]
		}
		switch a {
		case "left":
			parts[i] = ":--"
		case "right":
			parts[i] = "--:"
		case "center":
			parts[i] = ":-:"
		default:
			parts[i] = "---"
		}
	}
	return "| " + strings.Join(parts, " | ") + " |"
}
