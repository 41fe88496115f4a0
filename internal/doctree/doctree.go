package doctree

// Kind identifies the structural type of a node.
type Kind string

const (
	KindDocument      Kind = "document"
	KindHeading       Kind = "heading"
	KindParagraph     Kind = "paragraph"
	KindText          Kind = "text"
	KindEmphasis      Kind = "emphasis"
	KindStrong        Kind = "strong"
	KindDelete        Kind = "delete"
	KindInlineCode    Kind = "inlineCode"
	KindLink          Kind = "link"
	KindImage         Kind = "image"
	KindCodeBlock     Kind = "code"
	KindBlockquote    Kind = "blockquote"
	KindList          Kind = "list"
	KindListItem      Kind = "listItem"
	KindThematicBreak Kind = "thematicBreak"
	KindHTML          Kind = "html"
	KindTable         Kind = "table"
	KindTableRow      Kind = "tableRow"
	KindTableCell     Kind = "tableCell"
	KindFlowElement   Kind = "flowElement"
	KindInlineElement Kind = "inlineElement"
	KindBreak         Kind = "break"
)

// Attr is a single name/value attribute on an element node. Order is significant.
type Attr struct {
	Name  string
	Value string
}

// Position is a 1-based source location. A zero Line means unknown.
type Position struct {
	Line   int
	Column int
}

// Node is one node of a parsed document tree. Child order is significant and
// preserved; a transform that replaces a node overwrites its fields in place
// rather than re-linking the parent's child list.
type Node struct {
	Kind Kind

	// Name is the element name for flow/inline element nodes. An element
	// with an empty Name is a fragment: a transparent container that
	// renders as its children only.
	Name  string
	Attrs []Attr

	// Literal is the text payload of leaf nodes (text, inlineCode, code, html).
	Literal string

	Info string // code: language tag
	Meta string // code: free-form string after the language tag

	Depth   int      // heading: level 1-6
	Ordered bool     // list: ordered vs bullet
	Start   int      // list: first index of an ordered list
	Checked *bool    // listItem: task checkbox state, nil when not a task
	URL     string   // link, image: destination
	Title   string   // link, image: title
	Header  bool     // tableRow: header row
	Align   []string // table: column alignment ("", "left", "center", "right")

	Pos      Position
	Children []*Node
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// IsElement reports whether the node is a flow or inline element.
func (n *Node) IsElement() bool {
	return n.Kind == KindFlowElement || n.Kind == KindInlineElement
}

// IsFragment reports whether the node is a nameless transparent container.
func (n *Node) IsFragment() bool {
	return n.IsElement() && n.Name == ""
}

// AppendChild adds c to the end of n's child list.
func (n *Node) AppendChild(c *Node) {
	n.Children = append(n.Children, c)
}

// ReplaceWith overwrites n in place with the given replacement nodes. A
// single replacement takes over n's fields wholesale, so n keeps its
// identity and position in its parent's child list. Zero or several
// replacements turn n into a fragment holding them in order.
func (n *Node) ReplaceWith(repl ...*Node) {
	if len(repl) == 1 {
		*n = *repl[0]
		return
	}
	*n = Node{Kind: KindFlowElement, Children: repl}
}

// Fragment returns a transparent container holding children in order.
func Fragment(children ...*Node) *Node {
	return &Node{Kind: KindFlowElement, Children: children}
}

// Walk visits n and its descendants in pre-order, depth-first. If fn returns
// false the walk does not descend into that node's children. The traversal
// reads the tree as it is at call time and holds no state between calls.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// TextContent concatenates the literal text of n and all descendants.
func (n *Node) TextContent() string {
	var out []byte
	Walk(n, func(c *Node) bool {
		if c.Literal != "" {
			out = append(out, c.Literal...)
		}
		return true
	})
	return string(out)
}
