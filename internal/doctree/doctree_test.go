package doctree

import (
	"reflect"
	"testing"
)

func TestWalk_PreOrder(t *testing.T) {
	tree := &Node{Kind: KindDocument, Children: []*Node{
		{Kind: KindHeading, Depth: 1, Children: []*Node{
			{Kind: KindText, Literal: "a"},
		}},
		{Kind: KindParagraph, Children: []*Node{
			{Kind: KindText, Literal: "b"},
			{Kind: KindEmphasis, Children: []*Node{
				{Kind: KindText, Literal: "c"},
			}},
		}},
	}}

	var got []Kind
	Walk(tree, func(n *Node) bool {
		got = append(got, n.Kind)
		return true
	})

	want := []Kind{
		KindDocument,
		KindHeading, KindText,
		KindParagraph, KindText, KindEmphasis, KindText,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("walk order: got %v, want %v", got, want)
	}
}

func TestWalk_Prune(t *testing.T) {
	tree := &Node{Kind: KindDocument, Children: []*Node{
		{Kind: KindBlockquote, Children: []*Node{
			{Kind: KindText, Literal: "hidden"},
		}},
		{Kind: KindParagraph},
	}}

	var got []Kind
	Walk(tree, func(n *Node) bool {
		got = append(got, n.Kind)
		return n.Kind != KindBlockquote
	})

	want := []Kind{KindDocument, KindBlockquote, KindParagraph}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pruned walk: got %v, want %v", got, want)
	}
}

func TestReplaceWith_SingleNodeKeepsIdentity(t *testing.T) {
	marker := &Node{
		Kind:  KindFlowElement,
		Name:  "Snippet",
		Attrs: []Attr{{Name: "file", Value: "a.md"}},
	}
	parent := &Node{Kind: KindDocument, Children: []*Node{marker}}

	marker.ReplaceWith(&Node{Kind: KindParagraph, Children: []*Node{
		{Kind: KindText, Literal: "included"},
	}})

	if parent.Children[0] != marker {
		t.Fatal("node identity lost in parent's child list")
	}
	if marker.Kind != KindParagraph {
		t.Errorf("kind: got %q, want %q", marker.Kind, KindParagraph)
	}
	if marker.Name != "" || len(marker.Attrs) != 0 {
		t.Errorf("marker fields not fully overwritten: name=%q attrs=%v", marker.Name, marker.Attrs)
	}
	if marker.TextContent() != "included" {
		t.Errorf("text: got %q", marker.TextContent())
	}
}

func TestReplaceWith_MultipleBecomesFragment(t *testing.T) {
	marker := &Node{Kind: KindFlowElement, Name: "Snippet"}
	a := &Node{Kind: KindHeading, Depth: 1}
	b := &Node{Kind: KindParagraph}

	marker.ReplaceWith(a, b)

	if !marker.IsFragment() {
		t.Fatalf("expected fragment, got kind=%q name=%q", marker.Kind, marker.Name)
	}
	if len(marker.Attrs) != 0 {
		t.Errorf("fragment must carry no attributes, got %v", marker.Attrs)
	}
	if len(marker.Children) != 2 || marker.Children[0] != a || marker.Children[1] != b {
		t.Errorf("fragment children out of order: %v", marker.Children)
	}
}

func TestReplaceWith_EmptyBecomesEmptyFragment(t *testing.T) {
	marker := &Node{Kind: KindInlineElement, Name: "Snippet"}
	marker.ReplaceWith()

	if !marker.IsFragment() {
		t.Fatalf("expected fragment, got kind=%q name=%q", marker.Kind, marker.Name)
	}
	if len(marker.Children) != 0 {
		t.Errorf("expected no children, got %d", len(marker.Children))
	}
}

func TestAttrLookup(t *testing.T) {
	n := &Node{Kind: KindFlowElement, Name: "Snippet", Attrs: []Attr{
		{Name: "file", Value: "x.md"},
		{Name: "lang", Value: "go"},
	}}

	if v, ok := n.Attr("file"); !ok || v != "x.md" {
		t.Errorf(`Attr("file") = %q, %v`, v, ok)
	}
	if v, ok := n.Attr("lang"); !ok || v != "go" {
		t.Errorf(`Attr("lang") = %q, %v`, v, ok)
	}
	if _, ok := n.Attr("meta"); ok {
		t.Error(`Attr("meta") should be absent`)
	}
}

func TestIsFragment(t *testing.T) {
	tests := []struct {
		kind Kind
		name string
		want bool
	}{
		{KindFlowElement, "", true},
		{KindInlineElement, "", true},
		{KindFlowElement, "Snippet", false},
		{KindParagraph, "", false},
	}
	for _, tt := range tests {
		n := &Node{Kind: tt.kind, Name: tt.name}
		if got := n.IsFragment(); got != tt.want {
			t.Errorf("IsFragment kind=%q name=%q: got %v, want %v", tt.kind, tt.name, got, tt.want)
		}
	}
}
