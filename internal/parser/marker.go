package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/docsplice/internal/doctree"
)

// errPlainHTML signals that a fragment is ordinary raw HTML rather than
// element syntax, and should be kept verbatim instead of becoming nodes.
var errPlainHTML = errors.New("not element syntax")

// voidElements never take a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// parseElements converts an HTML-ish fragment into element nodes. The
// tokenizer does the heavy lifting (quoting, entities, token boundaries);
// tag and attribute case is restored from the raw bytes afterwards, since
// authored element names are case-significant.
//
// Component tags (capitalized names) are parsed strictly: an unclosed or
// mismatched component is a hard error. Anything that is not balanced
// element syntax — stray closers, plain unbalanced HTML, doctypes — returns
// errPlainHTML so the caller keeps the fragment as a literal.
func parseElements(fragment string, inline bool, pos doctree.Position) ([]*doctree.Node, error) {
	kind := doctree.KindFlowElement
	if inline {
		kind = doctree.KindInlineElement
	}

	z := html.NewTokenizer(strings.NewReader(fragment))
	var out []*doctree.Node
	var stack []*doctree.Node

	appendNode := func(n *doctree.Node) {
		if len(stack) > 0 {
			stack[len(stack)-1].AppendChild(n)
		} else {
			out = append(out, n)
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return nil, errPlainHTML
			}
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if isComponentName(top.Name) {
					if inline {
						// Each inline raw HTML span is tokenized on its own,
						// so a paired tag never finds its closer here.
						return nil, fmt.Errorf("paired inline <%s> elements are not supported; use a self-closing tag or the block form", top.Name)
					}
					return nil, fmt.Errorf("unclosed <%s> element", top.Name)
				}
				return nil, errPlainHTML
			}
			if len(out) == 0 {
				return nil, errPlainHTML
			}
			return out, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			tok := z.Token()
			name, attrs := restoreCase(raw, tok)
			el := &doctree.Node{Kind: kind, Name: name, Attrs: attrs, Pos: pos}
			appendNode(el)
			if tt == html.StartTagToken && !voidElements[tok.Data] {
				stack = append(stack, el)
			}

		case html.EndTagToken:
			raw := string(z.Raw())
			tok := z.Token()
			name, _ := restoreCase(raw, tok)
			if len(stack) == 0 {
				if isComponentName(name) {
					return nil, fmt.Errorf("unexpected closing </%s>", name)
				}
				return nil, errPlainHTML
			}
			top := stack[len(stack)-1]
			if top.Name != name {
				if isComponentName(name) || isComponentName(top.Name) {
					return nil, fmt.Errorf("mismatched </%s>, expected </%s>", name, top.Name)
				}
				return nil, errPlainHTML
			}
			stack = stack[:len(stack)-1]

		case html.TextToken:
			text := z.Token().Data
			if strings.TrimSpace(text) == "" {
				continue
			}
			appendNode(&doctree.Node{Kind: doctree.KindText, Literal: text})

		case html.CommentToken:
			// Comments survive verbatim so a marker sharing a block with
			// one is still found.
			appendNode(&doctree.Node{Kind: doctree.KindHTML, Literal: string(z.Raw())})

		case html.DoctypeToken:
			return nil, errPlainHTML
		}
	}
}

// restoreCase rebuilds the authored tag and attribute names from the raw
// token bytes. The tokenizer lowercases both per the HTML spec, but element
// matching is case-sensitive.
func restoreCase(raw string, tok html.Token) (string, []doctree.Attr) {
	name := tok.Data
	rawName, rawKeys := scanRawTag(raw)
	if rawName != "" && strings.EqualFold(rawName, name) {
		name = rawName
	}
	var attrs []doctree.Attr
	for i, a := range tok.Attr {
		key := a.Key
		if i < len(rawKeys) && strings.EqualFold(rawKeys[i], key) {
			key = rawKeys[i]
		}
		attrs = append(attrs, doctree.Attr{Name: key, Value: a.Val})
	}
	return name, attrs
}

// scanRawTag extracts the tag name and ordered attribute names from raw tag
// text, preserving case. Values are skipped; the tokenizer already decoded
// them.
func scanRawTag(raw string) (name string, keys []string) {
	s := strings.TrimPrefix(raw, "<")
	s = strings.TrimPrefix(s, "/")
	i := 0
	for i < len(s) && !isTagDelim(s[i]) {
		i++
	}
	name = s[:i]
	s = s[i:]
	for {
		s = strings.TrimLeft(s, " \t\r\n")
		if s == "" || s[0] == '>' || s[0] == '/' {
			return name, keys
		}
		j := 0
		for j < len(s) && !isTagDelim(s[j]) {
			j++
		}
		keys = append(keys, s[:j])
		s = s[j:]
		s = strings.TrimLeft(s, " \t\r\n")
		if len(s) > 0 && s[0] == '=' {
			s = strings.TrimLeft(s[1:], " \t\r\n")
			if len(s) > 0 && (s[0] == '"' || s[0] == '\'') {
				end := strings.IndexByte(s[1:], s[0])
				if end < 0 {
					return name, keys
				}
				s = s[end+2:]
			} else {
				k := 0
				for k < len(s) && !isTagDelim(s[k]) {
					k++
				}
				s = s[k:]
			}
		}
	}
}

func isTagDelim(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '/', '>', '=':
		return true
	}
	return false
}

// isComponentName reports whether a tag name follows the capitalized
// component convention, which opts it into strict parsing.
func isComponentName(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}
