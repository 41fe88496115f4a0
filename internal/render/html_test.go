package render

import (
	"strings"
	"testing"

	"github.com/dgallion1/docsplice/internal/parser"
)

func TestHTMLRendersMarkdown(t *testing.T) {
	doc := parse(t, "# Title\n\nSome *text*.\n")

	out, err := HTML(doc)
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "<h1") || !strings.Contains(s, "Title") {
		t.Errorf("missing heading in output: %s", s)
	}
	if !strings.Contains(s, "<em>text</em>") {
		t.Errorf("missing emphasis in output: %s", s)
	}
}

func TestHTMLStripsScript(t *testing.T) {
	src := "Hello <b>bold</b> <script>alert(1)</script>\n"
	doc, err := parser.New().Parse([]byte(src), parser.Minimal)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	out, err := HTML(doc)
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "<script") {
		t.Errorf("script must be sanitized away: %s", s)
	}
	if !strings.Contains(s, "<b>bold</b>") {
		t.Errorf("benign formatting should survive: %s", s)
	}
}
