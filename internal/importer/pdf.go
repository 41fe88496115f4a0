package importer

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// fromPDF extracts page text from a PDF and renders one markdown
// section per page.
func (im *Importer) fromPDF(data []byte) ([]byte, error) {
	text, err := pdfText(data)
	if err != nil && im.PdftotextFallback {
		text, err = pdftotext(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var blocks []string
	for i, page := range strings.Split(text, "\f") {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("## Page %d", i+1), page)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("extract pdf text: no text content")
	}
	return []byte(strings.Join(blocks, "\n\n") + "\n"), nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\f")
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

// pdftotext shells out to the poppler tool for PDFs the Go library
// cannot read. It needs the document on disk.
func pdftotext(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "docsplice-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
