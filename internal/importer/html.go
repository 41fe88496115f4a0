package importer

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// fromHTML converts an HTML document to markdown. For remote sources
// the URL is passed as the domain so relative links resolve against
// the document origin.
func (im *Importer) fromHTML(data []byte, source string) ([]byte, error) {
	var (
		md  string
		err error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		md, err = im.conv.ConvertString(string(data), converter.WithDomain(source))
	} else {
		md, err = im.conv.ConvertString(string(data))
	}
	if err != nil {
		return nil, fmt.Errorf("convert html: %w", err)
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return nil, fmt.Errorf("convert html: no content")
	}
	return []byte(md + "\n"), nil
}
