package importer

import (
	"bufio"
	"bytes"
	"strings"
)

// fromText normalizes plain text into blank-line separated markdown
// paragraphs.
func fromText(data []byte) ([]byte, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return []byte(strings.Join(paragraphs, "\n\n") + "\n"), nil
}
