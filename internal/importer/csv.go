package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// fromCSV renders CSV records as a markdown pipe table. The first
// record is the header row; ragged rows are padded or trimmed to the
// header width.
func fromCSV(data []byte) ([]byte, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse csv: empty file")
	}

	header := records[0]
	var b strings.Builder
	b.WriteString(tableRow(header))
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString(tableRow(sep))
	for _, row := range records[1:] {
		cells := make([]string, len(header))
		for i := range cells {
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		b.WriteString(tableRow(cells))
	}
	return []byte(b.String()), nil
}

func tableRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", "\\|")
		escaped[i] = strings.ReplaceAll(c, "\n", " ")
	}
	return "| " + strings.Join(escaped, " | ") + " |\n"
}
