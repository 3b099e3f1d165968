// Package export renders case material into the flat artifacts handed to
// external collaborators: an always-quoted CSV table and a labeled key/value
// report for the document renderer.
package export

import "strings"

// Record is one CSV row as ordered field/value pairs. The header of a table
// comes from the field names of its first record.
type Record struct {
	Fields []string `json:"fields"`
	Values []string `json:"values"`
}

// WriteCSV renders records into the exchange format: every value is wrapped
// in double quotes with embedded quotes doubled, including the header. The
// quoting is unconditional, which is why encoding/csv (quote-on-demand) is
// not used here.
func WriteCSV(records []Record) []byte {
	if len(records) == 0 {
		return nil
	}

	var b strings.Builder
	writeRow(&b, records[0].Fields)
	for _, rec := range records {
		writeRow(&b, rec.Values)
	}
	return []byte(b.String())
}

func writeRow(b *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
