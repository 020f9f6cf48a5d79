package export

import (
	"bytes"
	"strings"
)

const utf8BOM = "\ufeff"

// CSVExporter renders datasets as spreadsheet-friendly CSV: a UTF-8 byte order
// mark, every field quoted with embedded quotes doubled, CRLF line endings.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// ContentType of the rendered document.
func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("csv"); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	buf.WriteString(utf8BOM)
	writeQuoted(buf, data.Headers)
	for _, record := range data.Records() {
		writeQuoted(buf, record)
	}
	return buf.Bytes(), nil
}

// encoding/csv only quotes fields that need it, so the writer is hand rolled.
func writeQuoted(buf *bytes.Buffer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}
