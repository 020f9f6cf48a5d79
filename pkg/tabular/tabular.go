// Package tabular reads uploaded roster sheets (CSV or XLSX) into header-keyed rows.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Format identifies the encoding of an uploaded sheet.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	// ErrLegacyWorkbook is returned for binary .xls workbooks.
	ErrLegacyWorkbook = errors.New("legacy .xls workbooks are not supported, save as .xlsx or .csv")
	// ErrUnknownFormat is returned when neither name, type nor content identify the sheet.
	ErrUnknownFormat = errors.New("unrecognised file format, expected .csv or .xlsx")
	// ErrEmpty is returned when the sheet has no header row.
	ErrEmpty = errors.New("file contains no header row")
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	utf8BOM  = "\ufeff"
)

// Detect resolves the sheet format by file extension, then declared content
// type, then by sniffing the leading bytes.
func Detect(filename, contentType string, head []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return "", ErrLegacyWorkbook
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "text/csv", "application/csv", "text/plain":
			return FormatCSV, nil
		case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
			return FormatXLSX, nil
		}
	}

	switch {
	case bytes.HasPrefix(head, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(head, oleMagic):
		return "", ErrLegacyWorkbook
	case len(head) > 0 && utf8.Valid(head):
		return FormatCSV, nil
	}
	return "", ErrUnknownFormat
}

// Row is one data line keyed by cleaned header label.
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the trimmed value under label, or "" when the column is absent.
func (r Row) Get(label string) string {
	return r.Values[label]
}

// Table holds the cleaned header labels and the data rows below them.
type Table struct {
	Header []string
	Rows   []Row
}

// Has reports whether a header label is present.
func (t *Table) Has(label string) bool {
	for _, h := range t.Header {
		if h == label {
			return true
		}
	}
	return false
}

// Missing lists the labels absent from the header, in the order given.
func (t *Table) Missing(labels ...string) []string {
	var missing []string
	for _, label := range labels {
		if !t.Has(label) {
			missing = append(missing, label)
		}
	}
	return missing
}

// Read decodes data in the given format. Only the first worksheet of an XLSX
// workbook is read.
func Read(format Format, data []byte) (*Table, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSV(data)
	case FormatXLSX:
		records, err = readXLSX(data)
	default:
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, err
	}
	return build(records)
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close() //nolint:errcheck

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func build(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	header := make([]string, len(records[0]))
	for i, label := range records[0] {
		if i == 0 {
			label = strings.TrimPrefix(label, utf8BOM)
		}
		header[i] = strings.TrimSpace(label)
	}

	table := &Table{Header: header}
	for i, record := range records[1:] {
		values := make(map[string]string, len(header))
		blank := true
		for col, label := range header {
			if label == "" {
				continue
			}
			if _, seen := values[label]; seen {
				continue
			}
			value := ""
			if col < len(record) {
				value = strings.TrimSpace(record[col])
			}
			if value != "" {
				blank = false
			}
			values[label] = value
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, Row{Line: i + 2, Values: values})
	}
	return table, nil
}
