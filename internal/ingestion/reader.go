package ingestion

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	apperrors "chemviz/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a parsed CSV upload: trimmed header cells and raw data rows aligned to them
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the raw value at (row, col), or "" when the row is shorter than the header
func (t *Table) Cell(row, col int) string {
	if col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// RawRow returns row i as a header -> raw value mapping
func (t *Table) RawRow(i int) map[string]string {
	raw := make(map[string]string, len(t.Headers))
	for col, header := range t.Headers {
		raw[header] = t.Cell(i, col)
	}
	return raw
}

// ReadCSV parses comma-delimited UTF-8 text into a Table
func ReadCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperrors.InvalidFormat("No columns to parse from file.", nil)
	}
	if !utf8.Valid(data) {
		return nil, apperrors.InvalidFormat("File is not valid UTF-8 text.", nil)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	headerRow, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.InvalidFormat("No columns to parse from file.", nil)
		}
		return nil, apperrors.InvalidFormat("Failed to read CSV header.", err)
	}

	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	table := &Table{Headers: headers}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.InvalidFormat("Failed to parse CSV data.", err)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
