// Package tabular reads small delimited spreadsheets exported by office tools.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrNoData is returned when the input has no header or no data line.
var ErrNoData = errors.New("no data rows")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a parsed sheet: one header line followed by data rows.
type Table struct {
	Header []string
	Rows   []Row

	exact map[string]int
	fold  map[string]int
}

// Row is one non-blank data line. Line is 1-based and counts the header.
type Row struct {
	Line  int
	cells []string
	table *Table
}

// Parse decodes data (UTF-8, falling back to Windows-1252), picks ';' when the
// header line contains one and ',' otherwise, and skips blank lines.
func Parse(data []byte) (*Table, error) {
	text := decode(data)
	if strings.TrimSpace(string(text)) == "" {
		return nil, ErrNoData
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	table := &Table{exact: map[string]int{}, fold: map[string]int{}}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if blank(record) {
			continue
		}
		if table.Header == nil {
			table.setHeader(record)
			continue
		}
		line, _ := reader.FieldPos(0)
		table.Rows = append(table.Rows, Row{Line: line, cells: trimAll(record), table: table})
	}

	if table.Header == nil || len(table.Rows) == 0 {
		return nil, ErrNoData
	}
	return table, nil
}

func (t *Table) setHeader(record []string) {
	t.Header = trimAll(record)
	for i, name := range t.Header {
		if _, ok := t.exact[name]; !ok {
			t.exact[name] = i
		}
		key := strings.ToLower(name)
		if _, ok := t.fold[key]; !ok {
			t.fold[key] = i
		}
	}
}

// Column resolves names against the header. Every name is tried for an exact
// match before any is tried case-insensitively. It returns -1 when none match.
func (t *Table) Column(names ...string) int {
	for _, name := range names {
		if idx, ok := t.exact[name]; ok {
			return idx
		}
	}
	for _, name := range names {
		if idx, ok := t.fold[strings.ToLower(name)]; ok {
			return idx
		}
	}
	return -1
}

// Has reports whether any of names resolves to a column.
func (t *Table) Has(names ...string) bool {
	return t.Column(names...) >= 0
}

// Get returns the trimmed cell for the first matching column, or "".
func (r Row) Get(names ...string) string {
	idx := r.table.Column(names...)
	if idx < 0 || idx >= len(r.cells) {
		return ""
	}
	return r.cells[idx]
}

func decode(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}

func detectDelimiter(text []byte) rune {
	for _, line := range bytes.Split(text, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if bytes.ContainsRune(line, ';') {
			return ';'
		}
		return ','
	}
	return ','
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimAll(record []string) []string {
	out := make([]string, len(record))
	for i, cell := range record {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}
