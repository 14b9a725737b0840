// Package tabular turns raw report bytes into an in-memory grid of string
// cells. It treats delimited-text parsing as a primitive: callers choose the
// header row; all schema inference happens downstream.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrMalformed indicates the byte grid itself could not be parsed
// (encoding errors, structurally unusable content).
var ErrMalformed = errors.New("tabular: malformed table")

// Grid is a parsed table: a header row plus the data rows below it.
// Rows are ragged; callers must bounds-check column access.
type Grid struct {
	Header []string
	Rows   [][]string
	// Synthetic is set when the header was generated positionally rather
	// than read from the file.
	Synthetic bool
}

// ParseRows decodes the full byte content into raw rows without choosing a
// header. CSV quoting is relaxed since published reports frequently carry
// stray quotes and uneven field counts.
func ParseRows(content []byte) ([][]string, error) {
	if looksLikeXLSX(content) {
		return parseXLSXRows(content)
	}
	r := csv.NewReader(bytes.NewReader(stripBOM(content)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = false
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrMalformed)
	}
	return rows, nil
}

// At returns rows with a chosen 0-based header row. Rows above the header
// are preamble and discarded.
func At(rows [][]string, headerRow int) (*Grid, error) {
	if headerRow < 0 || headerRow >= len(rows) {
		return nil, fmt.Errorf("%w: header row %d out of range", ErrMalformed, headerRow)
	}
	header := make([]string, len(rows[headerRow]))
	for i, h := range rows[headerRow] {
		header[i] = CleanLabel(h)
	}
	return &Grid{Header: header, Rows: rows[headerRow+1:]}, nil
}

// AtSynthetic builds a grid whose data begins at firstDataRow with a
// positionally generated header: column 0 carries the date code, column 1
// the region name, and the remainder are unlabeled metric slots.
func AtSynthetic(rows [][]string, firstDataRow int) (*Grid, error) {
	if firstDataRow < 0 || firstDataRow >= len(rows) {
		return nil, fmt.Errorf("%w: data row %d out of range", ErrMalformed, firstDataRow)
	}
	width := 0
	for _, row := range rows[firstDataRow:] {
		if len(row) > width {
			width = len(row)
		}
	}
	header := make([]string, width)
	if width > 0 {
		header[0] = "date"
	}
	if width > 1 {
		header[1] = "county"
	}
	return &Grid{Header: header, Rows: rows[firstDataRow:], Synthetic: true}, nil
}

// Cell returns the trimmed cell at (row, col), or "" when the ragged row is
// too short.
func (g *Grid) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// CleanLabel normalizes a raw column label: BOM and surrounding whitespace
// stripped, embedded line breaks collapsed to single spaces.
func CleanLabel(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}

// looksLikeXLSX sniffs the ZIP local-file-header magic that opens every
// xlsx container.
func looksLikeXLSX(b []byte) bool {
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 0x03 && b[3] == 0x04
}

func parseXLSXRows(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrMalformed)
	}
	iter, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer iter.Close()

	var rows [][]string
	for iter.Next() {
		cols, cerr := iter.Columns()
		if cerr != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, cerr)
		}
		rows = append(rows, cols)
	}
	if err := iter.Error(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrMalformed)
	}
	return rows, nil
}
