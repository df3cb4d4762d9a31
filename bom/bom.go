// Package bom reads uploaded bill-of-materials files and writes the
// spreadsheet export. Uploads are context only - the part names feed the
// model prompt and nothing else, so parsing is deliberately forgiving about
// everything except outright unreadable files.
package bom

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/voltlab/circuitforge/circuit"
)

// MIMEXLSX is the content type served with the spreadsheet export.
const MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sheetName is the single sheet written to exported workbooks.
const sheetName = "BOM"

// ParseError reports a malformed or unreadable uploaded file. Callers treat
// the upload as absent rather than aborting the session.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error reading BOM %q: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Upload is a parsed BOM file: a header row plus data rows.
type Upload struct {
	Header []string
	Rows   [][]string
}

// Names returns the component name column: the column literally named
// "Name" when one exists, otherwise the first column.
func (u *Upload) Names() []string {
	col := 0
	for i, h := range u.Header {
		if h == "Name" {
			col = i
			break
		}
	}
	var names []string
	for _, row := range u.Rows {
		if col < len(row) {
			names = append(names, row[col])
		}
	}
	return names
}

// Parse reads a CSV or XLSX upload. The filename selects the decoder; an
// unreadable file yields a *ParseError.
func Parse(filename string, r io.Reader) (*Upload, error) {
	var rows [][]string
	var err error
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		rows, err = parseCSV(r)
	} else {
		rows, err = parseXLSX(r)
	}
	if err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}
	if len(rows) == 0 {
		return &Upload{}, nil
	}
	return &Upload{Header: rows[0], Rows: rows[1:]}, nil
}

func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func parseXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(f.GetSheetName(0))
}

// ExportXLSX writes the component list as a single sheet workbook with a
// "type, value" header row, one row per component.
func ExportXLSX(components []circuit.Component) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &[]any{"type", "value"}); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, comp := range components {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetName, cell, &[]any{comp.Kind, comp.Value}); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
