package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/mocap-align/internal/fsutil"
)

// ReadCSV parses a delimited table with a header row. Short rows are
// padded with missing cells; rows longer than the header are an error.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := dedupeColumns(header)

	var rows [][]Value
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++
		if len(rec) > len(cols) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", line, len(rec), len(cols))
		}
		row := make([]Value, len(rec))
		for i, field := range rec {
			row[i] = parseCell(field)
		}
		rows = append(rows, row)
	}

	return New(cols, rows), nil
}

// parseCell classifies one field. Any NaN spelling ParseFloat accepts
// (NAN, Nan, ...) is missing, not a number.
func parseCell(field string) Value {
	if isMissingText(field) {
		return Value{Kind: KindMissing, Raw: field}
	}
	if f, ok := parseNumber(field); ok {
		if math.IsNaN(f) {
			return Value{Kind: KindMissing, Raw: field}
		}
		return Value{Kind: KindNumber, Num: f, Raw: field}
	}
	return Value{Kind: KindText, Raw: field}
}

// Load reads the CSV file at path.
func Load(fsys fsutil.FileSystem, path string) (*Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// WriteCSV writes the header and rows. Missing cells are written empty,
// all other cells verbatim.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range rec {
			if i >= len(row) || row[i].Kind == KindMissing {
				rec[i] = ""
				continue
			}
			rec[i] = row[i].Raw
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes the table to path, replacing any existing file.
func (t *Table) Save(fsys fsutil.FileSystem, path string) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
