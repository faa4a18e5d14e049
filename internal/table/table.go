// Package table holds delimited sensor exports in memory. Cells keep the
// text they were read with so that a table written back out is
// byte-identical to its input apart from the columns that were changed.
package table

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNoHeader is returned when a file has no header row.
var ErrNoHeader = errors.New("table: missing header row")

// Kind classifies a single cell.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindText
)

// Value is one cell.
type Value struct {
	Kind Kind
	Num  float64 // valid when Kind == KindNumber
	Raw  string  // text as read; empty for synthesised missing cells
}

// Missing is a cell with no value.
var Missing = Value{Kind: KindMissing}

// IsMissing reports whether the cell holds no value.
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// missingMarkers are spellings loaders conventionally treat as NA.
var missingMarkers = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"-NaN": true,
	"-nan": true,
	"null": true,
	"NULL": true,
	"None": true,
	"#N/A": true,
	"<NA>": true,
	"#NA":  true,
}

func isMissingText(s string) bool {
	return missingMarkers[strings.TrimSpace(s)]
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Table is an ordered set of rows sharing one header.
type Table struct {
	Columns []string
	Rows    [][]Value

	numeric []bool
}

// New builds a table from a header and rows, inferring column kinds.
// Rows shorter than the header are padded with missing cells.
func New(columns []string, rows [][]Value) *Table {
	t := &Table{Columns: columns, Rows: rows}
	for i, r := range t.Rows {
		if len(r) < len(columns) {
			padded := make([]Value, len(columns))
			copy(padded, r)
			for j := len(r); j < len(columns); j++ {
				padded[j] = Missing
			}
			t.Rows[i] = padded
		}
	}
	t.inferKinds()
	return t
}

// inferKinds marks a column numeric when every non-missing cell parsed as
// a number. A column of only missing cells counts as numeric.
func (t *Table) inferKinds() {
	t.numeric = make([]bool, len(t.Columns))
	for c := range t.Columns {
		numeric := true
		for _, r := range t.Rows {
			if r[c].Kind == KindText {
				numeric = false
				break
			}
		}
		t.numeric[c] = numeric
	}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// IsNumeric reports whether the named column holds only numbers and
// missing cells. Unknown columns are not numeric.
func (t *Table) IsNumeric(name string) bool {
	i := t.Index(name)
	if i < 0 {
		return false
	}
	return t.numeric[i]
}

// Float returns the named column as float64 values with ok[i] false where
// the cell is missing or not a number.
func (t *Table) Float(name string) (vals []float64, ok []bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, nil
	}
	vals = make([]float64, len(t.Rows))
	ok = make([]bool, len(t.Rows))
	for r, row := range t.Rows {
		if row[i].Kind == KindNumber {
			vals[r] = row[i].Num
			ok[r] = true
		}
	}
	return vals, ok
}

// dedupeColumns renames repeated header names to name.1, name.2, ...
func dedupeColumns(cols []string) []string {
	out := make([]string, len(cols))
	seen := make(map[string]int, len(cols))
	used := make(map[string]bool, len(cols))
	for _, c := range cols {
		used[c] = true
	}
	for i, c := range cols {
		n, dup := seen[c]
		seen[c] = n + 1
		if !dup {
			out[i] = c
			continue
		}
		for ; ; n++ {
			candidate := c + "." + strconv.Itoa(n)
			if !used[candidate] {
				out[i] = candidate
				used[candidate] = true
				seen[c] = n + 1
				break
			}
		}
	}
	return out
}
