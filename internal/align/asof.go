// Package align joins a primary and a secondary sensor table on their
// frame counters using a forward as-of match.
package align

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/mocap-align/internal/table"
)

// Column suffixes applied to names present in both sources.
const (
	PrimarySuffix   = "_raven"
	SecondarySuffix = "_trakstar"
)

// ErrNonNumericKey is returned when a join key cell holds text.
var ErrNonNumericKey = errors.New("align: non-numeric join key")

// Stats summarises how well the secondary stream covered the primary.
type Stats struct {
	Rows    int // aligned rows, one per primary row with a time value
	Matched int // rows that found a secondary match

	// MeanLag and MaxLag are the secondary-minus-primary key distance over
	// matched rows, zero when nothing matched.
	MeanLag float64
	MaxLag  float64
}

// Result is an aligned table plus its match statistics.
type Result struct {
	Table *table.Table
	Stats Stats
}

type keyed struct {
	key float64
	row []table.Value
}

// sortedByKey drops rows whose key is missing or NaN and stable-sorts the
// rest.
func sortedByKey(t *table.Table, col int, name string) ([]keyed, error) {
	out := make([]keyed, 0, len(t.Rows))
	for i, r := range t.Rows {
		v := r[col]
		switch v.Kind {
		case table.KindMissing:
			continue
		case table.KindText:
			return nil, fmt.Errorf("%w: column %q row %d value %q", ErrNonNumericKey, name, i+1, v.Raw)
		}
		if math.IsNaN(v.Num) {
			continue
		}
		out = append(out, keyed{key: v.Num, row: r})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].key < out[b].key })
	return out, nil
}

// Asof pairs every primary row with the secondary row holding the smallest
// key greater than or equal to the primary key. Primary rows past the last
// secondary key keep missing secondary cells.
//
// Output columns are the primary columns followed by the secondary ones.
// When both keys share a name only the primary key column is kept; any
// other shared name is suffixed with PrimarySuffix/SecondarySuffix.
func Asof(primary, secondary *table.Table, primaryKey, secondaryKey string) (*Result, error) {
	pk := primary.Index(primaryKey)
	if pk < 0 {
		return nil, fmt.Errorf("primary key column %q not found", primaryKey)
	}
	sk := secondary.Index(secondaryKey)
	if sk < 0 {
		return nil, fmt.Errorf("secondary key column %q not found", secondaryKey)
	}

	left, err := sortedByKey(primary, pk, primaryKey)
	if err != nil {
		return nil, err
	}
	right, err := sortedByKey(secondary, sk, secondaryKey)
	if err != nil {
		return nil, err
	}

	cols, rightCols := mergedColumns(primary.Columns, secondary.Columns, primaryKey, secondaryKey)

	rows := make([][]table.Value, 0, len(left))
	lags := make([]float64, 0, len(left))
	j := 0
	for _, l := range left {
		for j < len(right) && right[j].key < l.key {
			j++
		}
		row := make([]table.Value, 0, len(cols))
		row = append(row, l.row...)
		if j < len(right) {
			for _, c := range rightCols {
				row = append(row, right[j].row[c])
			}
			lags = append(lags, right[j].key-l.key)
		} else {
			for range rightCols {
				row = append(row, table.Missing)
			}
		}
		rows = append(rows, row)
	}

	stats := Stats{Rows: len(rows), Matched: len(lags)}
	if len(lags) > 0 {
		stats.MeanLag = stat.Mean(lags, nil)
		stats.MaxLag = floats.Max(lags)
	}

	return &Result{Table: table.New(cols, rows), Stats: stats}, nil
}

// mergedColumns builds the output header and the secondary column indices
// that follow the primary columns.
func mergedColumns(left, right []string, leftKey, rightKey string) ([]string, []int) {
	sharedKey := leftKey == rightKey

	inRight := make(map[string]bool, len(right))
	for _, c := range right {
		inRight[c] = true
	}
	inLeft := make(map[string]bool, len(left))
	for _, c := range left {
		inLeft[c] = true
	}
	collides := func(name string) bool {
		return !(sharedKey && name == leftKey)
	}

	cols := make([]string, 0, len(left)+len(right))
	for _, c := range left {
		if inRight[c] && collides(c) {
			c += PrimarySuffix
		}
		cols = append(cols, c)
	}

	rightIdx := make([]int, 0, len(right))
	for i, c := range right {
		if sharedKey && c == rightKey {
			continue
		}
		if inLeft[c] {
			c += SecondarySuffix
		}
		cols = append(cols, c)
		rightIdx = append(rightIdx, i)
	}
	return cols, rightIdx
}
