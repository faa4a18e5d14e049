// Package chart renders diagnostic plots of aligned and raw trial tables
// with gonum/plot, plus an optional interactive overlay page.
package chart

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/mocap-align/internal/fsutil"
	"github.com/banshee-data/mocap-align/internal/monitoring"
	"github.com/banshee-data/mocap-align/internal/table"
	"github.com/banshee-data/mocap-align/internal/trial"
)

var (
	// ErrNoFrameColumn is returned when a table has no frame axis column.
	ErrNoFrameColumn = errors.New("chart: no frame column")
	// ErrNoSeries is returned when an aligned table has nothing to plot.
	ErrNoSeries = errors.New("chart: no numeric series")
)

// Options controls figure sizes and encodings.
type Options struct {
	Format           string // image encoding and file extension, e.g. "png"
	StackedWidth     vg.Length
	StackedRowHeight vg.Length // height of each stacked sub-chart
	OverlayWidth     vg.Length
	OverlayHeight    vg.Length
	HTML             bool // also write overlays.html
}

// DefaultOptions returns 10in wide figures, 2in per stacked row and 4in
// tall overlays, encoded as PNG.
func DefaultOptions() Options {
	return Options{
		Format:           "png",
		StackedWidth:     10 * vg.Inch,
		StackedRowHeight: 2 * vg.Inch,
		OverlayWidth:     10 * vg.Inch,
		OverlayHeight:    4 * vg.Inch,
	}
}

// SeriesColumns returns the numeric columns of t whose names do not refer
// to a frame counter, in column order.
func SeriesColumns(t *table.Table) []string {
	var out []string
	for _, c := range t.Columns {
		if trial.IsFrameLike(c) || !t.IsNumeric(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// plottable reports whether v can be drawn by plotter.NewLine.
func plottable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// points pairs x and y where both cells hold finite numbers.
func points(x []float64, xok []bool, y []float64, yok []bool) plotter.XYs {
	pts := make(plotter.XYs, 0, len(x))
	for i := range x {
		if !xok[i] || !yok[i] || !plottable(x[i]) || !plottable(y[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
	}
	return pts
}

// Stacked renders every series of the aligned table at alignedPath as
// vertically stacked charts sharing the frame axis, and writes the figure
// to outPath. The image encoding follows the extension of outPath.
func Stacked(fsys fsutil.FileSystem, alignedPath, outPath string, opts Options) error {
	t, err := table.Load(fsys, alignedPath)
	if err != nil {
		return err
	}

	frameCol, ok := trial.ResolveFrameColumn(t)
	if !ok {
		return fmt.Errorf("%s: %w", alignedPath, ErrNoFrameColumn)
	}
	series := SeriesColumns(t)
	if len(series) == 0 {
		return fmt.Errorf("%s: %w", alignedPath, ErrNoSeries)
	}

	x, xok := t.Float(frameCol)
	xMin, xMax := math.Inf(1), math.Inf(-1)
	for i, v := range x {
		if xok[i] && plottable(v) {
			xMin = math.Min(xMin, v)
			xMax = math.Max(xMax, v)
		}
	}

	colors := generateColors(len(series))
	plots := make([][]*plot.Plot, len(series))
	for i, col := range series {
		p := plot.New()
		p.Y.Label.Text = col
		p.Add(plotter.NewGrid())

		y, yok := t.Float(col)
		if pts := points(x, xok, y, yok); len(pts) > 0 {
			line, err := plotter.NewLine(pts)
			if err != nil {
				return fmt.Errorf("series %s: %w", col, err)
			}
			line.Color = colors[i]
			line.Width = vg.Points(1)
			p.Add(line)
		}
		if xMin <= xMax {
			p.X.Min, p.X.Max = xMin, xMax
		}
		plots[i] = []*plot.Plot{p}
	}
	plots[0][0].Title.Text = "Stacked plots: " + filepath.Base(alignedPath)
	plots[len(plots)-1][0].X.Label.Text = frameCol

	if err := fsys.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(outPath)), ".")
	height := opts.StackedRowHeight * vg.Length(len(series))
	err = render(fsys, outPath, opts.StackedWidth, height, format, func(dc draw.Canvas) error {
		tiles := draw.Tiles{
			Rows:      len(plots),
			Cols:      1,
			PadTop:    vg.Points(4),
			PadBottom: vg.Points(4),
			PadLeft:   vg.Points(4),
			PadRight:  vg.Points(8),
			PadY:      vg.Points(6),
		}
		canvases := plot.Align(plots, tiles, dc)
		for j := range plots {
			plots[j][0].Draw(canvases[j][0])
		}
		return nil
	})
	if err != nil {
		return err
	}

	monitoring.Logf("Saved %s", outPath)
	return nil
}
