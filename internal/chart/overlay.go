package chart

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/mocap-align/internal/fsutil"
	"github.com/banshee-data/mocap-align/internal/monitoring"
	"github.com/banshee-data/mocap-align/internal/table"
	"github.com/banshee-data/mocap-align/internal/trial"
)

// PrimaryOffset is where the Raven frame axis starts after normalisation;
// the TrakStar axis starts at zero.
const PrimaryOffset = 18.0

const (
	primaryLabel   = "Raven"
	secondaryLabel = "TrakStar"
	overlayXLabel  = "Frame (aligned start)"

	// PageFile is the interactive overlay page written next to the images.
	PageFile = "overlays.html"
)

// NormalizeAxis shifts vals so that the first valid entry equals start.
// Entries with ok[i] false are shifted too and remain invalid.
func NormalizeAxis(vals []float64, ok []bool, start float64) []float64 {
	out := make([]float64, len(vals))
	copy(out, vals)
	for i := range vals {
		if ok[i] {
			floats.AddConst(start-vals[i], out)
			break
		}
	}
	return out
}

// MatchingColumns lists columns present and numeric in both tables,
// excluding each table's own frame column, in primary column order.
func MatchingColumns(primary, secondary *table.Table, primaryFrame, secondaryFrame string) []string {
	var out []string
	for _, c := range primary.Columns {
		if c == primaryFrame || c == secondaryFrame {
			continue
		}
		if secondary.Index(c) < 0 {
			continue
		}
		if primary.IsNumeric(c) && secondary.IsNumeric(c) {
			out = append(out, c)
		}
	}
	return out
}

// OverlayFileName returns the image name for one overlaid column.
func OverlayFileName(column, format string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(column)
	return "overlay_" + safe + "." + format
}

// overlayFileNames assigns each column its OverlayFileName. When two
// columns sanitise to the same name, the later one gets _2, _3, ...
func overlayFileNames(cols []string, format string) []string {
	names := make([]string, len(cols))
	used := make(map[string]bool, len(cols))
	for i, c := range cols {
		name := OverlayFileName(c, format)
		for n := 2; used[name]; n++ {
			name = OverlayFileName(c+"_"+strconv.Itoa(n), format)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// OverlaySeries is one column of both sources on normalised frame axes.
type OverlaySeries struct {
	Column    string
	Primary   plotter.XYs
	Secondary plotter.XYs
}

// Overlay plots every column shared by the raw primary and secondary
// tables, one image per column in outDir. It returns the number of
// columns drawn; zero means nothing matched and no output was created.
func Overlay(fsys fsutil.FileSystem, primaryPath, secondaryPath, outDir string, opts Options) (int, error) {
	pt, err := table.Load(fsys, primaryPath)
	if err != nil {
		return 0, err
	}
	st, err := table.Load(fsys, secondaryPath)
	if err != nil {
		return 0, err
	}

	pFrame, ok := trial.ResolveFrameColumn(pt)
	if !ok {
		return 0, fmt.Errorf("%s: %w", primaryPath, ErrNoFrameColumn)
	}
	sFrame, ok := trial.ResolveFrameColumn(st)
	if !ok {
		return 0, fmt.Errorf("%s: %w", secondaryPath, ErrNoFrameColumn)
	}

	cols := MatchingColumns(pt, st, pFrame, sFrame)
	if len(cols) == 0 {
		monitoring.Logf("No matching columns found for overlay: %s", filepath.Base(filepath.Dir(primaryPath)))
		return 0, nil
	}

	if err := fsys.MkdirAll(outDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	px, pok := pt.Float(pFrame)
	sx, sok := st.Float(sFrame)
	px = NormalizeAxis(px, pok, PrimaryOffset)
	sx = NormalizeAxis(sx, sok, 0)

	names := overlayFileNames(cols, opts.Format)
	all := make([]OverlaySeries, 0, len(cols))
	for i, col := range cols {
		py, pyok := pt.Float(col)
		sy, syok := st.Float(col)
		s := OverlaySeries{
			Column:    col,
			Primary:   points(px, pok, py, pyok),
			Secondary: points(sx, sok, sy, syok),
		}

		if names[i] != OverlayFileName(col, opts.Format) {
			monitoring.Logf("Overlay file name for column %q collides, writing %s", col, names[i])
		}
		path := filepath.Join(outDir, names[i])
		if err := saveOverlay(fsys, path, s, opts); err != nil {
			return 0, fmt.Errorf("overlay %s: %w", col, err)
		}
		monitoring.Logf("Saved overlay plot: %s", path)
		all = append(all, s)
	}

	if opts.HTML {
		if err := SavePage(fsys, filepath.Join(outDir, PageFile), all); err != nil {
			return 0, err
		}
	}

	return len(cols), nil
}

func saveOverlay(fsys fsutil.FileSystem, path string, s OverlaySeries, opts Options) error {
	p := plot.New()
	p.Title.Text = "Overlay: " + s.Column
	p.X.Label.Text = overlayXLabel
	p.Y.Label.Text = s.Column
	p.Add(plotter.NewGrid())

	lines := []struct {
		label string
		pts   plotter.XYs
		color color.Color
	}{
		{primaryLabel, s.Primary, primaryColor},
		{secondaryLabel, s.Secondary, secondaryColor},
	}
	for _, l := range lines {
		if len(l.pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(l.pts)
		if err != nil {
			return err
		}
		line.Color = l.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(l.label, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return render(fsys, path, opts.OverlayWidth, opts.OverlayHeight, opts.Format, func(dc draw.Canvas) error {
		p.Draw(dc)
		return nil
	})
}
