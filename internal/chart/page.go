package chart

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot/plotter"

	"github.com/banshee-data/mocap-align/internal/fsutil"
)

func lineData(pts plotter.XYs) []opts.LineData {
	data := make([]opts.LineData, 0, len(pts))
	for _, p := range pts {
		data = append(data, opts.LineData{Value: []interface{}{p.X, p.Y}})
	}
	return data
}

// WritePage renders one interactive line chart per overlaid column.
func WritePage(w io.Writer, series []OverlaySeries) error {
	page := components.NewPage()
	page.PageTitle = "Raven vs TrakStar overlays"

	for _, s := range series {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
			charts.WithTitleOpts(opts.Title{Title: "Overlay: " + s.Column}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: overlayXLabel, NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: s.Column}),
			charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
			charts.WithColorsOpts(opts.Colors{"#0000ff", "#ffa500"}),
		)
		line.AddSeries(primaryLabel, lineData(s.Primary))
		line.AddSeries(secondaryLabel, lineData(s.Secondary))
		page.AddCharts(line)
	}

	return page.Render(w)
}

// SavePage writes the overlay page to path.
func SavePage(fsys fsutil.FileSystem, path string, series []OverlaySeries) error {
	var buf bytes.Buffer
	if err := WritePage(&buf, series); err != nil {
		return fmt.Errorf("render overlay page: %w", err)
	}
	if err := fsys.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
