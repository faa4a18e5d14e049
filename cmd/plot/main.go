// Command plot renders a stacked chart for every aligned CSV and, where the
// raw trial folder is still present, per-column Raven/TrakStar overlays.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/banshee-data/mocap-align/internal/config"
	"github.com/banshee-data/mocap-align/internal/pipeline"
	"github.com/banshee-data/mocap-align/internal/version"
)

var (
	configPath  = flag.String("config", "", "Pipeline config JSON (defaults to "+config.DefaultConfigPath+" when present)")
	datasetDir  = flag.String("dataset", "", "Dataset root with the raw trial folders")
	alignedDir  = flag.String("aligned", "", "Directory holding aligned_<trial>.csv files")
	outDir      = flag.String("out", "", "Output directory for plots")
	format      = flag.String("format", "", "Image format: png, svg, pdf, eps, jpg or tif")
	writeHTML   = flag.Bool("html", false, "Also write an interactive overlays.html per trial")
	noSummary   = flag.Bool("no-summary", false, "Do not write "+pipeline.PlotSummaryFile)
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// loadConfig applies command-line overrides on top of the config file.
func loadConfig() (*config.PipelineConfig, error) {
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return nil, err
	}
	if *datasetDir != "" {
		cfg.DatasetDir = datasetDir
	}
	if *alignedDir != "" {
		cfg.AlignedDir = alignedDir
	}
	if *outDir != "" {
		cfg.PlotsDir = outDir
	}
	if *format != "" {
		cfg.ImageFormat = format
	}
	if *writeHTML {
		on := true
		cfg.WriteHTML = &on
	}
	if *noSummary {
		off := false
		cfg.WriteSummary = &off
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("plot"))
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	sum, err := pipeline.NewRunner(cfg).PlotAll()
	if err != nil {
		log.Fatalf("plot failed: %v", err)
	}

	overlays := 0
	for _, r := range sum.Results {
		overlays += r.Overlays
	}
	fmt.Printf("plotted %d trial(s), skipped %d, %d overlay(s), output in %s\n",
		sum.Count(pipeline.StatusPlotted), sum.Count(pipeline.StatusSkipped), overlays, cfg.GetPlotsDir())
}
