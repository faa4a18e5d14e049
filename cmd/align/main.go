// Command align pairs each trial's Raven export with its TrakStar export
// and writes one aligned_<trial>.csv per trial.
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
	datasetDir  = flag.String("dataset", "", "Dataset root with one folder per trial")
	outDir      = flag.String("out", "", "Output directory for aligned CSVs")
	noSummary   = flag.Bool("no-summary", false, "Do not write "+pipeline.AlignSummaryFile)
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
	if *outDir != "" {
		cfg.AlignedDir = outDir
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
		fmt.Println(version.String("align"))
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	sum, err := pipeline.NewRunner(cfg).AlignAll()
	if err != nil {
		log.Fatalf("align failed: %v", err)
	}

	fmt.Printf("aligned %d trial(s), skipped %d, output in %s\n",
		sum.Count(pipeline.StatusAligned), sum.Count(pipeline.StatusSkipped), cfg.GetAlignedDir())
}
