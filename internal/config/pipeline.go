package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is the path to the canonical pipeline defaults file.
const DefaultConfigPath = "config/pipeline.defaults.json"

// Built-in fallbacks used when a field is absent from the loaded file.
const (
	defaultDatasetDir        = "dataset"
	defaultAlignedDir        = "processed_csvs"
	defaultPlotsDir          = "plots"
	defaultImageFormat       = "png"
	defaultStackedWidthIn    = 10.0
	defaultStackedRowHeight  = 2.0
	defaultOverlayWidthIn    = 10.0
	defaultOverlayHeightIn   = 4.0
	defaultWriteHTML         = false
	defaultWriteSummary      = true
	maxConfigFileSizeInBytes = 1 * 1024 * 1024
)

// imageFormats are the encodings gonum/plot can write.
var imageFormats = map[string]bool{
	"png": true, "svg": true, "pdf": true, "eps": true,
	"jpg": true, "jpeg": true, "tif": true, "tiff": true,
}

// PipelineConfig holds the settings shared by the align and plot tools.
// Every field is optional; Get* accessors supply the defaults.
type PipelineConfig struct {
	DatasetDir *string `json:"dataset_dir,omitempty"`
	AlignedDir *string `json:"aligned_dir,omitempty"`
	PlotsDir   *string `json:"plots_dir,omitempty"`

	// Chart output
	ImageFormat            *string  `json:"image_format,omitempty"`
	StackedWidthInches     *float64 `json:"stacked_width_inches,omitempty"`
	StackedRowHeightInches *float64 `json:"stacked_row_height_inches,omitempty"`
	OverlayWidthInches     *float64 `json:"overlay_width_inches,omitempty"`
	OverlayHeightInches    *float64 `json:"overlay_height_inches,omitempty"`
	WriteHTML              *bool    `json:"write_html,omitempty"`

	// Run summaries (align_summary.csv, plot_summary.csv)
	WriteSummary *bool `json:"write_summary,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// EmptyPipelineConfig returns a PipelineConfig with all fields unset.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// DefaultPipelineConfig returns a config with every field set to its default.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		DatasetDir:             ptrString(defaultDatasetDir),
		AlignedDir:             ptrString(defaultAlignedDir),
		PlotsDir:               ptrString(defaultPlotsDir),
		ImageFormat:            ptrString(defaultImageFormat),
		StackedWidthInches:     ptrFloat64(defaultStackedWidthIn),
		StackedRowHeightInches: ptrFloat64(defaultStackedRowHeight),
		OverlayWidthInches:     ptrFloat64(defaultOverlayWidthIn),
		OverlayHeightInches:    ptrFloat64(defaultOverlayHeightIn),
		WriteHTML:              ptrBool(defaultWriteHTML),
		WriteSummary:           ptrBool(defaultWriteSummary),
	}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file fall back to their defaults.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSizeInBytes {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSizeInBytes)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it is set. Otherwise it loads
// DefaultConfigPath if present in the working directory, and falls back to
// DefaultPipelineConfig.
func LoadOrDefault(path string) (*PipelineConfig, error) {
	if path != "" {
		return LoadPipelineConfig(path)
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return LoadPipelineConfig(DefaultConfigPath)
	}
	return DefaultPipelineConfig(), nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *PipelineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadPipelineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *PipelineConfig) Validate() error {
	if c.ImageFormat != nil {
		if f := strings.ToLower(*c.ImageFormat); !imageFormats[f] {
			return fmt.Errorf("unsupported image_format %q", *c.ImageFormat)
		}
	}

	sizes := []struct {
		name string
		v    *float64
	}{
		{"stacked_width_inches", c.StackedWidthInches},
		{"stacked_row_height_inches", c.StackedRowHeightInches},
		{"overlay_width_inches", c.OverlayWidthInches},
		{"overlay_height_inches", c.OverlayHeightInches},
	}
	for _, s := range sizes {
		if s.v != nil && *s.v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", s.name, *s.v)
		}
	}

	for name, dir := range map[string]*string{
		"dataset_dir": c.DatasetDir,
		"aligned_dir": c.AlignedDir,
		"plots_dir":   c.PlotsDir,
	} {
		if dir != nil && strings.TrimSpace(*dir) == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}

	return nil
}

// GetDatasetDir returns the dataset root or the default.
func (c *PipelineConfig) GetDatasetDir() string {
	if c.DatasetDir == nil {
		return defaultDatasetDir
	}
	return *c.DatasetDir
}

// GetAlignedDir returns the aligned output directory or the default.
func (c *PipelineConfig) GetAlignedDir() string {
	if c.AlignedDir == nil {
		return defaultAlignedDir
	}
	return *c.AlignedDir
}

// GetPlotsDir returns the plot output root or the default.
func (c *PipelineConfig) GetPlotsDir() string {
	if c.PlotsDir == nil {
		return defaultPlotsDir
	}
	return *c.PlotsDir
}

// GetImageFormat returns the lowercased image format or the default.
func (c *PipelineConfig) GetImageFormat() string {
	if c.ImageFormat == nil || *c.ImageFormat == "" {
		return defaultImageFormat
	}
	return strings.ToLower(*c.ImageFormat)
}

func (c *PipelineConfig) GetStackedWidthInches() float64 {
	if c.StackedWidthInches == nil {
		return defaultStackedWidthIn
	}
	return *c.StackedWidthInches
}

func (c *PipelineConfig) GetStackedRowHeightInches() float64 {
	if c.StackedRowHeightInches == nil {
		return defaultStackedRowHeight
	}
	return *c.StackedRowHeightInches
}

func (c *PipelineConfig) GetOverlayWidthInches() float64 {
	if c.OverlayWidthInches == nil {
		return defaultOverlayWidthIn
	}
	return *c.OverlayWidthInches
}

func (c *PipelineConfig) GetOverlayHeightInches() float64 {
	if c.OverlayHeightInches == nil {
		return defaultOverlayHeightIn
	}
	return *c.OverlayHeightInches
}

// GetWriteHTML reports whether interactive overlay pages are written.
func (c *PipelineConfig) GetWriteHTML() bool {
	if c.WriteHTML == nil {
		return defaultWriteHTML
	}
	return *c.WriteHTML
}

// GetWriteSummary reports whether run summary CSVs are written.
func (c *PipelineConfig) GetWriteSummary() bool {
	if c.WriteSummary == nil {
		return defaultWriteSummary
	}
	return *c.WriteSummary
}
