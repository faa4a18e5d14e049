package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/banshee-data/mocap-align/internal/fsutil"
)

// Status is the outcome of one trial in one stage.
type Status string

const (
	StatusAligned Status = "aligned"
	StatusPlotted Status = "plotted"
	StatusSkipped Status = "skipped"
)

// Reason explains a skip, or annotates a partially plotted trial.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonMissingSources        Reason = "missing_sources"
	ReasonMissingPrimary        Reason = "missing_primary"
	ReasonMissingSecondary      Reason = "missing_secondary"
	ReasonNoPrimaryTimeColumn   Reason = "no_primary_time_column"
	ReasonNoSecondaryTimeColumn Reason = "no_secondary_time_column"
	ReasonNonNumericTime        Reason = "non_numeric_time"
	ReasonNoFrameColumn         Reason = "no_frame_column"
	ReasonNoSeries              Reason = "no_series"
	ReasonNoRawSources          Reason = "no_raw_sources"
	ReasonNoOverlayColumns      Reason = "no_overlay_columns"
)

// TrialResult records what happened to one trial.
type TrialResult struct {
	Trial  string
	Status Status
	Reason Reason
	Output string // aligned CSV or stacked image

	// Alignment stage
	Rows    int
	Matched int
	MeanLag float64
	MaxLag  float64

	// Plot stage
	Overlays int
}

// Summary collects the per-trial results of one run.
type Summary struct {
	RunID     string
	Stage     string
	StartedAt time.Time
	Elapsed   time.Duration
	Results   []TrialResult
}

// Count returns how many trials ended with status st.
func (s *Summary) Count(st Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == st {
			n++
		}
	}
	return n
}

// Result returns the result for a trial name.
func (s *Summary) Result(trial string) (TrialResult, bool) {
	for _, r := range s.Results {
		if r.Trial == trial {
			return r, true
		}
	}
	return TrialResult{}, false
}

var summaryHeader = []string{
	"run_id", "stage", "started_at", "trial", "status", "reason", "output",
	"rows", "matched", "mean_lag", "max_lag", "overlays",
}

// WriteCSV writes one row per trial.
func (s *Summary) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	started := s.StartedAt.UTC().Format(time.RFC3339)
	for _, r := range s.Results {
		row := []string{
			s.RunID,
			s.Stage,
			started,
			r.Trial,
			string(r.Status),
			string(r.Reason),
			r.Output,
			strconv.Itoa(r.Rows),
			strconv.Itoa(r.Matched),
			fmt.Sprintf("%.6f", r.MeanLag),
			fmt.Sprintf("%.6f", r.MaxLag),
			strconv.Itoa(r.Overlays),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Summary) save(fsys fsutil.FileSystem, path string) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := s.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
