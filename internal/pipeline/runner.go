// Package pipeline runs the two batch stages over a dataset: aligning each
// trial's Raven and TrakStar exports, then plotting the aligned output.
// Trials are processed one at a time; a trial that cannot be processed is
// skipped with a reason while I/O failures abort the run.
package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/mocap-align/internal/align"
	"github.com/banshee-data/mocap-align/internal/chart"
	"github.com/banshee-data/mocap-align/internal/config"
	"github.com/banshee-data/mocap-align/internal/fsutil"
	"github.com/banshee-data/mocap-align/internal/monitoring"
	"github.com/banshee-data/mocap-align/internal/table"
	"github.com/banshee-data/mocap-align/internal/timeutil"
	"github.com/banshee-data/mocap-align/internal/trial"
)

const (
	// AlignedPrefix starts every aligned output file name.
	AlignedPrefix = "aligned_"

	AlignSummaryFile = "align_summary.csv"
	PlotSummaryFile  = "plot_summary.csv"

	stackedName = "stacked"
	overlaysDir = "overlays"
	csvExt      = ".csv"
)

// Runner holds the directories and collaborators of a batch run.
type Runner struct {
	FS    fsutil.FileSystem
	Clock timeutil.Clock

	DatasetDir string
	AlignedDir string
	PlotsDir   string

	Chart        chart.Options
	WriteSummary bool
}

// NewRunner builds a Runner on the real filesystem from cfg.
func NewRunner(cfg *config.PipelineConfig) *Runner {
	opts := chart.Options{
		Format:           cfg.GetImageFormat(),
		StackedWidth:     vg.Length(cfg.GetStackedWidthInches()) * vg.Inch,
		StackedRowHeight: vg.Length(cfg.GetStackedRowHeightInches()) * vg.Inch,
		OverlayWidth:     vg.Length(cfg.GetOverlayWidthInches()) * vg.Inch,
		OverlayHeight:    vg.Length(cfg.GetOverlayHeightInches()) * vg.Inch,
		HTML:             cfg.GetWriteHTML(),
	}
	return &Runner{
		FS:           fsutil.OSFileSystem{},
		Clock:        timeutil.RealClock{},
		DatasetDir:   cfg.GetDatasetDir(),
		AlignedDir:   cfg.GetAlignedDir(),
		PlotsDir:     cfg.GetPlotsDir(),
		Chart:        opts,
		WriteSummary: cfg.GetWriteSummary(),
	}
}

func (r *Runner) newSummary(stage string) *Summary {
	return &Summary{
		RunID:     uuid.NewString(),
		Stage:     stage,
		StartedAt: r.Clock.Now(),
	}
}

func (r *Runner) finish(sum *Summary, dir, file string) error {
	sum.Elapsed = r.Clock.Since(sum.StartedAt)
	if r.WriteSummary {
		if err := sum.save(r.FS, filepath.Join(dir, file)); err != nil {
			return err
		}
	}
	return nil
}

func skipped(name string, reason Reason) TrialResult {
	monitoring.Logf("Skipped trial %s: %s", name, reason)
	return TrialResult{Trial: name, Status: StatusSkipped, Reason: reason}
}

// AlignedFileName returns the aligned output name for a trial folder.
func AlignedFileName(trialName string) string {
	return AlignedPrefix + trialName + csvExt
}

// TrialFromAligned recovers the trial name from an aligned output file
// name. The prefix match is case-insensitive.
func TrialFromAligned(fileName string) (string, bool) {
	if !strings.EqualFold(filepath.Ext(fileName), csvExt) {
		return "", false
	}
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if !strings.HasPrefix(strings.ToLower(stem), AlignedPrefix) {
		return "", false
	}
	return stem[len(AlignedPrefix):], true
}

// AlignAll aligns every trial folder directly under DatasetDir, writing
// aligned_<trial>.csv files into AlignedDir.
func (r *Runner) AlignAll() (*Summary, error) {
	sum := r.newSummary("align")

	entries, err := r.FS.ReadDir(r.DatasetDir)
	if err != nil {
		return sum, fmt.Errorf("list dataset %s: %w", r.DatasetDir, err)
	}
	if err := r.FS.MkdirAll(r.AlignedDir, 0755); err != nil {
		return sum, fmt.Errorf("failed to create output dir: %w", err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		res, err := r.AlignTrial(filepath.Join(r.DatasetDir, e.Name()))
		if err != nil {
			return sum, fmt.Errorf("trial %s: %w", e.Name(), err)
		}
		sum.Results = append(sum.Results, res)
	}

	if err := r.finish(sum, r.AlignedDir, AlignSummaryFile); err != nil {
		return sum, err
	}
	monitoring.Logf("Align run %s: %d aligned, %d skipped in %s",
		sum.RunID, sum.Count(StatusAligned), sum.Count(StatusSkipped), sum.Elapsed)
	return sum, nil
}

// AlignTrial aligns one trial folder. Missing inputs and unresolvable time
// columns produce a skipped result; read and write failures are errors.
func (r *Runner) AlignTrial(dir string) (TrialResult, error) {
	name := filepath.Base(dir)

	src, err := trial.Locate(r.FS, dir)
	if err != nil {
		return TrialResult{}, err
	}
	switch {
	case src.Primary == "" && src.Secondary == "":
		return skipped(name, ReasonMissingSources), nil
	case src.Primary == "":
		return skipped(name, ReasonMissingPrimary), nil
	case src.Secondary == "":
		return skipped(name, ReasonMissingSecondary), nil
	}

	primary, err := table.Load(r.FS, src.Primary)
	if err != nil {
		return TrialResult{}, err
	}
	secondary, err := table.Load(r.FS, src.Secondary)
	if err != nil {
		return TrialResult{}, err
	}

	pKey, ok := trial.ResolveTimeColumn(primary)
	if !ok {
		return skipped(name, ReasonNoPrimaryTimeColumn), nil
	}
	sKey, ok := trial.ResolveTimeColumn(secondary)
	if !ok {
		return skipped(name, ReasonNoSecondaryTimeColumn), nil
	}

	res, err := align.Asof(primary, secondary, pKey, sKey)
	if errors.Is(err, align.ErrNonNumericKey) {
		monitoring.Logf("Trial %s: %v", name, err)
		return skipped(name, ReasonNonNumericTime), nil
	}
	if err != nil {
		return TrialResult{}, err
	}

	out := filepath.Join(r.AlignedDir, AlignedFileName(name))
	if err := res.Table.Save(r.FS, out); err != nil {
		return TrialResult{}, err
	}
	monitoring.Logf("Processed and aligned: %s (%d rows, %d matched)", name, res.Stats.Rows, res.Stats.Matched)

	return TrialResult{
		Trial:   name,
		Status:  StatusAligned,
		Output:  out,
		Rows:    res.Stats.Rows,
		Matched: res.Stats.Matched,
		MeanLag: res.Stats.MeanLag,
		MaxLag:  res.Stats.MaxLag,
	}, nil
}

// PlotAll renders plots for every aligned file in AlignedDir into
// PlotsDir/<trial>/, re-locating raw sources under DatasetDir for overlays.
func (r *Runner) PlotAll() (*Summary, error) {
	sum := r.newSummary("plot")

	entries, err := r.FS.ReadDir(r.AlignedDir)
	if err != nil {
		return sum, fmt.Errorf("list aligned dir %s: %w", r.AlignedDir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := TrialFromAligned(e.Name())
		if !ok {
			continue
		}
		res, err := r.PlotTrial(filepath.Join(r.AlignedDir, e.Name()), name)
		if err != nil {
			return sum, fmt.Errorf("trial %s: %w", name, err)
		}
		sum.Results = append(sum.Results, res)
	}

	if r.WriteSummary {
		if err := r.FS.MkdirAll(r.PlotsDir, 0755); err != nil {
			return sum, fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := r.finish(sum, r.PlotsDir, PlotSummaryFile); err != nil {
		return sum, err
	}
	monitoring.Logf("Plot run %s: %d plotted, %d skipped in %s",
		sum.RunID, sum.Count(StatusPlotted), sum.Count(StatusSkipped), sum.Elapsed)
	return sum, nil
}

// PlotTrial draws the stacked chart for one aligned file and, when the raw
// trial folder still holds both sources, the per-column overlays.
func (r *Runner) PlotTrial(alignedPath, name string) (TrialResult, error) {
	trialDir := filepath.Join(r.PlotsDir, name)
	res := TrialResult{Trial: name, Status: StatusPlotted}

	stackedPath := filepath.Join(trialDir, stackedName+"."+r.Chart.Format)
	err := chart.Stacked(r.FS, alignedPath, stackedPath, r.Chart)
	switch {
	case errors.Is(err, chart.ErrNoFrameColumn):
		res = skipped(name, ReasonNoFrameColumn)
	case errors.Is(err, chart.ErrNoSeries):
		res = skipped(name, ReasonNoSeries)
	case err != nil:
		return TrialResult{}, err
	default:
		res.Output = stackedPath
	}

	note := func(reason Reason) {
		monitoring.Logf("Trial %s: %s", name, reason)
		if res.Reason == ReasonNone {
			res.Reason = reason
		}
	}

	rawDir := filepath.Join(r.DatasetDir, name)
	if !fsutil.IsDir(r.FS, rawDir) {
		note(ReasonNoRawSources)
		return res, nil
	}
	src, err := trial.Locate(r.FS, rawDir)
	if err != nil {
		return TrialResult{}, err
	}
	if !src.Complete() {
		note(ReasonNoRawSources)
		return res, nil
	}

	n, err := chart.Overlay(r.FS, src.Primary, src.Secondary, filepath.Join(trialDir, overlaysDir), r.Chart)
	switch {
	case errors.Is(err, chart.ErrNoFrameColumn):
		note(ReasonNoFrameColumn)
	case err != nil:
		return TrialResult{}, err
	case n == 0:
		note(ReasonNoOverlayColumns)
	}
	res.Overlays = n
	return res, nil
}
