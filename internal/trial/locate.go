// Package trial finds the per-sensor exports inside a trial folder and the
// frame columns inside those exports.
package trial

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/mocap-align/internal/fsutil"
	"github.com/banshee-data/mocap-align/internal/monitoring"
)

// Role says which sensor subsystem produced a file.
type Role int

const (
	RoleIgnored Role = iota
	RolePrimary
	RoleSecondary
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleSecondary:
		return "secondary"
	default:
		return "ignored"
	}
}

const (
	secondaryMarker = "trakstar_final"
	trakstarMarker  = "trakstar"
	framesMarker    = "frames"
	csvExt          = ".csv"
)

// Classify tags a file name with its role. Frame index exports and raw
// TrakStar dumps are ignored; the final TrakStar export is the secondary
// source and any other CSV is the primary (Raven) source.
func Classify(name string) Role {
	lower := strings.ToLower(name)
	if strings.ToLower(filepath.Ext(name)) != csvExt || strings.Contains(lower, framesMarker) {
		return RoleIgnored
	}
	if strings.Contains(lower, secondaryMarker) {
		return RoleSecondary
	}
	if !strings.Contains(lower, trakstarMarker) {
		return RolePrimary
	}
	return RoleIgnored
}

// Sources are the located input files of one trial. An empty path means
// no file matched that role.
type Sources struct {
	Primary   string
	Secondary string

	// Conflicts lists candidates that a later file of the same role replaced.
	Conflicts []string
}

// Complete reports whether both roles were found.
func (s Sources) Complete() bool {
	return s.Primary != "" && s.Secondary != ""
}

// Locate scans the regular files directly inside dir in name order. When
// several files match one role the last one wins; the replaced candidates
// are recorded in Conflicts.
func Locate(fsys fsutil.FileSystem, dir string) (Sources, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return Sources{}, fmt.Errorf("list trial folder %s: %w", dir, err)
	}

	var src Sources
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch Classify(e.Name()) {
		case RolePrimary:
			if src.Primary != "" {
				src.Conflicts = append(src.Conflicts, src.Primary)
			}
			src.Primary = path
		case RoleSecondary:
			if src.Secondary != "" {
				src.Conflicts = append(src.Conflicts, src.Secondary)
			}
			src.Secondary = path
		}
	}

	if len(src.Conflicts) > 0 {
		monitoring.Logf("trial %s: %d ambiguous source file(s) replaced: %s",
			filepath.Base(dir), len(src.Conflicts), strings.Join(src.Conflicts, ", "))
	}
	return src, nil
}
