package trial

import (
	"strings"

	"github.com/banshee-data/mocap-align/internal/table"
)

// TimeMarker identifies the canonical frame counter shared by both sensors.
const TimeMarker = "True frame #"

const frameName = "frame"

// ResolveTimeColumn returns the first column whose name contains TimeMarker.
func ResolveTimeColumn(t *table.Table) (string, bool) {
	for _, c := range t.Columns {
		if strings.Contains(c, TimeMarker) {
			return c, true
		}
	}
	return "", false
}

// ResolveFrameColumn picks the plotting axis: a column named "frame" in any
// case, otherwise the first column whose name contains it.
func ResolveFrameColumn(t *table.Table) (string, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c, frameName) {
			return c, true
		}
	}
	for _, c := range t.Columns {
		if IsFrameLike(c) {
			return c, true
		}
	}
	return "", false
}

// IsFrameLike reports whether a column name refers to a frame counter.
func IsFrameLike(name string) bool {
	return strings.Contains(strings.ToLower(name), frameName)
}
