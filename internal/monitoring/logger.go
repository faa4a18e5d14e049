// Package monitoring routes pipeline notices (aligned, skipped, saved) to
// the process log.
package monitoring

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// Logf is the package-level notice logger. It defaults to log.Printf but may
// be replaced by SetLogger so tests can capture or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Recorder keeps formatted notices in memory.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

// Logf formats and stores one notice.
func (r *Recorder) Logf(format string, v ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

// Lines returns a copy of the recorded notices.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Contains reports whether any recorded notice contains sub.
func (r *Recorder) Contains(sub string) bool {
	for _, l := range r.Lines() {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}
