// Package testutil provides shared fixtures for building trial folders in
// tests.
package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/mocap-align/internal/fsutil"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// CSV joins a header and rows into comma separated text with a trailing
// newline. Fields are not quoted.
func CSV(header []string, rows ...[]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(strings.Join(r, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteTrial creates dir and writes each file name/content pair into it.
func WriteTrial(t *testing.T, fsys fsutil.FileSystem, dir string, files map[string]string) {
	t.Helper()
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for name, content := range files {
		if err := fsys.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}
