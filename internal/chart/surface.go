package chart

import (
	"fmt"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/mocap-align/internal/fsutil"
)

// render acquires a canvas of the given size and encoding, hands it to
// drawFn, and writes the result to path. The canvas lives only for the
// duration of the call; nothing is written if drawFn fails.
func render(fsys fsutil.FileSystem, path string, w, h vg.Length, format string, drawFn func(dc draw.Canvas) error) error {
	c, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return fmt.Errorf("create %s canvas: %w", format, err)
	}

	if err := drawFn(draw.New(c)); err != nil {
		return err
	}

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
