// Package export flattens the current scene into an opaque raster image and
// writes it as a PNG with a timestamped filename.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"contour-atlas/internal/overlay"
	"contour-atlas/internal/render"
	"contour-atlas/internal/viewport"
	"contour-atlas/pkg/geometry"
)

// Exported images are rendered at a multiple of the on-screen canvas size.
const (
	MinPixelRatio = 2.0
	MaxPixelRatio = 5.0
)

var exportBackground = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Options describes the viewport to flatten: the on-screen canvas size, the
// current pan/zoom gesture, and the requested device pixel ratio.
type Options struct {
	Width      float64
	Height     float64
	Gesture    geometry.AffineTransform
	PixelRatio float64
}

// ClampPixelRatio bounds a device pixel ratio to the supported export range.
func ClampPixelRatio(r float64) float64 {
	if r < MinPixelRatio {
		return MinPixelRatio
	}
	if r > MaxPixelRatio {
		return MaxPixelRatio
	}
	return r
}

// Filename returns the deterministic timestamped name for an export taken at
// the given instant.
func Filename(now time.Time) string {
	return now.Format("contour_20060102_150405.png")
}

// Scene renders the store's visible layers into an opaque image at the
// scaled resolution. Decorations are hidden for the duration of the capture
// and restored afterwards. The gesture translation is rescaled along with
// the canvas so the export shows exactly the on-screen framing.
func Scene(store *overlay.Store, opts Options) *image.RGBA {
	ratio := ClampPixelRatio(opts.PixelRatio)
	cw := opts.Width * ratio
	ch := opts.Height * ratio

	gesture := opts.Gesture
	gesture.TX *= ratio
	gesture.TY *= ratio

	scaleBar := store.DecorationVisible(overlay.DecorationScaleBar)
	attribution := store.DecorationVisible(overlay.DecorationAttribution)
	store.SetDecorationVisible(overlay.DecorationScaleBar, false)
	store.SetDecorationVisible(overlay.DecorationAttribution, false)
	defer func() {
		store.SetDecorationVisible(overlay.DecorationScaleBar, scaleBar)
		store.SetDecorationVisible(overlay.DecorationAttribution, attribution)
	}()

	proj := viewport.New(store.CombinedBounds(false), cw, ch, gesture)
	ops := render.BuildScene(store, proj, cw, ch)
	return render.Rasterize(ops, int(cw), int(ch), exportBackground)
}

// WritePNG renders the scene and encodes it to w.
func WritePNG(w io.Writer, store *overlay.Store, opts Options) error {
	if err := png.Encode(w, Scene(store, opts)); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Save renders the scene and writes it under dir with the timestamped
// filename, returning the full path.
func Save(dir string, store *overlay.Store, opts Options, now time.Time) (string, error) {
	path := filepath.Join(dir, Filename(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := WritePNG(f, store, opts); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}
