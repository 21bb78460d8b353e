package render

import (
	"image/color"
	"testing"

	"contour-atlas/pkg/geometry"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

func TestRasterizeBackground(t *testing.T) {
	t.Parallel()

	img := Rasterize(nil, 20, 10, white)
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Fatalf("bounds = %v, want 20x10", b)
	}
	if got := img.RGBAAt(5, 5); got != white {
		t.Errorf("background pixel = %v, want white", got)
	}

	// Zero-alpha background stays transparent.
	img = Rasterize(nil, 4, 4, color.RGBA{})
	if got := img.RGBAAt(1, 1); got.A != 0 {
		t.Errorf("transparent background pixel = %v", got)
	}
}

func TestRasterizeStroke(t *testing.T) {
	t.Parallel()

	ops := []Op{
		StrokeOp{
			Points: []geometry.Point2D{{X: 2, Y: 10}, {X: 17, Y: 10}},
			Color:  black,
			Width:  1,
		},
	}
	img := Rasterize(ops, 20, 20, white)

	for x := 2; x <= 17; x++ {
		if got := img.RGBAAt(x, 10); got != black {
			t.Fatalf("pixel (%d, 10) = %v, want black", x, got)
		}
	}
	if got := img.RGBAAt(10, 3); got != white {
		t.Errorf("off-stroke pixel = %v, want white", got)
	}
}

func TestRasterizeThickStrokeHasRoundCap(t *testing.T) {
	t.Parallel()

	ops := []Op{
		StrokeOp{
			Points: []geometry.Point2D{{X: 20, Y: 20}, {X: 40, Y: 20}},
			Color:  black,
			Width:  8,
		},
	}
	img := Rasterize(ops, 60, 40, white)

	// Pixels above and below the centerline are covered.
	if got := img.RGBAAt(30, 17); got != black {
		t.Errorf("pixel above centerline = %v, want black", got)
	}
	if got := img.RGBAAt(30, 23); got != black {
		t.Errorf("pixel below centerline = %v, want black", got)
	}
	// The cap extends past the endpoint.
	if got := img.RGBAAt(17, 20); got != black {
		t.Errorf("cap pixel = %v, want black", got)
	}
	// Corner of the cap's bounding square stays empty (round, not square).
	if got := img.RGBAAt(16, 16); got != white {
		t.Errorf("cap corner pixel = %v, want white", got)
	}
}

func TestRasterizeDot(t *testing.T) {
	t.Parallel()

	red := color.RGBA{R: 255, A: 255}
	ops := []Op{DotOp{Center: geometry.Point2D{X: 10, Y: 10}, Radius: 3, Color: red}}
	img := Rasterize(ops, 20, 20, white)

	if got := img.RGBAAt(10, 10); got != red {
		t.Errorf("center = %v, want red", got)
	}
	if got := img.RGBAAt(10, 12); got != red {
		t.Errorf("inside radius = %v, want red", got)
	}
	if got := img.RGBAAt(15, 15); got != white {
		t.Errorf("outside radius = %v, want white", got)
	}
}

func TestRasterizeAlphaBlend(t *testing.T) {
	t.Parallel()

	half := color.RGBA{R: 0, G: 0, B: 0, A: 128}
	ops := []Op{DotOp{Center: geometry.Point2D{X: 5, Y: 5}, Radius: 2, Color: half}}
	img := Rasterize(ops, 10, 10, white)

	got := img.RGBAAt(5, 5)
	if got.A != 255 {
		t.Errorf("blended alpha = %d, want 255", got.A)
	}
	// Roughly half gray between black and white.
	if got.R < 120 || got.R > 135 {
		t.Errorf("blended red = %d, want near 127", got.R)
	}
}

func TestRasterizeClipsOutOfBounds(t *testing.T) {
	t.Parallel()

	ops := []Op{
		StrokeOp{Points: []geometry.Point2D{{X: -50, Y: -50}, {X: 100, Y: 100}}, Color: black, Width: 6},
		DotOp{Center: geometry.Point2D{X: -20, Y: 5}, Radius: 4, Color: black},
		LabelOp{Center: geometry.Point2D{X: 200, Y: 200}, Text: "far", Color: black, Background: white},
	}
	// Must not panic; pixels outside the image are dropped.
	img := Rasterize(ops, 10, 10, white)
	if got := img.RGBAAt(5, 5); got != black {
		t.Errorf("in-bounds diagonal pixel = %v, want black", got)
	}
}

func TestRasterizeLabel(t *testing.T) {
	t.Parallel()

	ops := []Op{LabelOp{
		Center:     geometry.Point2D{X: 40, Y: 20},
		Text:       "ridge",
		Color:      black,
		Background: color.RGBA{R: 230, G: 230, B: 230, A: 255},
	}}
	img := Rasterize(ops, 80, 40, white)

	// The backing rectangle is painted at the center.
	if got := img.RGBAAt(40, 20); got == white {
		t.Errorf("label center untouched: %v", got)
	}

	// Some glyph pixels land inside the label box.
	w, h := MeasureLabel("ridge")
	found := false
	for y := 20 - int(h/2); y <= 20+int(h/2) && !found; y++ {
		for x := 40 - int(w/2); x <= 40+int(w/2); x++ {
			if img.RGBAAt(x, y) == black {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("no glyph pixels drawn")
	}
}

func TestMeasureLabelGrowsWithText(t *testing.T) {
	t.Parallel()

	w1, h1 := MeasureLabel("a")
	w2, h2 := MeasureLabel("a longer label")
	if w2 <= w1 {
		t.Errorf("width did not grow: %v vs %v", w1, w2)
	}
	if h1 != h2 {
		t.Errorf("height should be constant: %v vs %v", h1, h2)
	}
	if w1 <= 2*labelPadX || h1 <= 2*labelPadY {
		t.Errorf("size %vx%v missing padding", w1, h1)
	}
}

func TestRasterizeMinimumSize(t *testing.T) {
	t.Parallel()

	img := Rasterize(nil, 0, -3, white)
	if b := img.Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Errorf("bounds = %v, want 1x1", b)
	}
}
