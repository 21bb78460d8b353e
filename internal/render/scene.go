// Package render turns the layer store and viewport into an ordered list of
// draw operations and rasterizes them into an RGBA image. Scene building is
// pure: it performs no mutation and no hit-testing.
package render

import (
	"fmt"
	"image/color"
	"math"

	"contour-atlas/internal/overlay"
	"contour-atlas/internal/viewport"
	"contour-atlas/pkg/geometry"
)

// Stroke width and marker radius clamps, applied in gesture-space units so
// strokes stay readable across the whole zoom range.
const (
	contourWidthMin = 0.03
	contourWidthMax = 0.52
	trackWidthMin   = 0.4
	trackWidthMax   = 7.0
	markerRadiusMin = 0.7
	markerRadiusMax = 3.2

	leaderWidth = 1.2

	scaleBarTargetPx = 120.0
	scaleBarMargin   = 18.0
	attributionText  = "Contour Atlas"
)

var (
	startMarkerColor = color.RGBA{R: 46, G: 204, B: 113, A: 255}
	endMarkerColor   = color.RGBA{R: 231, G: 76, B: 60, A: 255}
	labelTextColor   = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelBackColor   = color.RGBA{R: 255, G: 255, B: 255, A: 210}
	decorationColor  = color.RGBA{R: 60, G: 60, B: 60, A: 230}
)

// Op is a single draw operation in canvas space. Ops are drawn in slice
// order, so later ops paint over earlier ones.
type Op interface {
	isOp()
}

// StrokeOp draws a polyline.
type StrokeOp struct {
	Points []geometry.Point2D
	Color  color.RGBA
	Width  float64
}

// DotOp draws a filled circle.
type DotOp struct {
	Center geometry.Point2D
	Radius float64
	Color  color.RGBA
}

// LabelOp draws a text label centered at a point over a padded backing
// rectangle.
type LabelOp struct {
	Center     geometry.Point2D
	Text       string
	Color      color.RGBA
	Background color.RGBA
}

func (StrokeOp) isOp() {}
func (DotOp) isOp()    {}
func (LabelOp) isOp()  {}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// withOpacity bakes a layer opacity into the color's alpha channel.
func withOpacity(c color.RGBA, opacity float64) color.RGBA {
	c.A = uint8(clamp(opacity, 0, 1) * 255)
	return c
}

// BuildScene produces the frame's draw list: contour strokes (minor pass then
// major pass per layer), track strokes with start/end markers, note markers
// with leader lines and labels, then the decorations. All coordinates are
// canvas pixels for the given projector and canvas size.
func BuildScene(store *overlay.Store, proj *viewport.Projector, cw, ch float64) []Op {
	var ops []Op

	interval := viewport.IntervalForScale(proj.RenderScale())
	for _, layer := range store.ContourLayers() {
		if !layer.Visible {
			continue
		}
		ops = appendContourOps(ops, layer, proj, interval)
	}

	for _, layer := range store.TrackLayers() {
		if !layer.Visible {
			continue
		}
		ops = appendTrackOps(ops, layer, proj)
	}

	if store.DecorationVisible(overlay.DecorationScaleBar) {
		ops = appendScaleBar(ops, proj, ch)
	}
	if store.DecorationVisible(overlay.DecorationAttribution) {
		ops = appendAttribution(ops, cw, ch)
	}
	return ops
}

// appendContourOps emits the layer's visible contours, minor lines first so
// major lines paint over them at crossings.
func appendContourOps(ops []Op, layer *overlay.ContourLayer, proj *viewport.Projector, interval int) []Op {
	rs := proj.RenderScale()
	col := withOpacity(layer.Style.Color, layer.Style.Opacity)

	minorWidth := clamp(layer.Style.StrokeWidth/rs, contourWidthMin, contourWidthMax) * rs
	majorWidth := minorWidth * 1.8

	for _, major := range []bool{false, true} {
		width := minorWidth
		if major {
			width = majorWidth
		}
		for _, line := range layer.Lines {
			if line.Major != major {
				continue
			}
			if !viewport.ShouldDraw(line.Elevation, line.Major, len(line.Points), interval) {
				continue
			}
			ops = append(ops, StrokeOp{
				Points: projectLine(proj, line.Points),
				Color:  col,
				Width:  width,
			})
		}
	}
	return ops
}

// appendTrackOps emits the track's polylines, its start and end markers, and
// every visible note's marker, leader line, and label.
func appendTrackOps(ops []Op, layer *overlay.TrackLayer, proj *viewport.Projector) []Op {
	gs := proj.GestureScale()
	col := withOpacity(layer.Style.Color, layer.Style.Opacity)
	width := clamp(layer.Style.StrokeWidth/gs, trackWidthMin, trackWidthMax) * gs
	radius := clamp((layer.Style.StrokeWidth*0.7)/gs, markerRadiusMin, markerRadiusMax) * gs

	var first, last geometry.Point2D
	haveEnds := false
	for _, line := range layer.Polylines {
		if len(line) == 0 {
			continue
		}
		if !haveEnds {
			first = line[0]
			haveEnds = true
		}
		last = line[len(line)-1]
		if len(line) < 2 {
			continue
		}
		ops = append(ops, StrokeOp{Points: projectLine(proj, line), Color: col, Width: width})
	}

	if haveEnds {
		ops = append(ops,
			DotOp{Center: proj.ToCanvas(first), Radius: radius, Color: startMarkerColor},
			DotOp{Center: proj.ToCanvas(last), Radius: radius, Color: endMarkerColor},
		)
	}

	for _, note := range layer.Notes {
		if !note.Visible {
			continue
		}
		anchor := proj.ToCanvas(note.Anchor)
		center := proj.ToCanvas(note.LabelCenter())
		ops = append(ops,
			StrokeOp{Points: []geometry.Point2D{anchor, center}, Color: withOpacity(col, 0.6), Width: leaderWidth},
			DotOp{Center: anchor, Radius: radius * 0.9, Color: col},
			LabelOp{Center: center, Text: note.Text, Color: labelTextColor, Background: labelBackColor},
		)
	}
	return ops
}

// appendScaleBar emits a bottom-left scale bar sized to a round number of
// meters near a fixed on-screen length.
func appendScaleBar(ops []Op, proj *viewport.Projector, ch float64) []Op {
	ppm := proj.PixelsPerMeter()
	if ppm <= 0 || math.IsInf(ppm, 0) || math.IsNaN(ppm) {
		return ops
	}

	meters := niceLength(scaleBarTargetPx / ppm)
	px := meters * ppm

	y := ch - scaleBarMargin
	left := geometry.Point2D{X: scaleBarMargin, Y: y}
	right := geometry.Point2D{X: scaleBarMargin + px, Y: y}
	tick := 5.0

	ops = append(ops,
		StrokeOp{Points: []geometry.Point2D{left, right}, Color: decorationColor, Width: 2},
		StrokeOp{Points: []geometry.Point2D{{X: left.X, Y: y - tick}, {X: left.X, Y: y + tick}}, Color: decorationColor, Width: 2},
		StrokeOp{Points: []geometry.Point2D{{X: right.X, Y: y - tick}, {X: right.X, Y: y + tick}}, Color: decorationColor, Width: 2},
		LabelOp{
			Center:     geometry.Point2D{X: scaleBarMargin + px/2, Y: y - 12},
			Text:       formatMeters(meters),
			Color:      decorationColor,
			Background: labelBackColor,
		},
	)
	return ops
}

func appendAttribution(ops []Op, cw, ch float64) []Op {
	w, _ := MeasureLabel(attributionText)
	return append(ops, LabelOp{
		Center:     geometry.Point2D{X: cw - scaleBarMargin - w/2, Y: ch - scaleBarMargin},
		Text:       attributionText,
		Color:      decorationColor,
		Background: labelBackColor,
	})
}

// niceLength rounds a length in meters down to the nearest 1/2/5 decade
// value so the scale bar reads as a round number.
func niceLength(m float64) float64 {
	if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return 1
	}
	exp := math.Floor(math.Log10(m))
	base := math.Pow(10, exp)
	switch frac := m / base; {
	case frac >= 5:
		return 5 * base
	case frac >= 2:
		return 2 * base
	default:
		return base
	}
}

func formatMeters(m float64) string {
	if m >= 1000 {
		km := m / 1000
		if km == math.Trunc(km) {
			return fmt.Sprintf("%.0f km", km)
		}
		return fmt.Sprintf("%.1f km", km)
	}
	return fmt.Sprintf("%.0f m", m)
}

func projectLine(proj *viewport.Projector, line []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(line))
	for i, p := range line {
		out[i] = proj.ToCanvas(p)
	}
	return out
}
