// Package viewport maps between world coordinates and canvas pixels, and
// decides contour level-of-detail for the current zoom.
package viewport

import (
	"math"

	"contour-atlas/pkg/geometry"
)

const (
	// baselineZoomFactor starts default views zoomed into mountain-scale
	// detail instead of filling the whole world bounds.
	baselineZoomFactor = 2.4

	// fitPaddingFactor leaves a margin around a fitted rectangle.
	fitPaddingFactor = 0.92

	// MinScale and MaxScale clamp the user zoom range.
	MinScale = 0.2
	MaxScale = 48.0

	// contourDetailFactor treats contours as one notch more zoomed than
	// tracks and UI, so they read as fine detail rather than bulky blobs.
	contourDetailFactor = 1.35
)

// Projector converts world coordinates to canvas pixels for one frame. It is
// rebuilt per frame or gesture from the current world bounds, canvas size,
// and pan/zoom transform; it carries no state beyond those inputs.
//
// The base mapping fits the world bounds to the canvas (times the baseline
// zoom) and flips Y: world Y grows upward, canvas Y grows downward. The
// gesture transform then pans/zooms in canvas space.
type Projector struct {
	world   geometry.Rect
	scale   float64
	leftPad float64
	topPad  float64

	gesture    geometry.AffineTransform
	gestureInv geometry.AffineTransform
}

// New builds a projector for the given world bounds, canvas size, and
// canvas-space gesture transform. Degenerate bounds fall back to the unit
// rectangle and an unmeasured canvas to unit scale, so the projector never
// divides by zero.
func New(world geometry.Rect, canvasW, canvasH float64, gesture geometry.AffineTransform) *Projector {
	if world.IsEmpty() {
		world = geometry.UnitRect()
	}

	p := &Projector{world: world, gesture: gesture}
	if canvasW > 0 && canvasH > 0 {
		p.scale = math.Min(canvasW/world.Width(), canvasH/world.Height()) * baselineZoomFactor
		p.leftPad = (canvasW - world.Width()*p.scale) / 2
		p.topPad = (canvasH - world.Height()*p.scale) / 2
	} else {
		p.scale = 1
	}

	inv, ok := gesture.Inverse()
	if !ok {
		inv = geometry.Identity()
	}
	p.gestureInv = inv
	return p
}

// ToCanvas projects a world point to canvas pixels.
func (p *Projector) ToCanvas(pt geometry.Point2D) geometry.Point2D {
	base := geometry.Point2D{
		X: p.leftPad + (pt.X-p.world.MinX)*p.scale,
		Y: p.topPad + (p.world.MaxY-pt.Y)*p.scale,
	}
	return p.gesture.Apply(base)
}

// ToWorld is the exact inverse of ToCanvas.
func (p *Projector) ToWorld(pt geometry.Point2D) geometry.Point2D {
	base := p.gestureInv.Apply(pt)
	return geometry.Point2D{
		X: p.world.MinX + (base.X-p.leftPad)/p.scale,
		Y: p.world.MaxY - (base.Y-p.topPad)/p.scale,
	}
}

// GestureScale returns the zoom factor of the gesture transform.
func (p *Projector) GestureScale() float64 {
	return p.gesture.A
}

// PixelsPerMeter returns the combined canvas pixels per world meter.
func (p *Projector) PixelsPerMeter() float64 {
	return p.scale * p.gesture.A
}

// RenderScale returns the effective zoom used for contour LOD and stroke
// widths.
func (p *Projector) RenderScale() float64 {
	return p.gesture.A * contourDetailFactor
}

// FitTransform computes the gesture transform that centers target (world
// space) in the canvas, scaled to fit with padding and clamped to the zoom
// range. world is the bounds the base projector is built from. When the
// canvas has not been measured yet or the target is empty, the identity
// transform is returned.
func FitTransform(world, target geometry.Rect, canvasW, canvasH float64) geometry.AffineTransform {
	if canvasW <= 0 || canvasH <= 0 || target.IsEmpty() {
		return geometry.Identity()
	}

	base := New(world, canvasW, canvasH, geometry.Identity())

	// Canvas-space bounding rect of the target corners under the base fit.
	corners := []geometry.Point2D{
		base.ToCanvas(geometry.Point2D{X: target.MinX, Y: target.MinY}),
		base.ToCanvas(geometry.Point2D{X: target.MaxX, Y: target.MinY}),
		base.ToCanvas(geometry.Point2D{X: target.MinX, Y: target.MaxY}),
		base.ToCanvas(geometry.Point2D{X: target.MaxX, Y: target.MaxY}),
	}
	rect, _ := geometry.BoundsOf(corners)
	if rect.IsEmpty() {
		return geometry.Identity()
	}

	scale := math.Min(
		canvasW*fitPaddingFactor/rect.Width(),
		canvasH*fitPaddingFactor/rect.Height(),
	)
	scale = ClampScale(scale)

	center := rect.Center()
	return geometry.AffineTransform{
		A:  scale,
		D:  scale,
		TX: canvasW/2 - scale*center.X,
		TY: canvasH/2 - scale*center.Y,
	}
}

// ClampScale limits a zoom factor to the allowed range.
func ClampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}
