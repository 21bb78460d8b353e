// Package canvas provides the interactive map canvas: a software-rendered
// raster with pan, zoom, tap selection, and note-label dragging.
package canvas

import (
	"image"
	"image/color"

	"contour-atlas/internal/annotate"
	"contour-atlas/internal/app"
	"contour-atlas/internal/overlay"
	"contour-atlas/internal/render"
	"contour-atlas/internal/viewport"
	"contour-atlas/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const zoomStep = 1.25

var mapBackground = color.RGBA{R: 250, G: 248, B: 243, A: 255}

// MapCanvas renders the layer store through the viewport projector and turns
// pointer gestures into pan, zoom, selection, and note edits.
type MapCanvas struct {
	widget.BaseWidget

	state  *app.State
	engine *annotate.Engine

	raster *fynecanvas.Raster

	// Current pan/zoom gesture, composed with the base fit per frame.
	gesture geometry.AffineTransform

	// Last drawn size, used to build projectors for hit-testing.
	lastW, lastH int

	panning bool

	onStatus func(msg string)
}

// New creates a map canvas over the application state. The prompter supplies
// the modal dialogs the annotation engine needs.
func New(state *app.State, prompter annotate.Prompter) *MapCanvas {
	mc := &MapCanvas{
		state:   state,
		gesture: geometry.Identity(),
		lastW:   400,
		lastH:   300,
	}
	mc.engine = annotate.NewEngine(state.Store, prompter, render.MeasureLabel)
	mc.engine.OnChange(func() {
		state.Emit(app.EventNotesChanged, nil)
		mc.Refresh()
	})

	mc.raster = fynecanvas.NewRaster(mc.draw)
	mc.raster.ScaleMode = fynecanvas.ImageScalePixels

	state.On(app.EventLayersChanged, func(interface{}) { mc.Refresh() })
	state.On(app.EventSelectionChanged, func(interface{}) {
		mc.engine.Reset()
		mc.Refresh()
	})

	mc.ExtendBaseWidget(mc)
	return mc
}

// Engine exposes the annotation engine for panel wiring.
func (mc *MapCanvas) Engine() *annotate.Engine {
	return mc.engine
}

// Gesture returns the current pan/zoom transform, as needed for export.
func (mc *MapCanvas) Gesture() geometry.AffineTransform {
	return mc.gesture
}

// ViewSize returns the last rendered canvas size in pixels.
func (mc *MapCanvas) ViewSize() (w, h float64) {
	return float64(mc.lastW), float64(mc.lastH)
}

// OnStatus sets the status-bar callback for interaction feedback.
func (mc *MapCanvas) OnStatus(fn func(msg string)) {
	mc.onStatus = fn
}

func (mc *MapCanvas) status(msg string) {
	if msg != "" && mc.onStatus != nil {
		mc.onStatus(msg)
	}
}

// projector builds the world-to-canvas projector for the last drawn frame.
func (mc *MapCanvas) projector() *viewport.Projector {
	world := mc.state.Store.CombinedBounds(false)
	return viewport.New(world, float64(mc.lastW), float64(mc.lastH), mc.gesture)
}

// draw is the raster drawing function.
func (mc *MapCanvas) draw(w, h int) image.Image {
	if w < 1 || h < 1 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	mc.lastW, mc.lastH = w, h

	proj := mc.projector()
	ops := render.BuildScene(mc.state.Store, proj, float64(w), float64(h))
	return render.Rasterize(ops, w, h, mapBackground)
}

// Refresh redraws the raster.
func (mc *MapCanvas) Refresh() {
	mc.raster.Refresh()
}

// FitAll recenters the view on the union of all visible layers.
func (mc *MapCanvas) FitAll() {
	world := mc.state.Store.CombinedBounds(false)
	mc.gesture = viewport.FitTransform(world, world, float64(mc.lastW), float64(mc.lastH))
	mc.Refresh()
}

// FitSelected recenters the view on the selected layer, falling back to the
// full extent when nothing is selected.
func (mc *MapCanvas) FitSelected() {
	store := mc.state.Store
	world := store.CombinedBounds(false)
	target := world

	switch sel := store.Selection(); sel.Kind {
	case overlay.SelectionContour:
		if layer := store.ContourLayer(sel.LayerID); layer != nil {
			target = layer.Bounds
		}
	case overlay.SelectionTrack:
		if layer := store.TrackLayer(sel.LayerID); layer != nil {
			target = layer.Bounds.Inflate(overlay.TrackBoundsMargin)
		}
	}

	mc.gesture = viewport.FitTransform(world, target, float64(mc.lastW), float64(mc.lastH))
	mc.Refresh()
}

// zoomAt scales the gesture about a canvas point so the point under the
// cursor stays put.
func (mc *MapCanvas) zoomAt(p geometry.Point2D, factor float64) {
	scaled := viewport.ClampScale(mc.gesture.A * factor)
	factor = scaled / mc.gesture.A
	if factor == 1 {
		return
	}
	mc.gesture = geometry.AffineTransform{
		A:  mc.gesture.A * factor,
		D:  mc.gesture.D * factor,
		TX: mc.gesture.TX*factor + p.X*(1-factor),
		TY: mc.gesture.TY*factor + p.Y*(1-factor),
	}
	mc.Refresh()
}

// Scrolled zooms about the cursor with the mouse wheel.
func (mc *MapCanvas) Scrolled(ev *fyne.ScrollEvent) {
	p := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	if ev.Scrolled.DY > 0 {
		mc.zoomAt(p, zoomStep)
	} else if ev.Scrolled.DY < 0 {
		mc.zoomAt(p, 1/zoomStep)
	}
}

// ZoomIn zooms about the canvas center.
func (mc *MapCanvas) ZoomIn() {
	mc.zoomAt(geometry.Point2D{X: float64(mc.lastW) / 2, Y: float64(mc.lastH) / 2}, zoomStep)
}

// ZoomOut zooms out about the canvas center.
func (mc *MapCanvas) ZoomOut() {
	mc.zoomAt(geometry.Point2D{X: float64(mc.lastW) / 2, Y: float64(mc.lastH) / 2}, 1/zoomStep)
}

// Tapped handles taps: note interactions in note-editing mode, track
// selection otherwise.
func (mc *MapCanvas) Tapped(ev *fyne.PointEvent) {
	tap := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	proj := mc.projector()
	store := mc.state.Store

	if store.NoteEditing() {
		mc.status(mc.engine.Tap(proj, tap))
		mc.Refresh()
		return
	}

	// Outside note editing a tap selects the nearest track, or clears the
	// selection when nothing is close.
	for _, track := range store.TrackLayers() {
		if !track.Visible {
			continue
		}
		if _, _, ok := annotate.NearestTrackPoint(proj, track, tap); ok {
			mc.state.Select(overlay.SelectTrack(track.ID))
			return
		}
	}
	mc.state.Select(overlay.NoSelection())
}

// Dragged pans the view, or moves a note label when one is armed and the
// drag starts on it.
func (mc *MapCanvas) Dragged(ev *fyne.DragEvent) {
	pos := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	proj := mc.projector()

	if mc.engine.Dragging() {
		mc.engine.DragUpdate(proj, pos)
		return
	}

	if !mc.panning {
		if _, armed := mc.engine.MoveReadyNote(); armed {
			start := geometry.Point2D{
				X: pos.X - float64(ev.Dragged.DX),
				Y: pos.Y - float64(ev.Dragged.DY),
			}
			status := mc.engine.DragStart(proj, start)
			if mc.engine.Dragging() {
				mc.status(status)
				mc.engine.DragUpdate(proj, pos)
				return
			}
		}
		mc.panning = true
	}

	mc.gesture.TX += float64(ev.Dragged.DX)
	mc.gesture.TY += float64(ev.Dragged.DY)
	mc.Refresh()
}

// DragEnd finishes a pan or a label drag.
func (mc *MapCanvas) DragEnd() {
	if mc.engine.Dragging() {
		mc.engine.DragEnd()
	}
	mc.panning = false
}

// CreateRenderer implements fyne.Widget.
func (mc *MapCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(mc.raster)
}
