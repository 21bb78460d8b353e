// Package overlay holds the layer data model shared by the renderer, the
// hit-testing engine, and the UI: contour layers loaded from baked datasets
// and track layers imported from GPX, all in unified-grid world coordinates.
package overlay

import (
	"image/color"

	"contour-atlas/pkg/geometry"
)

// ContourLine is a single elevation contour, immutable once loaded.
// Elevation may be negative (below the reference surface); Major marks
// index contours that stay visible when zoomed out.
type ContourLine struct {
	Elevation int
	Major     bool
	Points    []geometry.Point2D
	Bounds    geometry.Rect // cached at load time for clipping
}

// ContourSet is the decoded geometry of one contour source.
type ContourSet struct {
	Bounds geometry.Rect
	Lines  []ContourLine

	// Route is an optional pre-projected demo track bundled with some
	// datasets; it is ignored unless the user asks to add it as a layer.
	Route [][]geometry.Point2D
}

// LayerStyle describes how a layer's strokes are drawn.
type LayerStyle struct {
	Color       color.RGBA
	StrokeWidth float64
	Opacity     float64
}

// DefaultContourStyle returns the style new contour layers start with.
func DefaultContourStyle() LayerStyle {
	return LayerStyle{
		Color:       color.RGBA{R: 150, G: 104, B: 60, A: 255},
		StrokeWidth: 1.0,
		Opacity:     0.85,
	}
}

// DefaultTrackStyle returns the style new track layers start with.
func DefaultTrackStyle() LayerStyle {
	return LayerStyle{
		Color:       color.RGBA{R: 214, G: 48, B: 49, A: 255},
		StrokeWidth: 3.0,
		Opacity:     1.0,
	}
}

// ContourLayer is one loaded contour source. Records are treated as
// immutable: style and visibility changes go through the store, which
// replaces the whole record.
type ContourLayer struct {
	ID       string
	SourceID string
	Name     string
	Bounds   geometry.Rect
	Lines    []ContourLine
	Visible  bool
	Style    LayerStyle
}

// TrackNote is a user annotation pinned to a track. Anchor is assigned once
// at creation and never moves along the track; only LabelOffset (the world
// vector from the anchor to the label center) changes when the user drags
// the label.
type TrackNote struct {
	ID          string
	Anchor      geometry.Point2D
	Text        string
	LabelOffset geometry.Point2D
	Visible     bool
}

// LabelCenter returns the note label's world-space center.
func (n TrackNote) LabelCenter() geometry.Point2D {
	return n.Anchor.Add(n.LabelOffset)
}

// TrackLayer is one imported GPS track. Polylines holds the disjoint track
// segments of the source document. As with ContourLayer, records are
// replaced wholesale on mutation.
type TrackLayer struct {
	ID        string
	Name      string
	Polylines [][]geometry.Point2D
	Bounds    geometry.Rect
	Notes     []TrackNote
	Visible   bool
	Style     LayerStyle
}

// DecorationKind identifies a non-layer scene decoration.
type DecorationKind int

const (
	DecorationScaleBar DecorationKind = iota
	DecorationAttribution
)

// SelectionKind discriminates the selection sum type.
type SelectionKind int

const (
	SelectionNone SelectionKind = iota
	SelectionContour
	SelectionTrack
	SelectionDecoration
)

// Selection identifies at most one selected target: nothing, a contour layer,
// a track layer, or a decoration.
type Selection struct {
	Kind       SelectionKind
	LayerID    string
	Decoration DecorationKind
}

// NoSelection returns the empty selection.
func NoSelection() Selection {
	return Selection{Kind: SelectionNone}
}

// SelectTrack returns a selection of the given track layer.
func SelectTrack(id string) Selection {
	return Selection{Kind: SelectionTrack, LayerID: id}
}

// SelectContour returns a selection of the given contour layer.
func SelectContour(id string) Selection {
	return Selection{Kind: SelectionContour, LayerID: id}
}
