// Package annotate finds what a pointer is aiming at (track segments, note
// markers, note labels) and runs the add/edit/move/delete state machine for
// track notes.
package annotate

import (
	"contour-atlas/internal/overlay"
	"contour-atlas/internal/viewport"
	"contour-atlas/pkg/geometry"
)

// Pixel thresholds for accepting a hit.
const (
	TrackHitThreshold  = 24.0
	MarkerHitThreshold = 24.0
	LabelHitThreshold  = 16.0

	// Label hit rectangles are inflated more generously while a drag is
	// being started than during plain tap testing.
	labelTapInflate  = 12.0
	labelDragInflate = 16.0
)

// LabelSizer estimates the canvas-space width and height of a note label for
// the active font. The UI supplies it; tests use a fixed metric.
type LabelSizer func(text string) (w, h float64)

// TargetKind tags which part of a note a hit landed on.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetMarker
	TargetLabel
)

// NoteHit is the nearest note target to a pointer position.
type NoteHit struct {
	Note     overlay.TrackNote
	Kind     TargetKind
	Distance float64
}

// NearestTrackPoint finds the closest point on the track's polylines to a
// canvas-space tap, measuring in canvas pixels. It returns the world-space
// point, the canvas distance, and whether the distance is inside the track
// hit threshold.
func NearestTrackPoint(proj *viewport.Projector, track *overlay.TrackLayer, tap geometry.Point2D) (world geometry.Point2D, dist float64, ok bool) {
	bestSq := -1.0
	var best geometry.Point2D

	for _, line := range track.Polylines {
		if len(line) < 2 {
			continue
		}
		prev := proj.ToCanvas(line[0])
		for i := 1; i < len(line); i++ {
			cur := proj.ToCanvas(line[i])
			q, _ := geometry.NearestOnSegment(tap, prev, cur)
			if d := tap.DistanceSq(q); bestSq < 0 || d < bestSq {
				bestSq = d
				best = q
			}
			prev = cur
		}
	}

	if bestSq < 0 {
		return geometry.Point2D{}, 0, false
	}
	dist = tap.Distance(best)
	if dist > TrackHitThreshold {
		return geometry.Point2D{}, dist, false
	}
	return proj.ToWorld(best), dist, true
}

// labelRect returns a note label's canvas-space hit rectangle, inflated by
// the given margin.
func labelRect(proj *viewport.Projector, note overlay.TrackNote, sizer LabelSizer, inflate float64) geometry.Rect {
	center := proj.ToCanvas(note.LabelCenter())
	w, h := sizer(note.Text)
	return geometry.NewRect(
		center.X-w/2, center.Y-h/2,
		center.X+w/2, center.Y+h/2,
	).Inflate(inflate)
}

// NearestNote scans all visible notes and returns the globally closest
// marker or label target, applying the per-kind thresholds. Kind is
// TargetNone when nothing is close enough.
func NearestNote(proj *viewport.Projector, notes []overlay.TrackNote, tap geometry.Point2D, sizer LabelSizer) NoteHit {
	best := NoteHit{Kind: TargetNone, Distance: -1}

	consider := func(note overlay.TrackNote, kind TargetKind, dist float64) {
		if best.Distance < 0 || dist < best.Distance {
			best = NoteHit{Note: note, Kind: kind, Distance: dist}
		}
	}

	for _, note := range notes {
		if !note.Visible {
			continue
		}
		marker := proj.ToCanvas(note.Anchor)
		consider(note, TargetMarker, tap.Distance(marker))

		rect := labelRect(proj, note, sizer, labelTapInflate)
		consider(note, TargetLabel, rect.DistanceTo(tap))
	}

	switch best.Kind {
	case TargetMarker:
		if best.Distance > MarkerHitThreshold {
			return NoteHit{Kind: TargetNone, Distance: best.Distance}
		}
	case TargetLabel:
		if best.Distance > LabelHitThreshold {
			return NoteHit{Kind: TargetNone, Distance: best.Distance}
		}
	}
	return best
}
