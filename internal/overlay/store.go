package overlay

import (
	"fmt"
	"sync"

	"contour-atlas/pkg/geometry"
)

// TrackBoundsMargin is the world-space inflation (meters) applied to track
// bounds when aggregating view bounds, so a short track still reserves a
// sensible viewing area around itself.
const TrackBoundsMargin = 400.0

// Store owns every layer and note record. All mutation is copy-on-write at
// single-layer granularity: a changed layer is rebuilt and swapped into the
// collection, never edited in place, so the renderer and hit-tester can hold
// a snapshot without observing torn state. The store is the single writer;
// other components only read and request mutations through its methods.
type Store struct {
	mu sync.RWMutex

	baseBounds geometry.Rect
	hasBase    bool

	contours []*ContourLayer
	tracks   []*TrackLayer

	selection   Selection
	noteEditing bool

	hiddenDecorations map[DecorationKind]bool

	nextID int
}

// NewStore creates an empty layer store.
func NewStore() *Store {
	return &Store{
		hiddenDecorations: make(map[DecorationKind]bool),
	}
}

// SetBaseBounds records the base dataset bounds included in combined-bounds
// aggregation.
func (s *Store) SetBaseBounds(b geometry.Rect) {
	s.mu.Lock()
	s.baseBounds = b
	s.hasBase = !b.IsEmpty()
	s.mu.Unlock()
}

// HasSource reports whether a contour layer for the source id already exists.
func (s *Store) HasSource(sourceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.contours {
		if l.SourceID == sourceID {
			return true
		}
	}
	return false
}

// AddContourLayer creates a layer from a loaded contour set. The source id is
// the natural key: when a layer for it already exists, that layer is returned
// with added == false.
func (s *Store) AddContourLayer(sourceID, name string, set *ContourSet) (layer *ContourLayer, added bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.contours {
		if l.SourceID == sourceID {
			return l, false
		}
	}

	s.nextID++
	layer = &ContourLayer{
		ID:       fmt.Sprintf("contour-%d", s.nextID),
		SourceID: sourceID,
		Name:     name,
		Bounds:   set.Bounds,
		Lines:    set.Lines,
		Visible:  true,
		Style:    DefaultContourStyle(),
	}
	s.contours = append(s.contours, layer)
	return layer, true
}

// AddTrackLayer creates a track layer from imported polylines.
func (s *Store) AddTrackLayer(name string, polylines [][]geometry.Point2D) *TrackLayer {
	bounds, ok := geometry.BoundsOfLines(polylines)
	if !ok {
		bounds = geometry.UnitRect()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	layer := &TrackLayer{
		ID:        fmt.Sprintf("track-%d", s.nextID),
		Name:      name,
		Polylines: polylines,
		Bounds:    bounds,
		Visible:   true,
		Style:     DefaultTrackStyle(),
	}
	s.tracks = append(s.tracks, layer)
	return layer
}

// RemoveLayer deletes a layer by id. Removing the selected layer clears the
// selection; if it was the selected track, note editing ends with it.
func (s *Store) RemoveLayer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.contours {
		if l.ID == id {
			s.contours = append(s.contours[:i], s.contours[i+1:]...)
			s.clearSelectionIfLocked(id)
			return true
		}
	}
	for i, l := range s.tracks {
		if l.ID == id {
			s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
			s.clearSelectionIfLocked(id)
			return true
		}
	}
	return false
}

func (s *Store) clearSelectionIfLocked(id string) {
	if s.selection.LayerID != id {
		return
	}
	if s.selection.Kind == SelectionTrack {
		s.noteEditing = false
	}
	s.selection = NoSelection()
}

// ContourLayers returns a snapshot of the contour layer list.
func (s *Store) ContourLayers() []*ContourLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*ContourLayer(nil), s.contours...)
}

// TrackLayers returns a snapshot of the track layer list.
func (s *Store) TrackLayers() []*TrackLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*TrackLayer(nil), s.tracks...)
}

// ContourLayer returns the contour layer with the given id, or nil.
func (s *Store) ContourLayer(id string) *ContourLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.contours {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// TrackLayer returns the track layer with the given id, or nil.
func (s *Store) TrackLayer(id string) *TrackLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trackLocked(id)
}

func (s *Store) trackLocked(id string) *TrackLayer {
	for _, l := range s.tracks {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// SetLayerVisible toggles a layer's visibility via whole-record replacement.
func (s *Store) SetLayerVisible(id string, visible bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.contours {
		if l.ID == id {
			updated := *l
			updated.Visible = visible
			s.contours[i] = &updated
			return true
		}
	}
	for i, l := range s.tracks {
		if l.ID == id {
			updated := *l
			updated.Visible = visible
			s.tracks[i] = &updated
			return true
		}
	}
	return false
}

// SetLayerStyle replaces a layer's style via whole-record replacement.
func (s *Store) SetLayerStyle(id string, style LayerStyle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.contours {
		if l.ID == id {
			updated := *l
			updated.Style = style
			s.contours[i] = &updated
			return true
		}
	}
	for i, l := range s.tracks {
		if l.ID == id {
			updated := *l
			updated.Style = style
			s.tracks[i] = &updated
			return true
		}
	}
	return false
}

// AddNote appends a note to a track layer. The anchor is fixed for the note's
// lifetime. Returns the stored note with its assigned id.
func (s *Store) AddNote(trackID string, anchor geometry.Point2D, text string, labelOffset geometry.Point2D) (TrackNote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.tracks {
		if l.ID != trackID {
			continue
		}
		s.nextID++
		note := TrackNote{
			ID:          fmt.Sprintf("note-%d", s.nextID),
			Anchor:      anchor,
			Text:        text,
			LabelOffset: labelOffset,
			Visible:     true,
		}
		updated := *l
		updated.Notes = append(append([]TrackNote(nil), l.Notes...), note)
		s.tracks[i] = &updated
		return note, true
	}
	return TrackNote{}, false
}

// updateNote rewrites one note through fn, copy-on-write on the whole layer.
func (s *Store) updateNote(trackID, noteID string, fn func(TrackNote) TrackNote) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.tracks {
		if l.ID != trackID {
			continue
		}
		for j, n := range l.Notes {
			if n.ID != noteID {
				continue
			}
			updated := *l
			updated.Notes = append([]TrackNote(nil), l.Notes...)
			updated.Notes[j] = fn(n)
			s.tracks[i] = &updated
			return true
		}
		return false
	}
	return false
}

// SetNoteText replaces a note's text.
func (s *Store) SetNoteText(trackID, noteID, text string) bool {
	return s.updateNote(trackID, noteID, func(n TrackNote) TrackNote {
		n.Text = text
		return n
	})
}

// SetNoteOffset replaces a note's label offset. The anchor never moves.
func (s *Store) SetNoteOffset(trackID, noteID string, offset geometry.Point2D) bool {
	return s.updateNote(trackID, noteID, func(n TrackNote) TrackNote {
		n.LabelOffset = offset
		return n
	})
}

// SetNoteVisible toggles a note's visibility.
func (s *Store) SetNoteVisible(trackID, noteID string, visible bool) bool {
	return s.updateNote(trackID, noteID, func(n TrackNote) TrackNote {
		n.Visible = visible
		return n
	})
}

// RemoveNote deletes a note from a track layer.
func (s *Store) RemoveNote(trackID, noteID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.tracks {
		if l.ID != trackID {
			continue
		}
		for j, n := range l.Notes {
			if n.ID != noteID {
				continue
			}
			updated := *l
			updated.Notes = append([]TrackNote(nil), l.Notes[:j]...)
			updated.Notes = append(updated.Notes, l.Notes[j+1:]...)
			s.tracks[i] = &updated
			return true
		}
		return false
	}
	return false
}

// Select replaces the current selection. Moving the selection off a track
// exits note-editing mode.
func (s *Store) Select(sel Selection) {
	s.mu.Lock()
	if sel != s.selection {
		s.noteEditing = false
	}
	s.selection = sel
	s.mu.Unlock()
}

// Selection returns the current selection.
func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// SelectedTrack returns the selected track layer, or nil when the selection
// is not a track.
func (s *Store) SelectedTrack() *TrackLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selection.Kind != SelectionTrack {
		return nil
	}
	return s.trackLocked(s.selection.LayerID)
}

// SetNoteEditing arms or disarms note-editing mode. Arming requires a track
// selection.
func (s *Store) SetNoteEditing(on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on && s.selection.Kind != SelectionTrack {
		return false
	}
	s.noteEditing = on
	return true
}

// NoteEditing reports whether note-editing mode is active.
func (s *Store) NoteEditing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.noteEditing
}

// SetDecorationVisible toggles a scene decoration (scale bar, attribution).
func (s *Store) SetDecorationVisible(kind DecorationKind, visible bool) {
	s.mu.Lock()
	s.hiddenDecorations[kind] = !visible
	s.mu.Unlock()
}

// DecorationVisible reports whether a decoration is shown. Decorations
// default to visible.
func (s *Store) DecorationVisible(kind DecorationKind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.hiddenDecorations[kind]
}

// CombinedBounds unions the base dataset bounds, contour layer bounds, and
// track layer bounds (each track inflated by TrackBoundsMargin). Hidden
// layers are skipped unless includeHidden is set. An empty store yields the
// canonical unit rectangle.
func (s *Store) CombinedBounds(includeHidden bool) geometry.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var acc geometry.Rect
	have := false

	union := func(b geometry.Rect) {
		if b.IsEmpty() {
			return
		}
		if !have {
			acc = b
			have = true
		} else {
			acc = acc.Union(b)
		}
	}

	if s.hasBase {
		union(s.baseBounds)
	}
	for _, l := range s.contours {
		if l.Visible || includeHidden {
			union(l.Bounds)
		}
	}
	for _, l := range s.tracks {
		if l.Visible || includeHidden {
			union(l.Bounds.Inflate(TrackBoundsMargin))
		}
	}

	if !have {
		return geometry.UnitRect()
	}
	return acc
}
