package annotate

import (
	"strings"

	"contour-atlas/internal/overlay"
	"contour-atlas/internal/viewport"
	"contour-atlas/pkg/geometry"
)

// Default canvas-pixel vector from a new note's anchor to its label center
// (right and up on screen). Converted to world units at creation time so the
// visual offset is roughly scale-invariant.
const (
	defaultLabelDX = 38.0
	defaultLabelDY = -34.0
)

// NoteAction is one of the choices offered when tapping an existing note.
type NoteAction int

const (
	NoteActionEdit NoteAction = iota
	NoteActionMove
	NoteActionDelete
)

// Prompter is the presentation capability the engine calls for modal
// round-trips. Implementations invoke done exactly once, with ok == false
// for cancellation. The engine guards against overlapping prompts itself;
// implementations need no reentrancy protection.
type Prompter interface {
	// PromptText asks for note text; initial pre-fills the field.
	PromptText(title, initial string, done func(text string, ok bool))
	// PromptNoteAction offers the edit/move/delete choice for a note.
	PromptNoteAction(note overlay.TrackNote, done func(action NoteAction, ok bool))
}

// Engine owns the note interaction state machine:
//
//	Idle -(tap on note)-> action prompt -> Idle or MoveReady
//	Idle -(tap on track)-> text prompt -> Idle
//	MoveReady -(drag from label)-> Dragging -(drag end)-> Idle
//
// It never mutates layers directly; every change goes through the store's
// update operations. Failed preconditions are reported as status strings,
// never as errors.
type Engine struct {
	store    *overlay.Store
	prompter Prompter
	sizer    LabelSizer

	// onChange is invoked after every successful mutation so the UI can
	// refresh; may be nil.
	onChange func()

	promptOpen bool

	moveReadyNoteID string

	dragging   bool
	dragNoteID string
	// dragGrab is the world vector from the pointer to the label center,
	// captured at drag start so the label doesn't jump under the finger.
	dragGrab geometry.Point2D
}

// NewEngine creates an engine bound to a store and a prompter.
func NewEngine(store *overlay.Store, prompter Prompter, sizer LabelSizer) *Engine {
	return &Engine{store: store, prompter: prompter, sizer: sizer}
}

// OnChange registers a callback fired after each mutation.
func (e *Engine) OnChange(fn func()) {
	e.onChange = fn
}

func (e *Engine) notifyChange() {
	if e.onChange != nil {
		e.onChange()
	}
}

// MoveReadyNote returns the id of the note armed for a label move, if any.
func (e *Engine) MoveReadyNote() (string, bool) {
	return e.moveReadyNoteID, e.moveReadyNoteID != ""
}

// Dragging reports whether a label drag is in progress.
func (e *Engine) Dragging() bool {
	return e.dragging
}

// Reset clears all transient interaction state. Called when the selection
// changes or note-editing mode ends.
func (e *Engine) Reset() {
	e.moveReadyNoteID = ""
	e.dragging = false
	e.dragNoteID = ""
}

// selectedEditableTrack checks the common preconditions and returns the
// target track, or a status string describing why the interaction is a
// no-op.
func (e *Engine) selectedEditableTrack() (*overlay.TrackLayer, string) {
	if e.promptOpen {
		return nil, "a note dialog is already open"
	}
	track := e.store.SelectedTrack()
	if track == nil {
		return nil, "no track selected"
	}
	if !track.Visible {
		return nil, "selected track is hidden"
	}
	if !e.store.NoteEditing() {
		return nil, "note editing is off"
	}
	return track, ""
}

// Tap handles a tap in note-editing mode: near an existing note it offers
// edit/move/delete, on the track it starts the add-note flow, elsewhere it
// reports no target. The returned status describes the outcome for the
// status bar.
func (e *Engine) Tap(proj *viewport.Projector, tap geometry.Point2D) string {
	track, status := e.selectedEditableTrack()
	if status != "" {
		return status
	}

	if hit := NearestNote(proj, track.Notes, tap, e.sizer); hit.Kind != TargetNone {
		e.promptNoteAction(track.ID, hit.Note)
		return "note: " + hit.Note.Text
	}

	anchor, _, ok := NearestTrackPoint(proj, track, tap)
	if !ok {
		return "no target near tap"
	}
	e.promptNewNote(proj, track.ID, anchor, tap)
	return "adding note"
}

// promptNewNote runs the add flow: ask for text, then create the note with a
// scale-invariant default label offset.
func (e *Engine) promptNewNote(proj *viewport.Projector, trackID string, anchor geometry.Point2D, tap geometry.Point2D) {
	e.promptOpen = true
	e.prompter.PromptText("New note", "", func(text string, ok bool) {
		e.promptOpen = false
		text = strings.TrimSpace(text)
		if !ok || text == "" {
			return
		}

		// Place the label a fixed pixel vector from the anchor and
		// convert through the projector so the world offset matches the
		// current zoom.
		anchorCanvas := proj.ToCanvas(anchor)
		labelCanvas := anchorCanvas.Add(geometry.Point2D{X: defaultLabelDX, Y: defaultLabelDY})
		offset := proj.ToWorld(labelCanvas).Sub(anchor)

		if _, added := e.store.AddNote(trackID, anchor, text, offset); added {
			e.notifyChange()
		}
	})
}

// promptNoteAction runs the edit/move/delete flow for an existing note.
func (e *Engine) promptNoteAction(trackID string, note overlay.TrackNote) {
	e.promptOpen = true
	e.prompter.PromptNoteAction(note, func(action NoteAction, ok bool) {
		e.promptOpen = false
		if !ok {
			return
		}
		switch action {
		case NoteActionEdit:
			e.promptEditNote(trackID, note)
		case NoteActionDelete:
			if e.store.RemoveNote(trackID, note.ID) {
				if e.moveReadyNoteID == note.ID {
					e.moveReadyNoteID = ""
				}
				e.notifyChange()
			}
		case NoteActionMove:
			// Arm move-ready; the actual move needs a drag that starts
			// inside the label so ordinary taps can't relocate it.
			e.moveReadyNoteID = note.ID
		}
	})
}

func (e *Engine) promptEditNote(trackID string, note overlay.TrackNote) {
	e.promptOpen = true
	e.prompter.PromptText("Edit note", note.Text, func(text string, ok bool) {
		e.promptOpen = false
		text = strings.TrimSpace(text)
		if !ok || text == "" {
			return
		}
		if e.store.SetNoteText(trackID, note.ID, text) {
			e.notifyChange()
		}
	})
}

// DragStart begins a label drag when a note is move-ready and the drag
// begins inside its inflated label rectangle. Returns a status string when
// the gesture cannot start.
func (e *Engine) DragStart(proj *viewport.Projector, start geometry.Point2D) string {
	track, status := e.selectedEditableTrack()
	if status != "" {
		return status
	}
	if e.moveReadyNoteID == "" {
		return "no note armed for moving"
	}

	note, ok := findNote(track.Notes, e.moveReadyNoteID)
	if !ok {
		e.moveReadyNoteID = ""
		return "armed note no longer exists"
	}

	rect := labelRect(proj, note, e.sizer, labelDragInflate)
	if !rect.Contains(start) {
		return "drag did not start on the label"
	}

	pointerWorld := proj.ToWorld(start)
	e.dragGrab = note.LabelCenter().Sub(pointerWorld)
	e.dragging = true
	e.dragNoteID = note.ID
	return "moving label: " + note.Text
}

// DragUpdate moves the dragged label: the new label center is the pointer's
// world position plus the grab vector, and the stored offset is the center
// relative to the fixed anchor.
func (e *Engine) DragUpdate(proj *viewport.Projector, pos geometry.Point2D) string {
	if !e.dragging {
		return "no label drag in progress"
	}
	track := e.store.SelectedTrack()
	if track == nil {
		return "no track selected"
	}
	note, ok := findNote(track.Notes, e.dragNoteID)
	if !ok {
		return "dragged note no longer exists"
	}

	center := proj.ToWorld(pos).Add(e.dragGrab)
	if e.store.SetNoteOffset(track.ID, note.ID, center.Sub(note.Anchor)) {
		e.notifyChange()
	}
	return ""
}

// DragEnd clears all transient drag and move-ready state.
func (e *Engine) DragEnd() {
	e.dragging = false
	e.dragNoteID = ""
	e.moveReadyNoteID = ""
}

func findNote(notes []overlay.TrackNote, id string) (overlay.TrackNote, bool) {
	for _, n := range notes {
		if n.ID == id {
			return n, true
		}
	}
	return overlay.TrackNote{}, false
}
