package annotate

import (
	"testing"

	"contour-atlas/internal/overlay"
	"contour-atlas/internal/viewport"
	"contour-atlas/pkg/geometry"
)

func fixedSizer(text string) (float64, float64) {
	return float64(len(text)) * 8, 16
}

type textResp struct {
	text string
	ok   bool
}

type actionResp struct {
	action NoteAction
	ok     bool
}

// fakePrompter answers prompts from queues; with hold set it keeps the
// dialog "open" by never invoking done.
type fakePrompter struct {
	texts   []textResp
	actions []actionResp
	hold    bool
}

func (f *fakePrompter) PromptText(title, initial string, done func(string, bool)) {
	if f.hold {
		return
	}
	r := f.texts[0]
	f.texts = f.texts[1:]
	done(r.text, r.ok)
}

func (f *fakePrompter) PromptNoteAction(note overlay.TrackNote, done func(NoteAction, bool)) {
	if f.hold {
		return
	}
	r := f.actions[0]
	f.actions = f.actions[1:]
	done(r.action, r.ok)
}

type fixture struct {
	store    *overlay.Store
	track    *overlay.TrackLayer
	proj     *viewport.Projector
	prompter *fakePrompter
	engine   *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := overlay.NewStore()
	track := store.AddTrackLayer("hike", [][]geometry.Point2D{
		{{X: 20, Y: 50}, {X: 80, Y: 50}},
	})
	store.Select(overlay.SelectTrack(track.ID))
	store.SetNoteEditing(true)

	prompter := &fakePrompter{}
	return &fixture{
		store:    store,
		track:    track,
		proj:     viewport.New(geometry.NewRect(0, 0, 100, 100), 240, 240, geometry.Identity()),
		prompter: prompter,
		engine:   NewEngine(store, prompter, fixedSizer),
	}
}

func (f *fixture) currentTrack() *overlay.TrackLayer {
	return f.store.TrackLayer(f.track.ID)
}

func TestNearestTrackPointMidpoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	mid := geometry.Point2D{X: 50, Y: 50}
	tap := f.proj.ToCanvas(mid)

	world, dist, ok := NearestTrackPoint(f.proj, f.track, tap)
	if !ok {
		t.Fatal("midpoint tap rejected")
	}
	if dist != 0 {
		t.Errorf("distance = %v, want 0", dist)
	}
	if world.Distance(mid) > 1e-9 {
		t.Errorf("world point = %v, want %v", world, mid)
	}
}

func TestNearestTrackPointThreshold(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	// A tap slightly inside the threshold is accepted, slightly outside is
	// not.
	on := f.proj.ToCanvas(geometry.Point2D{X: 50, Y: 50})

	near := on.Add(geometry.Point2D{X: 0, Y: TrackHitThreshold - 1})
	if _, _, ok := NearestTrackPoint(f.proj, f.track, near); !ok {
		t.Error("tap inside threshold rejected")
	}

	far := on.Add(geometry.Point2D{X: 0, Y: TrackHitThreshold + 1})
	if _, dist, ok := NearestTrackPoint(f.proj, f.track, far); ok {
		t.Errorf("tap outside threshold accepted at distance %v", dist)
	}
}

func TestNearestNoteTargets(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	note, _ := f.store.AddNote(f.track.ID, geometry.Point2D{X: 30, Y: 50}, "camp", geometry.Point2D{X: 8, Y: 6})
	notes := f.currentTrack().Notes

	// Dead-on the marker.
	markerTap := f.proj.ToCanvas(note.Anchor)
	hit := NearestNote(f.proj, notes, markerTap, fixedSizer)
	if hit.Kind != TargetMarker {
		t.Errorf("marker tap hit %v, want TargetMarker", hit.Kind)
	}

	// Dead-on the label center.
	labelTap := f.proj.ToCanvas(note.LabelCenter())
	hit = NearestNote(f.proj, notes, labelTap, fixedSizer)
	if hit.Kind != TargetLabel {
		t.Errorf("label tap hit %v, want TargetLabel", hit.Kind)
	}

	// Far away.
	hit = NearestNote(f.proj, notes, geometry.Point2D{X: -500, Y: -500}, fixedSizer)
	if hit.Kind != TargetNone {
		t.Errorf("distant tap hit %v, want TargetNone", hit.Kind)
	}

	// Hidden notes are not hit.
	f.store.SetNoteVisible(f.track.ID, note.ID, false)
	hit = NearestNote(f.proj, f.currentTrack().Notes, markerTap, fixedSizer)
	if hit.Kind != TargetNone {
		t.Errorf("hidden note was hit: %v", hit.Kind)
	}
}

func TestTapAddsNote(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.prompter.texts = []textResp{{text: "  water cache  ", ok: true}}

	anchor := geometry.Point2D{X: 50, Y: 50}
	f.engine.Tap(f.proj, f.proj.ToCanvas(anchor))

	notes := f.currentTrack().Notes
	if len(notes) != 1 {
		t.Fatalf("got %d notes, want 1", len(notes))
	}
	if notes[0].Text != "water cache" {
		t.Errorf("text = %q, want trimmed %q", notes[0].Text, "water cache")
	}
	if notes[0].Anchor.Distance(anchor) > 1e-9 {
		t.Errorf("anchor = %v, want %v", notes[0].Anchor, anchor)
	}

	// The default label offset is the fixed pixel vector converted to
	// world units (canvas Y down becomes world Y up).
	ppm := f.proj.PixelsPerMeter()
	wantOffset := geometry.Point2D{X: defaultLabelDX / ppm, Y: -defaultLabelDY / ppm}
	if notes[0].LabelOffset.Distance(wantOffset) > 1e-9 {
		t.Errorf("label offset = %v, want %v", notes[0].LabelOffset, wantOffset)
	}
}

func TestTapEmptyTextIsNoOp(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.prompter.texts = []textResp{{text: "   ", ok: true}}
	f.engine.Tap(f.proj, f.proj.ToCanvas(geometry.Point2D{X: 50, Y: 50}))
	if n := len(f.currentTrack().Notes); n != 0 {
		t.Errorf("%d notes created from blank text", n)
	}
}

func TestTapAwayFromTrack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	status := f.engine.Tap(f.proj, geometry.Point2D{X: -900, Y: -900})
	if status != "no target near tap" {
		t.Errorf("status = %q", status)
	}
}

func TestTapPreconditions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tap := f.proj.ToCanvas(geometry.Point2D{X: 50, Y: 50})

	// Note editing off.
	f.store.SetNoteEditing(false)
	if status := f.engine.Tap(f.proj, tap); status != "note editing is off" {
		t.Errorf("status = %q", status)
	}
	f.store.SetNoteEditing(true)

	// Hidden track.
	f.store.SetLayerVisible(f.track.ID, false)
	if status := f.engine.Tap(f.proj, tap); status != "selected track is hidden" {
		t.Errorf("status = %q", status)
	}
	f.store.SetLayerVisible(f.track.ID, true)

	// No selection.
	f.store.Select(overlay.NoSelection())
	if status := f.engine.Tap(f.proj, tap); status != "no track selected" {
		t.Errorf("status = %q", status)
	}
}

func TestOverlappingPromptGuard(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.prompter.hold = true // dialog stays open

	tap := f.proj.ToCanvas(geometry.Point2D{X: 50, Y: 50})
	f.engine.Tap(f.proj, tap)

	if status := f.engine.Tap(f.proj, tap); status != "a note dialog is already open" {
		t.Errorf("second tap status = %q", status)
	}
}

func TestEditAndDeleteFlows(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	note, _ := f.store.AddNote(f.track.ID, geometry.Point2D{X: 30, Y: 50}, "camp", geometry.Point2D{X: 5, Y: 5})
	tap := f.proj.ToCanvas(note.Anchor)

	// Edit with valid replacement text.
	f.prompter.actions = []actionResp{{action: NoteActionEdit, ok: true}}
	f.prompter.texts = []textResp{{text: "camp 2", ok: true}}
	f.engine.Tap(f.proj, tap)
	if got := f.currentTrack().Notes[0].Text; got != "camp 2" {
		t.Errorf("text after edit = %q", got)
	}

	// Edit resulting in blank text is a no-op.
	f.prompter.actions = []actionResp{{action: NoteActionEdit, ok: true}}
	f.prompter.texts = []textResp{{text: "", ok: true}}
	f.engine.Tap(f.proj, tap)
	if got := f.currentTrack().Notes[0].Text; got != "camp 2" {
		t.Errorf("blank edit changed text to %q", got)
	}

	// Delete removes the note.
	f.prompter.actions = []actionResp{{action: NoteActionDelete, ok: true}}
	f.engine.Tap(f.proj, tap)
	if n := len(f.currentTrack().Notes); n != 0 {
		t.Errorf("%d notes left after delete", n)
	}
}

func TestMoveDragFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	note, _ := f.store.AddNote(f.track.ID, geometry.Point2D{X: 30, Y: 50}, "camp", geometry.Point2D{X: 8, Y: 6})
	before := f.currentTrack().Notes[0].LabelOffset

	// A drag without arming move is refused.
	labelCanvas := f.proj.ToCanvas(note.LabelCenter())
	if status := f.engine.DragStart(f.proj, labelCanvas); status != "no note armed for moving" {
		t.Fatalf("unarmed drag status = %q", status)
	}

	// Arm move via the action prompt.
	f.prompter.actions = []actionResp{{action: NoteActionMove, ok: true}}
	f.engine.Tap(f.proj, f.proj.ToCanvas(note.Anchor))
	if _, armed := f.engine.MoveReadyNote(); !armed {
		t.Fatal("note not armed after move action")
	}

	// A drag starting away from the label is a no-op and stays armed.
	if status := f.engine.DragStart(f.proj, geometry.Point2D{X: -400, Y: -400}); status != "drag did not start on the label" {
		t.Fatalf("off-label drag status = %q", status)
	}
	if _, armed := f.engine.MoveReadyNote(); !armed {
		t.Fatal("arming lost after refused drag")
	}

	// Scenario E: drag the label by world vector (10, 5).
	if status := f.engine.DragStart(f.proj, labelCanvas); status == "no note armed for moving" {
		t.Fatalf("drag start failed: %q", status)
	}
	ppm := f.proj.PixelsPerMeter()
	target := labelCanvas.Add(geometry.Point2D{X: 10 * ppm, Y: -5 * ppm})
	if status := f.engine.DragUpdate(f.proj, target); status != "" {
		t.Fatalf("drag update status = %q", status)
	}
	f.engine.DragEnd()

	after := f.currentTrack().Notes[0]
	wantOffset := before.Add(geometry.Point2D{X: 10, Y: 5})
	if after.LabelOffset.Distance(wantOffset) > 1e-6 {
		t.Errorf("offset = %v, want %v", after.LabelOffset, wantOffset)
	}
	if after.Anchor != note.Anchor {
		t.Errorf("anchor moved to %v", after.Anchor)
	}

	// Drag state fully cleared.
	if _, armed := f.engine.MoveReadyNote(); armed {
		t.Error("note still armed after drag end")
	}
	if status := f.engine.DragUpdate(f.proj, target); status != "no label drag in progress" {
		t.Errorf("post-drag update status = %q", status)
	}
}
