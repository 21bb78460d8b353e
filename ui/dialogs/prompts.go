// Package dialogs provides application dialogs, including the modal prompts
// the annotation engine drives.
package dialogs

import (
	"contour-atlas/internal/annotate"
	"contour-atlas/internal/overlay"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// Prompter shows fyne dialogs for the annotation engine's text and action
// round-trips. Each prompt invokes its done callback exactly once.
type Prompter struct {
	window fyne.Window
}

// NewPrompter creates a prompter bound to the main window.
func NewPrompter(window fyne.Window) *Prompter {
	return &Prompter{window: window}
}

// PromptText asks for note text; initial pre-fills the entry.
func (p *Prompter) PromptText(title, initial string, done func(text string, ok bool)) {
	entry := widget.NewEntry()
	entry.SetText(initial)
	entry.SetPlaceHolder("Note text")

	items := []*widget.FormItem{widget.NewFormItem("Text", entry)}
	dlg := dialog.NewForm(title, "OK", "Cancel", items, func(ok bool) {
		done(entry.Text, ok)
	}, p.window)
	dlg.Resize(fyne.NewSize(360, 140))
	dlg.Show()
	p.window.Canvas().Focus(entry)
}

// PromptNoteAction offers the edit/move/delete choice for an existing note.
func (p *Prompter) PromptNoteAction(note overlay.TrackNote, done func(action annotate.NoteAction, ok bool)) {
	var (
		dlg      *dialog.CustomDialog
		answered bool
		action   annotate.NoteAction
	)

	choose := func(a annotate.NoteAction) func() {
		return func() {
			answered = true
			action = a
			dlg.Hide()
		}
	}

	edit := widget.NewButton("Edit text", choose(annotate.NoteActionEdit))
	move := widget.NewButton("Move label", choose(annotate.NoteActionMove))
	del := widget.NewButton("Delete note", choose(annotate.NoteActionDelete))
	del.Importance = widget.DangerImportance

	dlg = dialog.NewCustom("Note: "+note.Text, "Cancel", container.NewVBox(edit, move, del), p.window)
	dlg.SetOnClosed(func() {
		done(action, answered)
	})
	dlg.Show()
}

// ShowError displays an error dialog.
func ShowError(err error, window fyne.Window) {
	dialog.ShowError(err, window)
}
