// Package mainwindow assembles the application window: map canvas, side
// panel, toolbar, and status bar.
package mainwindow

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"contour-atlas/internal/app"
	"contour-atlas/internal/export"
	"contour-atlas/internal/overlay"
	"contour-atlas/internal/version"
	"contour-atlas/pkg/geometry"
	mapcanvas "contour-atlas/ui/canvas"
	"contour-atlas/ui/dialogs"
	"contour-atlas/ui/panels"
	"contour-atlas/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Window is the application main window.
type Window struct {
	state  *app.State
	prefs  *prefs.Prefs
	window fyne.Window
	canvas *mapcanvas.MapCanvas
	status *widget.Label

	watcher *app.AssetWatcher
}

// New builds the main window over the application state.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *Window {
	w := &Window{
		state:  state,
		prefs:  p,
		window: fyneApp.NewWindow("Contour Atlas"),
		status: widget.NewLabel(fmt.Sprintf("Contour Atlas %s", version.Version)),
	}

	w.canvas = mapcanvas.New(state, dialogs.NewPrompter(w.window))
	w.canvas.OnStatus(func(msg string) { w.status.SetText(msg) })
	state.On(app.EventStatus, func(data interface{}) {
		if msg, ok := data.(string); ok {
			w.status.SetText(msg)
		}
	})
	state.On(app.EventSourcesChanged, func(interface{}) {
		w.status.SetText("contour sources reloaded")
	})

	panel := panels.NewLayersPanel(state, w.canvas)

	split := container.NewHSplit(w.canvas, panel.Object())
	split.Offset = 0.78

	content := container.NewBorder(w.toolbar(), w.status, nil, nil, split)
	w.window.SetContent(content)
	w.window.Resize(fyne.NewSize(p.WindowWidth, p.WindowHeight))
	w.window.SetOnClosed(func() {
		size := w.window.Canvas().Size()
		p.WindowWidth = size.Width
		p.WindowHeight = size.Height
		if err := p.Save(); err != nil {
			log.Printf("save preferences: %v", err)
		}
		if w.watcher != nil {
			w.watcher.Stop()
		}
	})

	if watcher, err := app.NewAssetWatcher(state); err != nil {
		log.Printf("asset watcher unavailable: %v", err)
	} else if err := watcher.Start(); err != nil {
		log.Printf("asset watcher: %v", err)
	} else {
		w.watcher = watcher
	}

	return w
}

// Show displays the window and runs the event loop.
func (w *Window) ShowAndRun() {
	w.window.ShowAndRun()
}

func (w *Window) toolbar() fyne.CanvasObject {
	return widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), w.importTrack),
		widget.NewToolbarAction(theme.ContentAddIcon(), w.addSource),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomInIcon(), w.canvas.ZoomIn),
		widget.NewToolbarAction(theme.ZoomOutIcon(), w.canvas.ZoomOut),
		widget.NewToolbarAction(theme.ZoomFitIcon(), w.canvas.FitSelected),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), w.canvas.FitAll),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), w.exportScene),
	)
}

// importTrack runs the GPX open dialog and adds the track as a layer.
func (w *Window) importTrack() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialogs.ShowError(err, w.window)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		w.state.ImportTrackAsync(path, func(layer *overlay.TrackLayer, stale bool, err error) {
			if stale {
				return
			}
			if err != nil {
				dialogs.ShowError(err, w.window)
				return
			}
			w.status.SetText(fmt.Sprintf("imported %s", layer.Name))
			w.canvas.FitSelected()
		})
	}, w.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".gpx"}))
	fd.Show()
}

// addSource offers the manifest's contour sources and loads the chosen one,
// clipped to the current combined bounds when tracks are present.
func (w *Window) addSource() {
	infos := w.state.Sources()
	if len(infos) == 0 {
		w.status.SetText("no contour sources available")
		return
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}

	sel := widget.NewSelect(names, nil)
	sel.SetSelectedIndex(0)
	withRoute := widget.NewCheck("Add bundled route as a track", nil)
	form := container.NewVBox(sel, withRoute)
	dialog.ShowCustomConfirm("Add contour source", "Add", "Cancel", form, func(ok bool) {
		if !ok || sel.SelectedIndex() < 0 {
			return
		}
		info := infos[sel.SelectedIndex()]
		w.state.AddSourceAsync(info, w.clipBounds(), func(stale bool, err error) {
			if stale {
				return
			}
			if err != nil {
				dialogs.ShowError(err, w.window)
				return
			}
			if withRoute.Checked {
				if _, err := w.state.AddDemoRoute(info); err != nil {
					dialogs.ShowError(err, w.window)
				}
			}
			w.status.SetText(fmt.Sprintf("added %s", info.Name))
			w.canvas.FitAll()
		})
	}, w.window)
}

// clipBounds returns the rectangle new contour sources are clipped to: the
// extent of the imported tracks, when any are visible.
func (w *Window) clipBounds() *geometry.Rect {
	if len(w.state.Store.TrackLayers()) == 0 {
		return nil
	}
	b := w.state.Store.CombinedBounds(false)
	return &b
}

// exportScene flattens the current view to a PNG in the export directory.
func (w *Window) exportScene() {
	dir := w.prefs.ExportDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, "Pictures")
		if _, err := os.Stat(dir); err != nil {
			dir = home
		}
	}

	cw, ch := w.canvas.ViewSize()
	path, err := w.state.ExportScene(dir, export.Options{
		Width:      cw,
		Height:     ch,
		Gesture:    w.canvas.Gesture(),
		PixelRatio: w.prefs.ExportRatio,
	})
	if err != nil {
		dialogs.ShowError(err, w.window)
		return
	}
	w.status.SetText(fmt.Sprintf("exported %s", path))
}
