// Package panels provides the side panel: layer list, style controls, and
// scene toggles.
package panels

import (
	"fmt"
	"image/color"

	"contour-atlas/internal/app"
	"contour-atlas/internal/overlay"
	mapcanvas "contour-atlas/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// layerRow is one entry of the flattened layer list, contour layers first.
type layerRow struct {
	id      string
	name    string
	isTrack bool
	visible bool
}

// LayersPanel lists layers with visibility toggles and exposes the selected
// layer's style controls.
type LayersPanel struct {
	state  *app.State
	canvas *mapcanvas.MapCanvas

	rows []layerRow
	list *widget.List

	strokeSlider  *widget.Slider
	opacitySlider *widget.Slider
	styleCard     *widget.Card

	noteEditCheck *widget.Check
	removeButton  *widget.Button

	object fyne.CanvasObject
}

// NewLayersPanel builds the panel and subscribes it to state changes.
func NewLayersPanel(state *app.State, canvas *mapcanvas.MapCanvas) *LayersPanel {
	p := &LayersPanel{state: state, canvas: canvas}

	p.list = widget.NewList(
		func() int { return len(p.rows) },
		func() fyne.CanvasObject {
			check := widget.NewCheck("", nil)
			label := widget.NewLabel("layer")
			return container.NewBorder(nil, nil, check, nil, label)
		},
		func(i widget.ListItemID, item fyne.CanvasObject) {
			if i >= len(p.rows) {
				return
			}
			row := p.rows[i]
			border := item.(*fyne.Container)
			check := border.Objects[1].(*widget.Check)
			label := border.Objects[0].(*widget.Label)

			label.SetText(row.name)
			check.OnChanged = nil
			check.SetChecked(row.visible)
			check.OnChanged = func(on bool) {
				state.Store.SetLayerVisible(row.id, on)
				p.reload()
				canvas.Refresh()
			}
		},
	)
	p.list.OnSelected = func(i widget.ListItemID) {
		if i >= len(p.rows) {
			return
		}
		row := p.rows[i]
		if row.isTrack {
			state.Select(overlay.SelectTrack(row.id))
		} else {
			state.Select(overlay.SelectContour(row.id))
		}
	}

	p.strokeSlider = widget.NewSlider(0.2, 8.0)
	p.strokeSlider.Step = 0.2
	p.strokeSlider.OnChanged = func(v float64) { p.updateStyle(func(s *overlay.LayerStyle) { s.StrokeWidth = v }) }

	p.opacitySlider = widget.NewSlider(0.1, 1.0)
	p.opacitySlider.Step = 0.05
	p.opacitySlider.OnChanged = func(v float64) { p.updateStyle(func(s *overlay.LayerStyle) { s.Opacity = v }) }

	p.styleCard = widget.NewCard("Style", "", widget.NewForm(
		widget.NewFormItem("Stroke", p.strokeSlider),
		widget.NewFormItem("Opacity", p.opacitySlider),
	))

	p.noteEditCheck = widget.NewCheck("Edit track notes", func(on bool) {
		if !state.Store.SetNoteEditing(on) && on {
			state.Status("select a track before editing notes")
			p.noteEditCheck.SetChecked(false)
			return
		}
		canvas.Engine().Reset()
	})

	p.removeButton = widget.NewButton("Remove layer", func() {
		if sel := state.Store.Selection(); sel.LayerID != "" {
			state.RemoveLayer(sel.LayerID)
		}
	})

	scaleBarCheck := widget.NewCheck("Scale bar", func(on bool) {
		state.Store.SetDecorationVisible(overlay.DecorationScaleBar, on)
		canvas.Refresh()
	})
	scaleBarCheck.SetChecked(true)
	attributionCheck := widget.NewCheck("Attribution", func(on bool) {
		state.Store.SetDecorationVisible(overlay.DecorationAttribution, on)
		canvas.Refresh()
	})
	attributionCheck.SetChecked(true)

	p.object = container.NewBorder(
		widget.NewCard("Layers", "", nil),
		container.NewVBox(
			p.styleCard,
			p.noteEditCheck,
			scaleBarCheck,
			attributionCheck,
			p.removeButton,
		),
		nil, nil,
		p.list,
	)

	state.On(app.EventLayersChanged, func(interface{}) { p.reload() })
	state.On(app.EventSelectionChanged, func(interface{}) { p.syncSelection() })

	p.reload()
	return p
}

// Object returns the panel's root canvas object for embedding in layouts.
func (p *LayersPanel) Object() fyne.CanvasObject {
	return p.object
}

func (p *LayersPanel) reload() {
	rows := make([]layerRow, 0)
	for _, l := range p.state.Store.ContourLayers() {
		rows = append(rows, layerRow{id: l.ID, name: l.Name, visible: l.Visible})
	}
	for _, l := range p.state.Store.TrackLayers() {
		name := fmt.Sprintf("%s (track)", l.Name)
		rows = append(rows, layerRow{id: l.ID, name: name, isTrack: true, visible: l.Visible})
	}
	p.rows = rows
	p.list.Refresh()
	p.syncSelection()
}

// syncSelection mirrors the store selection into the list and the style
// sliders.
func (p *LayersPanel) syncSelection() {
	sel := p.state.Store.Selection()
	if sel.LayerID == "" {
		p.list.UnselectAll()
		p.noteEditCheck.SetChecked(false)
		return
	}

	for i, row := range p.rows {
		if row.id == sel.LayerID {
			p.list.Select(i)
			break
		}
	}

	if style, ok := p.selectedStyle(); ok {
		p.strokeSlider.SetValue(style.StrokeWidth)
		p.opacitySlider.SetValue(style.Opacity)
	}
	if sel.Kind != overlay.SelectionTrack {
		p.noteEditCheck.SetChecked(false)
	}
}

func (p *LayersPanel) selectedStyle() (overlay.LayerStyle, bool) {
	sel := p.state.Store.Selection()
	switch sel.Kind {
	case overlay.SelectionContour:
		if l := p.state.Store.ContourLayer(sel.LayerID); l != nil {
			return l.Style, true
		}
	case overlay.SelectionTrack:
		if l := p.state.Store.TrackLayer(sel.LayerID); l != nil {
			return l.Style, true
		}
	}
	return overlay.LayerStyle{}, false
}

func (p *LayersPanel) updateStyle(mut func(*overlay.LayerStyle)) {
	style, ok := p.selectedStyle()
	if !ok {
		return
	}
	mut(&style)
	if style.Color == (color.RGBA{}) {
		style.Color = overlay.DefaultContourStyle().Color
	}
	p.state.Store.SetLayerStyle(p.state.Store.Selection().LayerID, style)
	p.canvas.Refresh()
}
