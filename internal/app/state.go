// Package app provides the application state, its change events, and the
// asset-directory watcher.
package app

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"contour-atlas/internal/export"
	"contour-atlas/internal/gpx"
	"contour-atlas/internal/overlay"
	"contour-atlas/pkg/geometry"
)

// EventType identifies different application events.
type EventType int

const (
	EventLayersChanged EventType = iota
	EventSelectionChanged
	EventNotesChanged
	EventSourcesChanged
	EventViewChanged
	EventExported
	EventStatus
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State ties the layer store and the contour source cache together and fans
// out change events to the UI. Mutations come in on the UI goroutine; slow
// loads run in the background and report back through callbacks, with stale
// results dropped via generation counters.
type State struct {
	mu sync.RWMutex

	Store *overlay.Store
	Cache *overlay.SourceCache

	// Superseded background loads are discarded when these move on.
	sourceGen uint64
	importGen uint64

	listeners map[EventType][]EventListener
}

// NewState creates the application state over an asset directory.
func NewState(assetRoot string) *State {
	return &State{
		Store:     overlay.NewStore(),
		Cache:     overlay.NewSourceCache(assetRoot),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Status emits a transient status-bar message.
func (s *State) Status(format string, args ...interface{}) {
	s.Emit(EventStatus, fmt.Sprintf(format, args...))
}

// Sources lists the available contour sources from the manifest.
func (s *State) Sources() []overlay.SourceInfo {
	return s.Cache.ListSources()
}

// InvalidateSources drops the cached manifest listing, typically after the
// watcher reports a change under the asset directory.
func (s *State) InvalidateSources() {
	s.Cache.InvalidateSources()
	s.Emit(EventSourcesChanged, nil)
}

// loadSource loads a source, clipped when a clip rectangle is given.
func (s *State) loadSource(id string, clip *geometry.Rect) (*overlay.ContourSet, error) {
	if clip == nil {
		return s.Cache.LoadSource(id, nil)
	}
	return s.Cache.LoadSourceClipped(id, *clip)
}

// addContour installs a loaded set as a layer. The first source to arrive
// establishes the store's base bounds.
func (s *State) addContour(info overlay.SourceInfo, set *overlay.ContourSet) bool {
	first := len(s.Store.ContourLayers()) == 0
	layer, added := s.Store.AddContourLayer(info.ID, info.Name, set)
	if !added {
		return false
	}
	if first {
		s.Store.SetBaseBounds(set.Bounds)
	}
	s.Store.Select(overlay.SelectContour(layer.ID))
	s.Emit(EventLayersChanged, layer.ID)
	s.Emit(EventSelectionChanged, s.Store.Selection())
	return true
}

// AddSource loads a contour source synchronously and adds it as a layer.
// A source that is already present is a no-op.
func (s *State) AddSource(info overlay.SourceInfo, clip *geometry.Rect) error {
	if s.Store.HasSource(info.ID) {
		s.Status("%s is already added", info.Name)
		return nil
	}
	set, err := s.loadSource(info.ID, clip)
	if err != nil {
		return fmt.Errorf("load source %s: %w", info.ID, err)
	}
	s.addContour(info, set)
	return nil
}

// AddSourceAsync runs AddSource off the caller's goroutine. If another
// source load starts before this one finishes, the result is discarded and
// done is called with stale == true.
func (s *State) AddSourceAsync(info overlay.SourceInfo, clip *geometry.Rect, done func(stale bool, err error)) {
	gen := atomic.AddUint64(&s.sourceGen, 1)
	go func() {
		set, err := s.loadSource(info.ID, clip)
		if atomic.LoadUint64(&s.sourceGen) != gen {
			done(true, nil)
			return
		}
		if err != nil {
			done(false, fmt.Errorf("load source %s: %w", info.ID, err))
			return
		}
		s.addContour(info, set)
		done(false, nil)
	}()
}

// AddDemoRoute adds the pre-projected route bundled with a contour source as
// a track layer. Sources without a route are a status no-op.
func (s *State) AddDemoRoute(info overlay.SourceInfo) (*overlay.TrackLayer, error) {
	set, err := s.Cache.LoadSource(info.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("load source %s: %w", info.ID, err)
	}
	if len(set.Route) == 0 {
		s.Status("%s has no bundled route", info.Name)
		return nil, nil
	}
	return s.addTrack(fmt.Sprintf("%s route", info.Name), set.Route), nil
}

// parseTrackFile reads and projects a GPX document, returning the layer name
// derived from the filename.
func parseTrackFile(path string) (string, [][]geometry.Point2D, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read track: %w", err)
	}
	polylines, err := gpx.ParseTrack(data)
	if err != nil {
		return "", nil, fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return name, polylines, nil
}

func (s *State) addTrack(name string, polylines [][]geometry.Point2D) *overlay.TrackLayer {
	layer := s.Store.AddTrackLayer(name, polylines)
	s.Store.Select(overlay.SelectTrack(layer.ID))
	s.Emit(EventLayersChanged, layer.ID)
	s.Emit(EventSelectionChanged, s.Store.Selection())
	return layer
}

// ImportTrack parses a GPX document and adds it as a track layer named after
// the file. Any pending async import is superseded.
func (s *State) ImportTrack(path string) (*overlay.TrackLayer, error) {
	atomic.AddUint64(&s.importGen, 1)
	name, polylines, err := parseTrackFile(path)
	if err != nil {
		return nil, err
	}
	return s.addTrack(name, polylines), nil
}

// ImportTrackAsync runs ImportTrack off the caller's goroutine, dropping the
// result when a newer import supersedes it.
func (s *State) ImportTrackAsync(path string, done func(layer *overlay.TrackLayer, stale bool, err error)) {
	gen := atomic.AddUint64(&s.importGen, 1)
	go func() {
		name, polylines, err := parseTrackFile(path)
		if atomic.LoadUint64(&s.importGen) != gen {
			done(nil, true, nil)
			return
		}
		if err != nil {
			done(nil, false, err)
			return
		}
		done(s.addTrack(name, polylines), false, nil)
	}()
}

// RemoveLayer removes a layer and announces the change.
func (s *State) RemoveLayer(id string) bool {
	if !s.Store.RemoveLayer(id) {
		return false
	}
	s.Emit(EventLayersChanged, id)
	s.Emit(EventSelectionChanged, s.Store.Selection())
	return true
}

// Select updates the selection and announces it.
func (s *State) Select(sel overlay.Selection) {
	s.Store.Select(sel)
	s.Emit(EventSelectionChanged, sel)
}

// ExportScene flattens the current view into a PNG under dir and returns
// the written path.
func (s *State) ExportScene(dir string, opts export.Options) (string, error) {
	path, err := export.Save(dir, s.Store, opts, time.Now())
	if err != nil {
		return "", err
	}
	s.Emit(EventExported, path)
	s.Status("exported %s", filepath.Base(path))
	return path, nil
}

// ExportImage renders the current view without writing it, for previews.
func (s *State) ExportImage(opts export.Options) *image.RGBA {
	return export.Scene(s.Store, opts)
}
