package app

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// AssetWatcher monitors the asset directory and invalidates the source cache
// when the manifest or a dataset changes on disk.
type AssetWatcher struct {
	state   *State
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewAssetWatcher creates a watcher over the state's asset directory.
func NewAssetWatcher(state *State) (*AssetWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &AssetWatcher{
		state:   state,
		watcher: fw,
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the asset directory.
func (w *AssetWatcher) Start() error {
	if err := w.watcher.Add(w.state.Cache.Root()); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and waits for the loop to exit.
func (w *AssetWatcher) Stop() {
	w.watcher.Close()
	<-w.done
}

func (w *AssetWatcher) loop() {
	defer close(w.done)

	// Debounce bursts of events (editors write manifests in several steps).
	const debounce = 200 * time.Millisecond
	var pending time.Time
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				if !pending.IsZero() {
					w.state.InvalidateSources()
				}
				return
			}
			if !isAssetFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case now, ok := <-ticker.C:
			if !ok {
				return
			}
			if !pending.IsZero() && now.Sub(pending) >= debounce {
				pending = time.Time{}
				log.Println("asset directory changed, reloading sources")
				w.state.InvalidateSources()
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the cache just goes stale.
		}
	}
}

func isAssetFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(filepath.Base(name)), ".json")
}
