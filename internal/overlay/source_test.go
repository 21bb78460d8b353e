package overlay

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"contour-atlas/pkg/geometry"
)

func writeAsset(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const testManifest = `[
  {"id": "north_base", "name": "North", "asset": "assets/data/north.json"},
  {"id": "", "name": "missing id", "asset": "assets/data/x.json"},
  {"id": "no_asset", "name": "missing asset"},
  {"id": "south_base", "name": "South", "asset": "assets/data/south.json"}
]`

const testDataset = `{
  "crs": "Korea_2000_Korea_Unified_Coordinate_System",
  "units": "meter",
  "bounds": [0, 0, 1000, 1000],
  "contours": [
    {"elev": 100, "major": true, "line": [[10, 10], [200, 200]]},
    {"elev": 20, "major": false, "line": [[800, 800], [900, 950]]}
  ],
  "route": [[[50, 50], [60, 70], [80, 90]]]
}`

func newTestCache(t *testing.T) *SourceCache {
	t.Helper()
	dir := t.TempDir()
	writeAsset(t, dir, "manifest.json", testManifest)
	writeAsset(t, dir, "north.json", testDataset)
	return NewSourceCache(dir)
}

func TestListSourcesDropsIncompleteRecords(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	sources := cache.ListSources()
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].ID != "north_base" || sources[1].ID != "south_base" {
		t.Errorf("unexpected sources: %+v", sources)
	}
}

func TestListSourcesSoftFail(t *testing.T) {
	t.Parallel()

	// Missing manifest.
	if got := NewSourceCache(t.TempDir()).ListSources(); len(got) != 0 {
		t.Errorf("missing manifest: got %v, want empty", got)
	}

	// Unparseable manifest.
	dir := t.TempDir()
	writeAsset(t, dir, "manifest.json", "{broken")
	if got := NewSourceCache(dir).ListSources(); len(got) != 0 {
		t.Errorf("broken manifest: got %v, want empty", got)
	}
}

func TestLoadSourceUnclipped(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	set, err := cache.LoadSource("north_base", nil)
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	if len(set.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(set.Lines))
	}
	if set.Bounds != geometry.NewRect(0, 0, 1000, 1000) {
		t.Errorf("bounds = %v, want dataset bounds", set.Bounds)
	}
	if len(set.Route) != 1 || len(set.Route[0]) != 3 {
		t.Errorf("route not decoded: %v", set.Route)
	}
}

func TestLoadSourceClipRecomputesBounds(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	clip := geometry.NewRect(0, 0, 300, 300)
	set, err := cache.LoadSource("north_base", &clip)
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	if len(set.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(set.Lines))
	}
	// Bounds come from the retained line, not the original dataset bounds.
	want := geometry.NewRect(10, 10, 200, 200)
	if set.Bounds != want {
		t.Errorf("clipped bounds = %v, want %v", set.Bounds, want)
	}
}

func TestLoadSourceClippedFallsBack(t *testing.T) {
	t.Parallel()

	// Scenario D: a clip rect that excludes every line falls back to the
	// full set with the original bounds.
	cache := newTestCache(t)
	clip := geometry.NewRect(-5000, -5000, -4000, -4000)
	set, err := cache.LoadSourceClipped("north_base", clip)
	if err != nil {
		t.Fatalf("LoadSourceClipped: %v", err)
	}
	if len(set.Lines) != 2 {
		t.Fatalf("fallback returned %d lines, want 2", len(set.Lines))
	}
	if set.Bounds != geometry.NewRect(0, 0, 1000, 1000) {
		t.Errorf("fallback bounds = %v, want original", set.Bounds)
	}
}

func TestLoadSourceMemoizes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeAsset(t, dir, "manifest.json", `[{"id":"a","name":"A","asset":"a.json"}]`)
	writeAsset(t, dir, "a.json", testDataset)
	cache := NewSourceCache(dir)

	first, err := cache.LoadSource("a", nil)
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}

	// Corrupt the file; the cached geometry must still be served.
	writeAsset(t, dir, "a.json", "{broken")
	second, err := cache.LoadSource("a", nil)
	if err != nil {
		t.Fatalf("LoadSource after overwrite: %v", err)
	}
	if first != second {
		t.Error("expected the memoized set to be reused")
	}
}

func TestLoadSourceConcurrent(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	const n = 16
	sets := make([]*ContourSet, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sets[i], _ = cache.LoadSource("north_base", nil)
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if sets[i] != sets[0] {
			t.Fatalf("request %d resolved to a different set", i)
		}
	}
}

func TestLoadSourceUnknownID(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	if _, err := cache.LoadSource("nope", nil); err == nil {
		t.Error("expected error for unknown source id")
	}
}

func TestLoadSourceDegenerateDataset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeAsset(t, dir, "manifest.json", `[{"id":"e","name":"Empty","asset":"e.json"}]`)
	writeAsset(t, dir, "e.json", `{"contours": []}`)
	cache := NewSourceCache(dir)

	set, err := cache.LoadSource("e", nil)
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	if set.Bounds != geometry.UnitRect() {
		t.Errorf("degenerate bounds = %v, want unit rect", set.Bounds)
	}
	if len(set.Lines) != 0 {
		t.Errorf("expected no lines, got %d", len(set.Lines))
	}
}

func TestInvalidateSourcesRereadsManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeAsset(t, dir, "manifest.json", `[{"id":"a","name":"A","asset":"a.json"}]`)
	cache := NewSourceCache(dir)
	if got := cache.ListSources(); len(got) != 1 {
		t.Fatalf("got %d sources, want 1", len(got))
	}

	writeAsset(t, dir, "manifest.json",
		`[{"id":"a","name":"A","asset":"a.json"},{"id":"b","name":"B","asset":"b.json"}]`)

	// Still served from cache until invalidated.
	if got := cache.ListSources(); len(got) != 1 {
		t.Fatalf("cached list changed unexpectedly: %v", got)
	}
	cache.InvalidateSources()
	if got := cache.ListSources(); len(got) != 2 {
		t.Fatalf("after invalidate got %d sources, want 2", len(got))
	}
}
