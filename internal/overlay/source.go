package overlay

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"contour-atlas/pkg/geometry"
)

const manifestFile = "manifest.json"

// SourceInfo is one entry of the contour source manifest.
type SourceInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Asset string `json:"asset"`
}

// datasetJSON mirrors the baked overlay asset schema.
type datasetJSON struct {
	CRS      string        `json:"crs"`
	Units    string        `json:"units"`
	Bounds   []float64     `json:"bounds"`
	Contours []contourJSON `json:"contours"`
	Route    [][][]float64 `json:"route"`
}

type contourJSON struct {
	Elev  int         `json:"elev"`
	Major bool        `json:"major"`
	Line  [][]float64 `json:"line"`
}

// SourceCache loads contour sources from an asset directory and memoizes the
// decoded geometry per source id. It lives for the whole process and is never
// cleared; the manifest listing alone can be invalidated when the asset
// directory changes on disk.
type SourceCache struct {
	root string

	mu       sync.Mutex
	sources  []SourceInfo
	haveList bool
	entries  map[string]*sourceEntry
}

type sourceEntry struct {
	once sync.Once
	set  *ContourSet
	err  error
}

// NewSourceCache creates a cache rooted at the given asset directory.
func NewSourceCache(root string) *SourceCache {
	return &SourceCache{
		root:    root,
		entries: make(map[string]*sourceEntry),
	}
}

// Root returns the asset directory the cache reads from.
func (c *SourceCache) Root() string {
	return c.root
}

// ListSources returns the manifest entries. The manifest is advisory data:
// any read or parse failure yields an empty list, and records missing an id
// or asset path are dropped silently.
func (c *SourceCache) ListSources() []SourceInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.haveList {
		return append([]SourceInfo(nil), c.sources...)
	}

	data, err := os.ReadFile(filepath.Join(c.root, manifestFile))
	if err != nil {
		log.Printf("source manifest unavailable: %v", err)
		return nil
	}

	var raw []SourceInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("source manifest unreadable: %v", err)
		return nil
	}

	sources := make([]SourceInfo, 0, len(raw))
	for _, s := range raw {
		if s.ID == "" || s.Asset == "" {
			continue
		}
		sources = append(sources, s)
	}

	c.sources = sources
	c.haveList = true
	return append([]SourceInfo(nil), sources...)
}

// InvalidateSources drops the cached manifest listing so the next ListSources
// re-reads it. Decoded geometry stays cached.
func (c *SourceCache) InvalidateSources() {
	c.mu.Lock()
	c.haveList = false
	c.sources = nil
	c.mu.Unlock()
}

// LoadSource returns the contour set for a source id. Raw geometry is decoded
// once per id regardless of clip; concurrent requests for the same id share a
// single load. With a non-nil clip the result keeps only lines whose own
// bounds overlap the clip rectangle, and its bounds are recomputed from the
// retained lines. Clipping may retain zero lines, which callers treat as a
// signal to fall back to the unclipped set (see LoadSourceClipped).
func (c *SourceCache) LoadSource(id string, clip *geometry.Rect) (*ContourSet, error) {
	raw, err := c.loadRaw(id)
	if err != nil {
		return nil, err
	}
	if clip == nil {
		return raw, nil
	}
	return clipSet(raw, *clip), nil
}

// LoadSourceClipped loads a source clipped to bounds, falling back to the
// full set when clipping would discard every line. Clipping is an
// optimization, never a data-loss path.
func (c *SourceCache) LoadSourceClipped(id string, clip geometry.Rect) (*ContourSet, error) {
	clipped, err := c.LoadSource(id, &clip)
	if err != nil {
		return nil, err
	}
	if len(clipped.Lines) > 0 {
		return clipped, nil
	}
	return c.LoadSource(id, nil)
}

func (c *SourceCache) loadRaw(id string) (*ContourSet, error) {
	c.mu.Lock()
	entry, ok := c.entries[id]
	if !ok {
		entry = &sourceEntry{}
		c.entries[id] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.set, entry.err = c.readSource(id)
	})
	return entry.set, entry.err
}

func (c *SourceCache) readSource(id string) (*ContourSet, error) {
	var asset string
	for _, s := range c.ListSources() {
		if s.ID == id {
			asset = s.Asset
			break
		}
	}
	if asset == "" {
		return nil, fmt.Errorf("contour source %q not in manifest", id)
	}

	// Manifest asset paths are written relative to the asset root's parent
	// (e.g. "assets/data/jeju_overlay.json"); bare filenames resolve inside
	// the root itself.
	path := filepath.Join(c.root, filepath.Base(asset))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contour source %q: %w", id, err)
	}

	var ds datasetJSON
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode contour source %q: %w", id, err)
	}
	return buildSet(&ds), nil
}

// buildSet converts decoded JSON into a ContourSet with cached per-line
// bounds. A dataset without any valid point yields the canonical empty set
// rather than letting infinities escape.
func buildSet(ds *datasetJSON) *ContourSet {
	set := &ContourSet{}

	for _, cj := range ds.Contours {
		points := toPoints(cj.Line)
		if len(points) == 0 {
			continue
		}
		b, _ := geometry.BoundsOf(points)
		set.Lines = append(set.Lines, ContourLine{
			Elevation: cj.Elev,
			Major:     cj.Major,
			Points:    points,
			Bounds:    b,
		})
	}

	for _, line := range ds.Route {
		points := toPoints(line)
		if len(points) >= 2 {
			set.Route = append(set.Route, points)
		}
	}

	switch {
	case len(ds.Bounds) == 4:
		set.Bounds = geometry.NewRect(ds.Bounds[0], ds.Bounds[1], ds.Bounds[2], ds.Bounds[3])
	case len(set.Lines) > 0:
		set.Bounds = linesBounds(set.Lines)
	default:
		set.Bounds = geometry.UnitRect()
	}
	if set.Bounds.IsEmpty() {
		set.Bounds = geometry.UnitRect()
	}
	return set
}

func toPoints(line [][]float64) []geometry.Point2D {
	points := make([]geometry.Point2D, 0, len(line))
	for _, xy := range line {
		if len(xy) < 2 {
			continue
		}
		points = append(points, geometry.Point2D{X: xy[0], Y: xy[1]})
	}
	return points
}

func linesBounds(lines []ContourLine) geometry.Rect {
	b := lines[0].Bounds
	for _, l := range lines[1:] {
		b = b.Union(l.Bounds)
	}
	return b
}

// clipSet filters to lines whose bounds overlap clip and recomputes the set
// bounds from what survives. The original set is never mutated.
func clipSet(raw *ContourSet, clip geometry.Rect) *ContourSet {
	clipped := &ContourSet{Route: raw.Route}
	for _, line := range raw.Lines {
		if line.Bounds.Intersects(clip) {
			clipped.Lines = append(clipped.Lines, line)
		}
	}
	if len(clipped.Lines) == 0 {
		clipped.Bounds = geometry.UnitRect()
		return clipped
	}
	clipped.Bounds = linesBounds(clipped.Lines)
	return clipped
}
