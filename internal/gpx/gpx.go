// Package gpx reads GPX documents and projects their coordinates onto the
// unified grid.
package gpx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"strconv"

	"contour-atlas/internal/geodesy"
	"contour-atlas/pkg/geometry"
)

// ErrMalformedTrack is returned when a document yields no usable line: no
// track segment and no route fallback carries two or more valid points.
var ErrMalformedTrack = errors.New("gpx: no usable track points")

type document struct {
	Tracks      []track    `xml:"trk"`
	RoutePoints []waypoint `xml:"rte>rtept"`
}

type track struct {
	Segments []segment `xml:"trkseg"`
}

type segment struct {
	Points []waypoint `xml:"trkpt"`
}

// Attributes stay strings so a missing or non-numeric lat/lon skips just that
// point instead of failing the whole unmarshal.
type waypoint struct {
	Lat string `xml:"lat,attr"`
	Lon string `xml:"lon,attr"`
}

// ParseTrack extracts the track segments of a GPX document as world-space
// polylines, each point projected through the unified-grid transform.
// Segments keep their source order and per-segment point order. Segments with
// fewer than two valid points are dropped; when no track segment survives,
// the route points serve as a flat fallback line under the same rule.
func ParseTrack(data []byte) ([][]geometry.Point2D, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTrack, err)
	}

	var lines [][]geometry.Point2D
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			line := projectWaypoints(seg.Points)
			if len(line) >= 2 {
				lines = append(lines, line)
			}
		}
	}

	if len(lines) == 0 {
		if line := projectWaypoints(doc.RoutePoints); len(line) >= 2 {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return nil, ErrMalformedTrack
	}
	return lines, nil
}

func projectWaypoints(points []waypoint) []geometry.Point2D {
	line := make([]geometry.Point2D, 0, len(points))
	for _, wp := range points {
		lat, err := parseCoord(wp.Lat)
		if err != nil {
			continue
		}
		lon, err := parseCoord(wp.Lon)
		if err != nil {
			continue
		}
		line = append(line, geodesy.ToUnified(lon, lat))
	}
	return line
}

func parseCoord(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("missing attribute")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("non-finite coordinate")
	}
	return v, nil
}
