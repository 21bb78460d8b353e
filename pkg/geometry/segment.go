package geometry

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// NearestOnSegment returns the point on segment ab closest to p, together with
// the projection factor t clamped to [0, 1]. A zero-length segment yields a
// with t == 0.
func NearestOnSegment(p, a, b Point2D) (Point2D, float64) {
	ab := r2.Vec{X: b.X - a.X, Y: b.Y - a.Y}
	lenSq := r2.Norm2(ab)
	if lenSq == 0 {
		return a, 0
	}

	ap := r2.Vec{X: p.X - a.X, Y: p.Y - a.Y}
	t := r2.Dot(ap, ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	q := r2.Add(r2.Vec{X: a.X, Y: a.Y}, r2.Scale(t, ab))
	return Point2D{X: q.X, Y: q.Y}, t
}

// NearestOnPolyline returns the closest point to p across all consecutive
// segments of line, with the squared distance. ok is false for lines with
// fewer than two points.
func NearestOnPolyline(p Point2D, line []Point2D) (nearest Point2D, distSq float64, ok bool) {
	if len(line) < 2 {
		return Point2D{}, 0, false
	}

	best := line[0]
	bestSq := p.DistanceSq(best)
	for i := 0; i < len(line)-1; i++ {
		q, _ := NearestOnSegment(p, line[i], line[i+1])
		if d := p.DistanceSq(q); d < bestSq {
			bestSq = d
			best = q
		}
	}
	return best, bestSq, true
}
