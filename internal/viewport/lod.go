package viewport

// IntervalForScale returns the coarsest elevation interval (in dataset
// elevation units) that should be drawn at the given render scale. Zero
// means draw every contour.
func IntervalForScale(renderScale float64) int {
	switch {
	case renderScale < 1.1:
		return 100
	case renderScale < 2.0:
		return 40
	case renderScale < 3.6:
		return 20
	case renderScale < 6.0:
		return 10
	default:
		return 0
	}
}

// ShouldDraw decides whether a contour with the given elevation, index flag,
// and point count is drawn at the active interval.
//
// Major contours draw even off the interval grid once the interval reaches
// 40, so index lines stay visible while zoomed out. The zero-elevation
// contour draws only when major or when the interval is fine (<= 20). Short
// fragments (< 3 points) are suppressed at coarse intervals to avoid
// isolated-dot artifacts.
func ShouldDraw(elevation int, major bool, pointCount, interval int) bool {
	if interval >= 20 && pointCount < 3 {
		return false
	}
	if interval == 0 {
		return true
	}
	if elevation == 0 {
		return major || interval <= 20
	}
	if major && interval >= 40 {
		return true
	}
	e := elevation
	if e < 0 {
		e = -e
	}
	return e%interval == 0
}
