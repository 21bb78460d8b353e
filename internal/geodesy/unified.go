// Package geodesy converts geographic coordinates to the Korea 2000 Unified
// planar grid (GRS80 Transverse Mercator, origin 38°N 127.5°E). All stored
// geometry shares this coordinate space; the same forward transform was used
// to bake the bundled contour datasets, so the series below must not change.
package geodesy

import (
	"math"

	"contour-atlas/pkg/geometry"
)

// GRS80 ellipsoid and Korea Unified grid parameters.
const (
	semiMajorAxis = 6378137.0
	flattening    = 1.0 / 298.257222101
	scaleFactor   = 0.9996
	originLatDeg  = 38.0
	originLonDeg  = 127.5
	falseEasting  = 1000000.0
	falseNorthing = 2000000.0
)

var (
	e2  = 2*flattening - flattening*flattening // first eccentricity squared
	ep2 = e2 / (1.0 - e2)                      // second eccentricity squared

	originLat = originLatDeg * math.Pi / 180
	originLon = originLonDeg * math.Pi / 180

	// Meridional arc length from the equator to the origin latitude.
	arcToOrigin = meridionalArc(originLat)
)

// meridionalArc returns the ellipsoidal meridian arc length from the equator
// to latitude phi (radians), using the series to 6th-order eccentricity terms.
func meridionalArc(phi float64) float64 {
	e4 := e2 * e2
	e6 := e4 * e2
	return semiMajorAxis * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// ToUnified projects a longitude/latitude pair (degrees) onto the unified
// grid, returning a world-space point in meters. The transform is stateless
// and deterministic; callers are responsible for validating their input, as
// NaN or out-of-range degrees simply propagate through the math.
func ToUnified(lonDeg, latDeg float64) geometry.Point2D {
	phi := latDeg * math.Pi / 180
	lam := lonDeg * math.Pi / 180

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := semiMajorAxis / math.Sqrt(1.0-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := cosPhi * (lam - originLon)
	m := meridionalArc(phi)

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	x := falseEasting + scaleFactor*n*(a+
		(1-t+c)*a3/6+
		(5-18*t+t*t+72*c-58*ep2)*a5/120)

	y := falseNorthing + scaleFactor*(m-arcToOrigin+
		n*tanPhi*(a2/2+
			(5-t+9*c+4*c*c)*a4/24+
			(61-58*t+t*t+600*c-330*ep2)*a6/720))

	return geometry.Point2D{X: x, Y: y}
}
