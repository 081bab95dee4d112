package verify

import (
	"math"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/geo"
)

// XYTrackError returns the east-west, north-south and total position error
// of forecast position a relative to verifying position b, in nautical
// miles. Any missing coordinate makes all three missing.
func XYTrackError(alat, alon, blat, blon float64) (x, y, tk float64) {
	if atcf.IsMissing(alat) || atcf.IsMissing(alon) || atcf.IsMissing(blat) || atcf.IsMissing(blon) {
		return atcf.Missing, atcf.Missing, atcf.Missing
	}
	meanLat := 0.5 * (alat + blat)
	x = geo.NMPerDegree * geo.DeltaLon(blon, alon) * math.Cos(meanLat*math.Pi/180)
	y = geo.NMPerDegree * (alat - blat)
	return x, y, math.Hypot(x, y)
}

// AlongCrossError rotates an (x, y) error into the frame of a storm moving
// toward heading, in degrees clockwise from north. Along-track error is
// positive ahead of the storm and cross-track error is positive to the
// right of its motion.
func AlongCrossError(x, y, heading float64) (along, cross float64) {
	if atcf.IsMissing(x) || atcf.IsMissing(y) || atcf.IsMissing(heading) {
		return atcf.Missing, atcf.Missing
	}
	h := heading * math.Pi / 180
	sin, cos := math.Sin(h), math.Cos(h)
	return x*sin + y*cos, x*cos - y*sin
}

// diff is a minus b with missing propagation.
func diff(a, b float64) float64 {
	if atcf.IsMissing(a) || atcf.IsMissing(b) {
		return atcf.Missing
	}
	return a - b
}

// heading estimates the direction of motion at point i from its neighbours,
// using a centred difference where both exist.
func heading(pts []atcf.Point, i int) float64 {
	prev, next := i-1, i+1
	if prev < 0 {
		prev = i
	}
	if next >= len(pts) {
		next = i
	}
	if prev == next {
		return atcf.Missing
	}
	a, b := pts[prev], pts[next]
	if a.Lat == b.Lat && a.Lon == b.Lon {
		return atcf.Missing
	}
	return geo.Bearing(a.Lat, a.Lon, b.Lat, b.Lon)
}
