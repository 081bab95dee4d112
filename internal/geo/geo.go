// Package geo holds the spherical helpers shared by consensus building and
// track verification. Coordinates are degrees with west longitude negative,
// and distances are nautical miles.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

// NMPerDegree is the length of one degree of latitude in nautical miles.
const NMPerDegree = 60.0405

const metersPerNM = 1852.0

// Point converts a latitude and longitude to an orb point.
func Point(lat, lon float64) orb.Point {
	return orb.Point{lon, lat}
}

// DistanceNM is the great-circle distance between two positions. Any missing
// coordinate yields atcf.Missing.
func DistanceNM(lat1, lon1, lat2, lon2 float64) float64 {
	if anyMissing(lat1, lon1, lat2, lon2) {
		return atcf.Missing
	}
	return geo.DistanceHaversine(Point(lat1, lon1), Point(lat2, lon2)) / metersPerNM
}

// Bearing is the initial heading in degrees clockwise from north when
// travelling from the first position to the second, in [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	if anyMissing(lat1, lon1, lat2, lon2) {
		return atcf.Missing
	}
	b := geo.Bearing(Point(lat1, lon1), Point(lat2, lon2))
	return RescaleDeg(b, 0, 360)
}

// RescaleDeg shifts v by whole turns into [lo, lo+360).
func RescaleDeg(v, lo, hi float64) float64 {
	span := hi - lo
	v = math.Mod(v-lo, span)
	if v < 0 {
		v += span
	}
	return v + lo
}

// RescaleLon maps a longitude into [-180, 180).
func RescaleLon(v float64) float64 {
	return RescaleDeg(v, -180, 180)
}

// DeltaLon is b minus a, taken the short way around the globe.
func DeltaLon(a, b float64) float64 {
	return RescaleLon(b - a)
}

// MeanLon averages longitudes that may straddle the date line. When the
// values span more than 180 degrees the western ones are shifted east by a
// full turn before averaging. Missing values are ignored.
func MeanLon(lons []float64) float64 {
	var present []float64
	for _, v := range lons {
		if !atcf.IsMissing(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return atcf.Missing
	}

	lo, hi := present[0], present[0]
	for _, v := range present[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	shift := hi-lo > 180

	var sum float64
	for _, v := range present {
		if shift && v < 0 {
			v += 360
		}
		sum += v
	}
	return RescaleLon(sum / float64(len(present)))
}

// MeanDirection is the circular mean of headings in degrees. Missing values
// are ignored.
func MeanDirection(dirs []float64) float64 {
	var x, y float64
	n := 0
	for _, d := range dirs {
		if atcf.IsMissing(d) {
			continue
		}
		r := d * math.Pi / 180
		x += math.Sin(r)
		y += math.Cos(r)
		n++
	}
	if n == 0 {
		return atcf.Missing
	}
	if x == 0 && y == 0 {
		return atcf.Missing
	}
	return RescaleDeg(math.Atan2(x, y)*180/math.Pi, 0, 360)
}

func anyMissing(vs ...float64) bool {
	for _, v := range vs {
		if atcf.IsMissing(v) {
			return true
		}
	}
	return false
}
