package verify

import (
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

// Landfall is a verifying-track crossing from water onto land. Valid is the
// time of the last point over water; Lat and Lon are the first point over
// land.
type Landfall struct {
	Index int       `json:"index"`
	Valid time.Time `json:"valid"`
	Lat   float64   `json:"lat"`
	Lon   float64   `json:"lon"`
	VMax  float64   `json:"vmax"`
}

// Landfalls lists every point where the verifying track's distance to land
// goes from zero or more to below zero at the next point.
func (p *Pair) Landfalls() []Landfall {
	var out []Landfall
	for i := 0; i+1 < len(p.points); i++ {
		cur, next := p.points[i], p.points[i+1]
		if atcf.IsMissing(cur.BLand) || atcf.IsMissing(next.BLand) {
			continue
		}
		if cur.BLand >= 0 && next.BLand < 0 {
			out = append(out, Landfall{
				Index: i,
				Valid: cur.Valid,
				Lat:   next.B.Lat,
				Lon:   next.B.Lon,
				VMax:  cur.B.VMax,
			})
		}
	}
	return out
}

// CheckLandfall keeps a point only when the verifying track is over water
// there and makes landfall between end and beg before the point, that is
// within [valid-end, valid-beg]. Negative offsets look ahead of the point.
// It returns how many points it cleared.
func (p *Pair) CheckLandfall(beg, end time.Duration) int {
	landfalls := p.Landfalls()
	n := 0
	for i := range p.points {
		pp := &p.points[i]
		if !pp.Keep {
			continue
		}
		if atcf.IsMissing(pp.BLand) || pp.BLand <= 0 || !landfallWithin(landfalls, pp.Valid.Add(-end), pp.Valid.Add(-beg)) {
			pp.Keep = false
			n++
		}
	}
	return n
}

func landfallWithin(landfalls []Landfall, lo, hi time.Time) bool {
	for _, lf := range landfalls {
		if !lf.Valid.Before(lo) && !lf.Valid.After(hi) {
			return true
		}
	}
	return false
}
