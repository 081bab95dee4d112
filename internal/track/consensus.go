package track

import (
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/geo"
)

// Spread summarizes member disagreement at one consensus lead time.
type Spread struct {
	Lead       time.Duration `json:"lead"`
	Members    int           `json:"members"`
	TrackStdev float64       `json:"track_stdev"` // nm
	TrackMean  float64       `json:"track_mean"`  // nm
	VMaxStdev  float64       `json:"vmax_stdev"`
	MSLPStdev  float64       `json:"mslp_stdev"`
}

// ConsensusDef names a consensus track and the members that feed it.
type ConsensusDef struct {
	Name     string
	Members  []string
	Required []string
	MinCount int
}

// BuildConsensus averages members at each shared lead time. Members must
// share basin, cyclone and init time. A lead is skipped when a required
// member has no point there or fewer than minCount members do.
func BuildConsensus(logger *slog.Logger, name string, members []*Track, required []string, minCount int) (*Track, []Spread, error) {
	if len(members) == 0 {
		return nil, nil, atcf.Fatalf("consensus %s: no member tracks", name)
	}
	if logger == nil {
		logger = slog.Default()
	}

	first := members[0]
	for _, m := range members[1:] {
		if m.Basin != first.Basin || m.Cyclone != first.Cyclone || !m.Init.Equal(first.Init) {
			return nil, nil, atcf.Fatalf("consensus %s: basin, cyclone and init time must match across members (%s vs %s)",
				name, first.Key(), m.Key())
		}
		if m.TechniqueNumber != first.TechniqueNumber {
			logger.Warn("consensus member technique number differs",
				"consensus", name, "member", m.Technique,
				"want", first.TechniqueNumber, "got", m.TechniqueNumber)
		}
	}

	var leads []time.Duration
	for _, m := range members {
		for _, p := range m.points {
			if !slices.Contains(leads, p.Lead) {
				leads = append(leads, p.Lead)
			}
		}
	}
	slices.Sort(leads)

	out := newSynthetic(first.Basin, first.Cyclone, first.StormName, name, first.TechniqueNumber, first.Init)
	var spreads []Spread

	for _, lead := range leads {
		present, ok := membersAt(members, lead, required)
		if !ok || len(present) < minCount || len(present) == 0 {
			continue
		}

		p := averagePoint(present)
		p.Lead = lead
		p.Valid = first.Init.Add(lead)
		if first.Init.IsZero() {
			p.Valid = present[0].Valid
		}
		out.appendPoint(p)
		spreads = append(spreads, spreadAt(lead, p, present))
	}

	return out, spreads, nil
}

// membersAt gathers each member's point at lead. The second result is false
// when a required member is absent.
func membersAt(members []*Track, lead time.Duration, required []string) ([]atcf.Point, bool) {
	var present []atcf.Point
	for _, m := range members {
		i := m.LeadIndex(lead)
		if i < 0 {
			if slices.Contains(required, m.Technique) {
				return nil, false
			}
			continue
		}
		present = append(present, m.points[i])
	}
	return present, true
}

func averagePoint(ps []atcf.Point) atcf.Point {
	avg := atcf.EmptyPoint()
	field := func(get func(atcf.Point) float64) float64 {
		vs := make([]float64, len(ps))
		for i, p := range ps {
			vs[i] = get(p)
		}
		return geo.Mean(vs)
	}

	avg.Lat = field(func(p atcf.Point) float64 { return p.Lat })
	lons := make([]float64, len(ps))
	dirs := make([]float64, len(ps))
	for i, p := range ps {
		lons[i] = p.Lon
		dirs[i] = p.Direction
	}
	avg.Lon = geo.MeanLon(lons)
	avg.Direction = geo.MeanDirection(dirs)

	avg.VMax = field(func(p atcf.Point) float64 { return p.VMax })
	avg.MSLP = field(func(p atcf.Point) float64 { return p.MSLP })
	avg.IsobarPressure = field(func(p atcf.Point) float64 { return p.IsobarPressure })
	avg.IsobarRadius = field(func(p atcf.Point) float64 { return p.IsobarRadius })
	avg.MaxWindRadius = field(func(p atcf.Point) float64 { return p.MaxWindRadius })
	avg.Gusts = field(func(p atcf.Point) float64 { return p.Gusts })
	avg.EyeDiameter = field(func(p atcf.Point) float64 { return p.EyeDiameter })
	avg.Speed = field(func(p atcf.Point) float64 { return p.Speed })

	for w := range avg.Wind {
		avg.Wind[w].Full = field(func(p atcf.Point) float64 { return p.Wind[w].Full })
		avg.Wind[w].NE = field(func(p atcf.Point) float64 { return p.Wind[w].NE })
		avg.Wind[w].SE = field(func(p atcf.Point) float64 { return p.Wind[w].SE })
		avg.Wind[w].SW = field(func(p atcf.Point) float64 { return p.Wind[w].SW })
		avg.Wind[w].NW = field(func(p atcf.Point) float64 { return p.Wind[w].NW })
	}

	if !atcf.IsMissing(avg.VMax) {
		avg.Level = atcf.WindSpeedToLevel(int(math.Round(avg.VMax)))
	}
	return avg
}

func spreadAt(lead time.Duration, c atcf.Point, ps []atcf.Point) Spread {
	dist := make([]float64, len(ps))
	vmax := make([]float64, len(ps))
	mslp := make([]float64, len(ps))
	for i, p := range ps {
		dist[i] = geo.DistanceNM(p.Lat, p.Lon, c.Lat, c.Lon)
		vmax[i] = p.VMax
		mslp[i] = p.MSLP
	}
	return Spread{
		Lead:       lead,
		Members:    len(ps),
		TrackStdev: geo.StdDev(dist),
		TrackMean:  geo.Mean(dist),
		VMaxStdev:  geo.StdDev(vmax),
		MSLPStdev:  geo.StdDev(mslp),
	}
}

// SelectMembers returns the tracks whose technique is listed in def.Members,
// in member-list order.
func SelectMembers(tracks []*Track, def ConsensusDef) []*Track {
	var out []*Track
	for _, name := range def.Members {
		for _, t := range tracks {
			if t.Technique == name {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
