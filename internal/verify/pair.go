package verify

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/track"
)

// ErrNotEligible is returned when two tracks cannot be paired.
var ErrNotEligible = errors.New("tracks not eligible for pairing")

// LandDistancer reports the signed distance in nautical miles from a
// position to the nearest coastline, negative over land. Positions outside
// the distancer's coverage return atcf.Missing.
type LandDistancer interface {
	DistanceToLand(lat, lon float64) float64
}

// Qualify is a tri-state filter outcome.
type Qualify int8

const (
	QualifyUnknown Qualify = iota
	QualifyNo
	QualifyYes
)

func (q Qualify) String() string {
	switch q {
	case QualifyNo:
		return "no"
	case QualifyYes:
		return "yes"
	default:
		return "NA"
	}
}

// PointPair is one valid time of a Pair. A deck absent at this time holds
// atcf.EmptyPoint. Derived values are atcf.Missing when an input is.
type PointPair struct {
	Valid    time.Time
	Lead     time.Duration
	A        atcf.Point
	B        atcf.Point
	ALand    float64
	BLand    float64
	TrackErr float64
	XErr     float64
	YErr     float64
	AlongErr float64
	CrossErr float64
	VMaxErr  float64
	MSLPErr  float64

	// Rapid intensity change annotations.
	ARIRW Qualify
	BRIRW Qualify
	APrev float64
	BPrev float64

	Keep bool

	aIdx, bIdx int
}

// HasA reports whether the forecast deck has a point at this time.
func (pp PointPair) HasA() bool { return pp.aIdx >= 0 }

// HasB reports whether the verifying deck has a point at this time.
func (pp PointPair) HasB() bool { return pp.bIdx >= 0 }

// WatchWarn is the more severe of the two decks' statuses when both
// positions are present.
func (pp PointPair) WatchWarn() atcf.WatchWarn {
	if !validPosition(pp.A) || !validPosition(pp.B) {
		return atcf.WatchWarnNone
	}
	return atcf.MaxWatchWarn(pp.A.WatchWarn, pp.B.WatchWarn)
}

func validPosition(p atcf.Point) bool {
	return !atcf.IsMissing(p.Lat) && !atcf.IsMissing(p.Lon)
}

// Pair is a forecast track aligned point by point with its verifying track.
type Pair struct {
	StormID   string
	Basin     string
	Cyclone   string
	StormName string
	Init      time.Time
	ADeck     *track.Track
	BDeck     *track.Track

	matchPoints bool
	points      []PointPair
}

// Eligible reports whether a and b describe the same storm at overlapping
// times and, unless either is a best or analysis track, from the same
// initialization.
func Eligible(a, b *track.Track) bool {
	if a == nil || b == nil || a.Len() == 0 || b.Len() == 0 {
		return false
	}
	if a.Basin != b.Basin || a.Cyclone != b.Cyclone {
		return false
	}
	if a.Technique == "" || b.Technique == "" {
		return false
	}
	if a.MaxValid.Before(b.MinValid) || b.MaxValid.Before(a.MinValid) {
		return false
	}
	if a.IsBest() || a.IsAnalysis() || b.IsBest() || b.IsAnalysis() {
		return true
	}
	return a.Init.Equal(b.Init)
}

// NewPair aligns a with b over the union of their valid times, or only the
// times both share when matchPoints is set. land may be nil, in which case
// distances to land are missing. Every point starts out kept.
func NewPair(a, b *track.Track, land LandDistancer, matchPoints bool) (*Pair, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil track", ErrNotEligible)
	}
	if a.Basin != b.Basin || a.Cyclone != b.Cyclone {
		return nil, fmt.Errorf("%w: %s vs %s", ErrNotEligible, a.Key(), b.Key())
	}

	p := &Pair{
		StormID:     a.StormID,
		Basin:       a.Basin,
		Cyclone:     a.Cyclone,
		StormName:   b.StormName,
		Init:        a.Init,
		ADeck:       a,
		BDeck:       b,
		matchPoints: matchPoints,
	}
	if p.StormID == "" {
		p.StormID = b.StormID
	}
	if p.StormName == "" {
		p.StormName = a.StormName
	}

	apts, bpts := a.Points(), b.Points()
	for _, v := range unionValid(apts, bpts) {
		ai, bi := a.ValidIndex(v), b.ValidIndex(v)
		if matchPoints && (ai < 0 || bi < 0) {
			continue
		}
		pp := PointPair{
			Valid: v,
			A:     atcf.EmptyPoint(),
			B:     atcf.EmptyPoint(),
			ALand: atcf.Missing,
			BLand: atcf.Missing,
			APrev: atcf.Missing,
			BPrev: atcf.Missing,
			Keep:  true,
			aIdx:  ai,
			bIdx:  bi,
		}
		if ai >= 0 {
			pp.A = apts[ai]
			pp.ALand = distanceToLand(land, pp.A)
		}
		if bi >= 0 {
			pp.B = bpts[bi]
			pp.BLand = distanceToLand(land, pp.B)
		}
		pp.Lead = p.leadAt(pp)

		pp.XErr, pp.YErr, pp.TrackErr = XYTrackError(pp.A.Lat, pp.A.Lon, pp.B.Lat, pp.B.Lon)
		pp.AlongErr, pp.CrossErr = atcf.Missing, atcf.Missing
		if bi >= 0 {
			pp.AlongErr, pp.CrossErr = AlongCrossError(pp.XErr, pp.YErr, heading(bpts, bi))
		}
		pp.VMaxErr = diff(pp.A.VMax, pp.B.VMax)
		pp.MSLPErr = diff(pp.A.MSLP, pp.B.MSLP)

		p.points = append(p.points, pp)
	}
	return p, nil
}

func (p *Pair) leadAt(pp PointPair) time.Duration {
	if pp.aIdx >= 0 {
		return pp.A.Lead
	}
	if !p.Init.IsZero() {
		return pp.Valid.Sub(p.Init)
	}
	return 0
}

func unionValid(a, b []atcf.Point) []time.Time {
	out := make([]time.Time, 0, len(a)+len(b))
	for _, pt := range a {
		out = append(out, pt.Valid)
	}
	for _, pt := range b {
		out = append(out, pt.Valid)
	}
	slices.SortFunc(out, func(x, y time.Time) int { return x.Compare(y) })
	return slices.CompactFunc(out, func(x, y time.Time) bool { return x.Equal(y) })
}

func distanceToLand(land LandDistancer, pt atcf.Point) float64 {
	if land == nil || !validPosition(pt) {
		return atcf.Missing
	}
	return land.DistanceToLand(pt.Lat, pt.Lon)
}

// Len returns the number of aligned points.
func (p *Pair) Len() int { return len(p.points) }

// Point returns aligned point i. An out-of-range index is a fatal error.
func (p *Pair) Point(i int) (PointPair, error) {
	if i < 0 || i >= len(p.points) {
		return PointPair{}, atcf.Fatalf("pair %s: point index %d out of range [0, %d)", p.StormID, i, len(p.points))
	}
	return p.points[i], nil
}

// Points returns a copy of the aligned points.
func (p *Pair) Points() []PointPair {
	return slices.Clone(p.points)
}

// Kept returns how many points are still kept.
func (p *Pair) Kept() int {
	n := 0
	for _, pp := range p.points {
		if pp.Keep {
			n++
		}
	}
	return n
}

// Key identifies the pair by its forecast track.
func (p *Pair) Key() track.Key {
	return p.ADeck.Key()
}

// SetWatchWarn applies a watch/warning bulletin to both decks when it names
// this storm.
func (p *Pair) SetWatchWarn(stormID string, ww atcf.WatchWarn, issued time.Time) {
	if p.StormID != stormID {
		return
	}
	for i := range p.points {
		pp := &p.points[i]
		if pp.HasA() {
			pp.A.SetWatchWarn(ww, issued)
		}
		if pp.HasB() {
			pp.B.SetWatchWarn(ww, issued)
		}
	}
}
