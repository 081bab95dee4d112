package track

import (
	"fmt"
	"slices"
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

// MaxBestTimeGap bounds the spacing between consecutive rows of a best or
// analysis track.
const MaxBestTimeGap = 24 * time.Hour

// Class is the track classification. A track leaves ClassUnset on its first
// row and a forecast track may later become an analysis track, once.
type Class int

const (
	ClassUnset Class = iota
	ClassForecast
	ClassBest
	ClassAnalysis
)

func (c Class) String() string {
	switch c {
	case ClassForecast:
		return "forecast"
	case ClassBest:
		return "best"
	case ClassAnalysis:
		return "analysis"
	default:
		return "unset"
	}
}

// Key identifies a track without holding a reference to it.
type Key struct {
	StormID   string    `json:"storm_id"`
	Technique string    `json:"technique"`
	Init      time.Time `json:"init"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.StormID, k.Technique, atcf.FormatTime(k.Init))
}

// Track is a time-ordered sequence of points for one storm and technique.
type Track struct {
	StormID         string
	Basin           string
	Cyclone         string
	StormName       string
	Technique       string
	TechniqueNumber int
	Initials        string
	Init            time.Time
	MinValid        time.Time
	MaxValid        time.Time
	MinWarmCore     time.Time
	MaxWarmCore     time.Time
	IsOper          bool

	class         Class
	checkAnalysis bool
	synthetic     bool
	points        []atcf.Point
	lines         []atcf.Line
	lineIdx       []int // point index per line
}

// New starts an empty track with the identity of r. The track is classified
// from r but holds no points until Add is called.
func New(r atcf.TrackRecord, checkAnalysis bool) *Track {
	t := &Track{
		Basin:           r.Basin,
		Cyclone:         r.Cyclone,
		StormName:       r.StormName,
		Technique:       r.Technique,
		TechniqueNumber: r.TechniqueNumber,
		Initials:        r.Initials,
		IsOper:          r.IsOper,
		checkAnalysis:   checkAnalysis,
	}
	t.classify(r)
	return t
}

// newSynthetic starts a track whose points are computed rather than parsed.
func newSynthetic(basin, cyclone, name, technique string, techNum int, init time.Time) *Track {
	return &Track{
		Basin:           basin,
		Cyclone:         cyclone,
		StormName:       name,
		Technique:       technique,
		TechniqueNumber: techNum,
		Init:            init,
		class:           ClassForecast,
		synthetic:       true,
		StormID:         atcf.StormID(basin, cyclone, init, time.Time{}, time.Time{}),
	}
}

// Class returns the current classification.
func (t *Track) Class() Class { return t.class }

// IsBest reports whether this is a best track.
func (t *Track) IsBest() bool { return t.class == ClassBest }

// IsAnalysis reports whether this track was found to be a run of analyses.
func (t *Track) IsAnalysis() bool { return t.class == ClassAnalysis }

// Key returns the foreign key for t.
func (t *Track) Key() Key {
	return Key{StormID: t.StormID, Technique: t.Technique, Init: t.Init}
}

// classify is the only place a track's class changes.
func (t *Track) classify(r atcf.TrackRecord) {
	switch t.class {
	case ClassUnset:
		if r.IsBest {
			t.class = ClassBest
			t.Init = time.Time{}
		} else {
			t.class = ClassForecast
			t.Init = r.WarningTime
		}
	case ClassForecast:
		n := len(t.points)
		if !t.checkAnalysis || n == 0 {
			return
		}
		last := t.points[n-1]
		if t.TechniqueNumber == r.TechniqueNumber &&
			last.Lead == 0 && r.Lead() == 0 &&
			!last.Valid.Equal(r.Valid()) {
			t.class = ClassAnalysis
			t.Init = time.Time{}
		}
	}
}

// Accepts reports whether r belongs on t. Checking a row can reclassify a
// forecast track as an analysis track, whether or not the row is accepted.
func (t *Track) Accepts(r atcf.TrackRecord) bool {
	if t.Technique == "" {
		return false
	}
	if t.Basin != r.Basin || t.Cyclone != r.Cyclone || t.Technique != r.Technique {
		return false
	}

	t.classify(r)

	switch t.class {
	case ClassBest, ClassAnalysis:
		if n := len(t.points); n > 0 {
			gap := r.WarningTime.Sub(t.points[n-1].Valid)
			if gap > MaxBestTimeGap || gap < -MaxBestTimeGap {
				return false
			}
		}
		if t.class == ClassAnalysis && t.TechniqueNumber != r.TechniqueNumber {
			return false
		}
		return true
	default:
		return t.TechniqueNumber == r.TechniqueNumber && t.Init.Equal(r.WarningTime)
	}
}

// Add places r on t, merging its wind radii into an identical point or
// appending a new point.
func (t *Track) Add(r atcf.TrackRecord) error {
	if !t.Accepts(r) {
		return fmt.Errorf("%w: %s", atcf.ErrNoMatch, t.Key())
	}
	return t.add(r)
}

func (t *Track) add(r atcf.TrackRecord) error {
	valid := r.Valid()
	if n := len(t.points); n > 0 && valid.Before(t.points[n-1].Valid) {
		return fmt.Errorf("%w: %s < %s", atcf.ErrNonMonotonic,
			atcf.FormatTime(valid), atcf.FormatTime(t.points[n-1].Valid))
	}

	if r.StormName != "" {
		t.StormName = r.StormName
	}

	idx := -1
	for i := len(t.points) - 1; i >= 0; i-- {
		if t.points[i].Matches(r) {
			t.points[i].MergeRadii(r)
			idx = i
			break
		}
	}
	if idx < 0 {
		t.points = append(t.points, atcf.BuildPoint(r))
		idx = len(t.points) - 1
	}

	t.extendRange(valid)
	if r.WarmCore {
		if t.MinWarmCore.IsZero() || valid.Before(t.MinWarmCore) {
			t.MinWarmCore = valid
		}
		if t.MaxWarmCore.IsZero() || valid.After(t.MaxWarmCore) {
			t.MaxWarmCore = valid
		}
	}

	t.lines = append(t.lines, r.Line)
	t.lineIdx = append(t.lineIdx, idx)
	return nil
}

// appendPoint adds a computed point.
func (t *Track) appendPoint(p atcf.Point) {
	t.points = append(t.points, p)
	t.extendRange(p.Valid)
}

func (t *Track) extendRange(valid time.Time) {
	if t.MinValid.IsZero() || valid.Before(t.MinValid) {
		t.MinValid = valid
	}
	if t.MaxValid.IsZero() || valid.After(t.MaxValid) {
		t.MaxValid = valid
	}
	t.StormID = atcf.StormID(t.Basin, t.Cyclone, t.Init, t.MinValid, t.MaxValid)
}

// Len returns the number of points.
func (t *Track) Len() int { return len(t.points) }

// Point returns point i. An out-of-range index is a fatal error.
func (t *Track) Point(i int) (atcf.Point, error) {
	if i < 0 || i >= len(t.points) {
		return atcf.Point{}, atcf.Fatalf("track %s: point index %d out of range [0, %d)", t.Key(), i, len(t.points))
	}
	return t.points[i], nil
}

// Points returns a copy of the points in valid-time order.
func (t *Track) Points() []atcf.Point {
	return slices.Clone(t.points)
}

// Lines returns the raw rows the track was built from, in input order.
func (t *Track) Lines() []atcf.Line {
	return slices.Clone(t.lines)
}

// PointLines returns the rows that built point i, in input order.
func (t *Track) PointLines(i int) []atcf.Line {
	var out []atcf.Line
	for j, idx := range t.lineIdx {
		if idx == i {
			out = append(out, t.lines[j])
		}
	}
	return out
}

// Synthetic reports whether the points were computed rather than parsed.
func (t *Track) Synthetic() bool { return t.synthetic }

// WithPoints returns a computed copy of t holding only the points at idx.
// Raw rows are not carried over.
func (t *Track) WithPoints(idx []int) *Track {
	out := newSynthetic(t.Basin, t.Cyclone, t.StormName, t.Technique, t.TechniqueNumber, t.Init)
	out.class = t.class
	out.IsOper = t.IsOper
	out.Initials = t.Initials
	for _, i := range idx {
		if i >= 0 && i < len(t.points) {
			out.appendPoint(t.points[i])
		}
	}
	if out.Len() == 0 {
		out.StormID = t.StormID
	}
	return out
}

// Subset rebuilds a track from the raw rows behind the points at idx, which
// must be ascending. Rows are parsed and decoded again and the track keeps
// its classification, so gaps left by dropped points do not split it.
// Computed tracks are copied point by point instead.
func (t *Track) Subset(rc *atcf.RunContext, idx []int) (*Track, error) {
	if t.synthetic || len(t.lines) == 0 {
		return t.WithPoints(idx), nil
	}

	out := &Track{
		Basin:           t.Basin,
		Cyclone:         t.Cyclone,
		StormName:       t.StormName,
		Technique:       t.Technique,
		TechniqueNumber: t.TechniqueNumber,
		Initials:        t.Initials,
		Init:            t.Init,
		IsOper:          t.IsOper,
		class:           t.class,
		checkAnalysis:   t.checkAnalysis,
		StormID:         t.StormID,
	}
	for _, i := range idx {
		for _, raw := range t.PointLines(i) {
			l, err := atcf.ParseLine(raw.Text)
			if err != nil {
				return nil, err
			}
			r, err := atcf.DecodeTrack(rc, l)
			if err != nil {
				return nil, err
			}
			if err := out.add(r); err != nil {
				return nil, fmt.Errorf("rebuild %s: %w", t.Key(), err)
			}
		}
	}
	return out, nil
}

// Has reports whether an identical row already contributed to t.
func (t *Track) Has(l atcf.Line) bool {
	c := l.Canonical()
	for _, have := range t.lines {
		if have.Canonical() == c {
			return true
		}
	}
	return false
}

// ValidIndex returns the index of the point valid at v, or -1.
func (t *Track) ValidIndex(v time.Time) int {
	for i, p := range t.points {
		if p.Valid.Equal(v) {
			return i
		}
	}
	return -1
}

// LeadIndex returns the index of the point at lead d, or -1.
func (t *Track) LeadIndex(d time.Duration) int {
	for i, p := range t.points {
		if p.Lead == d {
			return i
		}
	}
	return -1
}

// AddWatchWarn applies a watch/warning bulletin to every point when the
// bulletin names this storm.
func (t *Track) AddWatchWarn(stormID string, ww atcf.WatchWarn, issued time.Time) {
	if t.StormID != stormID {
		return
	}
	for i := range t.points {
		t.points[i].SetWatchWarn(ww, issued)
	}
}
