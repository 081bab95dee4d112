package verify

import (
	"math"
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/prob"
	"github.com/couchcryptid/storm-track-verify/internal/track"
)

// TrackIndex looks verifying tracks up by key or by storm and time.
type TrackIndex struct {
	byKey map[track.Key]*track.Track
	order []*track.Track
}

// NewTrackIndex indexes tracks in the given order.
func NewTrackIndex(tracks []*track.Track) *TrackIndex {
	x := &TrackIndex{byKey: make(map[track.Key]*track.Track, len(tracks))}
	for _, t := range tracks {
		k := t.Key()
		if _, ok := x.byKey[k]; ok {
			continue
		}
		x.byKey[k] = t
		x.order = append(x.order, t)
	}
	return x
}

// Get resolves a key.
func (x *TrackIndex) Get(k track.Key) (*track.Track, bool) {
	t, ok := x.byKey[k]
	return t, ok
}

// Len returns the number of indexed tracks.
func (x *TrackIndex) Len() int { return len(x.order) }

// ProbRIRWPair is a rapid intensity change probability event matched with
// the verifying track over its window. The track is held by key and
// resolved through a TrackIndex where needed.
type ProbRIRWPair struct {
	Event *prob.Event `json:"event"`
	BDeck track.Key   `json:"bdeck"`

	BLat      float64           `json:"blat"`
	BLon      float64           `json:"blon"`
	BBegV     float64           `json:"bbeg_v"`
	BEndV     float64           `json:"bend_v"`
	BMinV     float64           `json:"bmin_v"`
	BMaxV     float64           `json:"bmax_v"`
	BBegLevel atcf.CycloneLevel `json:"bbeg_level"`
	BEndLevel atcf.CycloneLevel `json:"bend_level"`
	XErr      float64           `json:"x_err"`
	YErr      float64           `json:"y_err"`
	TrackErr  float64           `json:"track_err"`
}

// Change is the verifying intensity change over the window.
func (p ProbRIRWPair) Change() float64 {
	return diff(p.BEndV, p.BBegV)
}

// PairProbRIRW matches ev with the first indexed track of the same storm
// that has points at both ends of the event window. It returns false when
// ev has no init time or window, or no track covers the window.
func PairProbRIRW(ev *prob.Event, idx *TrackIndex) (ProbRIRWPair, bool) {
	if ev == nil || ev.Kind != atcf.KindProbRIRW {
		return ProbRIRWPair{}, false
	}
	beg, ok := ev.WindowBeginTime()
	if !ok {
		return ProbRIRWPair{}, false
	}
	end, ok := ev.WindowEndTime()
	if !ok {
		return ProbRIRWPair{}, false
	}

	for _, t := range idx.order {
		if t.Basin != ev.Basin || t.Cyclone != ev.Cyclone {
			continue
		}
		ib, ie := t.ValidIndex(beg), t.ValidIndex(end)
		if ib < 0 || ie < 0 {
			continue
		}
		return newProbRIRWPair(ev, t, ib, ie), true
	}
	return ProbRIRWPair{}, false
}

func newProbRIRWPair(ev *prob.Event, t *track.Track, ib, ie int) ProbRIRWPair {
	pts := t.Points()
	b, e := pts[ib], pts[ie]
	p := ProbRIRWPair{
		Event:     ev,
		BDeck:     t.Key(),
		BLat:      e.Lat,
		BLon:      e.Lon,
		BBegV:     b.VMax,
		BEndV:     e.VMax,
		BMinV:     atcf.Missing,
		BMaxV:     atcf.Missing,
		BBegLevel: levelOf(b.VMax),
		BEndLevel: levelOf(e.VMax),
	}

	lo, hi := min(ib, ie), max(ib, ie)
	for _, pt := range pts[lo : hi+1] {
		if atcf.IsMissing(pt.VMax) {
			continue
		}
		if atcf.IsMissing(p.BMinV) || pt.VMax < p.BMinV {
			p.BMinV = pt.VMax
		}
		if atcf.IsMissing(p.BMaxV) || pt.VMax > p.BMaxV {
			p.BMaxV = pt.VMax
		}
	}

	p.XErr, p.YErr, p.TrackErr = XYTrackError(ev.Lat, ev.Lon, p.BLat, p.BLon)
	return p
}

func levelOf(vmax float64) atcf.CycloneLevel {
	if atcf.IsMissing(vmax) {
		return atcf.LevelNone
	}
	return atcf.WindSpeedToLevel(int(math.Round(vmax)))
}

// WindowTimes returns the absolute begin and end of the event window.
func (p ProbRIRWPair) WindowTimes() (beg, end time.Time) {
	beg, _ = p.Event.WindowBeginTime()
	end, _ = p.Event.WindowEndTime()
	return beg, end
}
