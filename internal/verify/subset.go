package verify

import (
	"fmt"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

// KeepSubset builds a new Pair from the kept points only. Parsed tracks are
// rebuilt from the raw rows behind the kept points; computed tracks are
// copied point by point. Values that depend on neighbouring points
// (along/cross-track error, which follows the full verifying track's
// heading) carry over by valid time along with distances to land,
// watch/warning status and rapid intensity annotations.
func (p *Pair) KeepSubset(rc *atcf.RunContext, land LandDistancer) (*Pair, error) {
	var aIdx, bIdx []int
	for _, pp := range p.points {
		if !pp.Keep {
			continue
		}
		if pp.HasA() {
			aIdx = append(aIdx, pp.aIdx)
		}
		if pp.HasB() {
			bIdx = append(bIdx, pp.bIdx)
		}
	}

	a, err := p.ADeck.Subset(rc, aIdx)
	if err != nil {
		return nil, fmt.Errorf("subset forecast track: %w", err)
	}
	b, err := p.BDeck.Subset(rc, bIdx)
	if err != nil {
		return nil, fmt.Errorf("subset verifying track: %w", err)
	}

	out, err := NewPair(a, b, land, p.matchPoints)
	if err != nil {
		return nil, err
	}
	out.StormID = p.StormID
	out.StormName = p.StormName
	out.Init = p.Init

	kept := make(map[int64]PointPair, len(p.points))
	for _, pp := range p.points {
		if pp.Keep {
			kept[pp.Valid.Unix()] = pp
		}
	}
	filtered := out.points[:0]
	for _, pp := range out.points {
		old, ok := kept[pp.Valid.Unix()]
		if !ok {
			continue
		}
		pp.AlongErr, pp.CrossErr = old.AlongErr, old.CrossErr
		pp.ALand, pp.BLand = old.ALand, old.BLand
		pp.A.WatchWarn = old.A.WatchWarn
		pp.B.WatchWarn = old.B.WatchWarn
		pp.ARIRW, pp.APrev = old.ARIRW, old.APrev
		pp.BRIRW, pp.BPrev = old.BRIRW, old.BPrev
		filtered = append(filtered, pp)
	}
	out.points = filtered
	return out, nil
}
