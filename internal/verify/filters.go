package verify

import (
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

// CheckWaterOnly clears Keep on the first point where either deck is over
// land and on every point after it. It returns how many points it cleared.
func (p *Pair) CheckWaterOnly() int {
	n := 0
	hitLand := false
	for i := range p.points {
		pp := &p.points[i]
		if !hitLand && !atcf.IsMissing(pp.ALand) && !atcf.IsMissing(pp.BLand) &&
			(pp.ALand <= 0 || pp.BLand <= 0) {
			hitLand = true
		}
		if hitLand && pp.Keep {
			pp.Keep = false
			n++
		}
	}
	return n
}

// Deck selects which side of a pair a filter looks at.
type Deck int

const (
	DeckNone Deck = iota
	DeckA
	DeckB
	DeckBoth
)

func (d Deck) String() string {
	switch d {
	case DeckA:
		return "ADECK"
	case DeckB:
		return "BDECK"
	case DeckBoth:
		return "BOTH"
	default:
		return "NONE"
	}
}

// ParseDeck maps ADECK, BDECK, BOTH and NONE, case-insensitively.
func ParseDeck(s string) (Deck, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return DeckNone, nil
	case "ADECK", "A":
		return DeckA, nil
	case "BDECK", "B":
		return DeckB, nil
	case "BOTH":
		return DeckBoth, nil
	default:
		return DeckNone, fmt.Errorf("unknown deck %q", s)
	}
}

// UnmarshalText lets decks appear as plain strings in job files.
func (d *Deck) UnmarshalText(b []byte) error {
	v, err := ParseDeck(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// RIRWWindow configures intensity change detection on one deck. In exact
// mode the reference intensity is the one exactly Lookback earlier; otherwise
// it is the extreme over the preceding Lookback.
type RIRWWindow struct {
	Lookback  time.Duration
	Exact     bool
	Threshold Threshold
}

func (w RIRWWindow) validate(name string) error {
	if w.Exact {
		return nil
	}
	if !w.Threshold.IsIncrease() && !w.Threshold.IsDecrease() {
		return atcf.Fatalf("%s rapid intensity window threshold %q must use <, <=, > or >=", name, w.Threshold)
	}
	return nil
}

// RIRWJob selects the deck or decks to test and their windows.
type RIRWJob struct {
	Track Deck
	A     RIRWWindow
	B     RIRWWindow
}

type rirwResult struct {
	flag  Qualify
	prev  float64
	found bool
}

// CheckRIRW annotates every point with each evaluated deck's reference
// intensity and qualification, then clears Keep on kept points that do not
// qualify. With DeckBoth a point survives when either deck qualifies. An
// exact-mode deck with no sample at the lookback offset leaves the point
// alone. A windowed threshold that is not an inequality is a fatal error.
func (p *Pair) CheckRIRW(job RIRWJob) (int, error) {
	if job.Track == DeckNone {
		return 0, nil
	}
	useA := job.Track == DeckA || job.Track == DeckBoth
	useB := job.Track == DeckB || job.Track == DeckBoth
	if useA {
		if err := job.A.validate("ADECK"); err != nil {
			return 0, err
		}
	}
	if useB {
		if err := job.B.validate("BDECK"); err != nil {
			return 0, err
		}
	}

	var ra, rb []rirwResult
	if useA {
		ra = p.evalRIRW(job.A, func(pp PointPair) float64 { return pp.A.VMax })
		for i, r := range ra {
			p.points[i].ARIRW, p.points[i].APrev = r.flag, r.prev
		}
	}
	if useB {
		rb = p.evalRIRW(job.B, func(pp PointPair) float64 { return pp.B.VMax })
		for i, r := range rb {
			p.points[i].BRIRW, p.points[i].BPrev = r.flag, r.prev
		}
	}

	n := 0
	for i := range p.points {
		pp := &p.points[i]
		if !pp.Keep {
			continue
		}
		var keep bool
		switch job.Track {
		case DeckA:
			if job.A.Exact && !ra[i].found {
				continue
			}
			keep = ra[i].flag == QualifyYes
		case DeckB:
			if job.B.Exact && !rb[i].found {
				continue
			}
			keep = rb[i].flag == QualifyYes
		case DeckBoth:
			if job.A.Exact && !ra[i].found && job.B.Exact && !rb[i].found {
				continue
			}
			keep = ra[i].flag == QualifyYes || rb[i].flag == QualifyYes
		}
		if !keep {
			pp.Keep = false
			n++
		}
	}
	return n, nil
}

func (p *Pair) evalRIRW(w RIRWWindow, vmax func(PointPair) float64) []rirwResult {
	out := make([]rirwResult, len(p.points))
	for i, cur := range p.points {
		r := rirwResult{flag: QualifyUnknown, prev: atcf.Missing}
		for j := range i {
			prv := p.points[j]
			delta := cur.Valid.Sub(prv.Valid)
			if delta <= 0 {
				continue
			}
			v := vmax(prv)
			if w.Exact {
				// A deck absent at the offset time is no sample.
				if delta == w.Lookback && !atcf.IsMissing(v) {
					r.found = true
					r.prev = v
				}
				continue
			}
			if delta > w.Lookback || atcf.IsMissing(v) {
				continue
			}
			r.found = true
			switch {
			case atcf.IsMissing(r.prev):
				r.prev = v
			case w.Threshold.IsIncrease() && v < r.prev:
				r.prev = v
			case w.Threshold.IsDecrease() && v > r.prev:
				r.prev = v
			}
		}

		if c := vmax(cur); !atcf.IsMissing(c) && !atcf.IsMissing(r.prev) {
			r.flag = QualifyNo
			if w.Threshold.Check(c - r.prev) {
				r.flag = QualifyYes
			}
		}
		out[i] = r
	}
	return out
}
