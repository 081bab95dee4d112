package prob

import (
	"fmt"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

// Aggregator collects probability rows into events. It is not safe for
// concurrent use.
type Aggregator struct {
	events []*Event
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// AddLine decodes a probability row and adds it.
func (a *Aggregator) AddLine(rc *atcf.RunContext, l atcf.Line) error {
	r, err := atcf.DecodeProb(rc, l)
	if err != nil {
		return err
	}
	return a.AddRecord(rc, r)
}

// AddRecord appends r's (item, probability) pair to the event sharing its
// header, or opens a new event. Out-of-range probabilities are rejected.
// Genesis rows without a location or not tagged as genesis forecasts are
// dropped quietly.
func (a *Aggregator) AddRecord(rc *atcf.RunContext, r atcf.ProbRecord) error {
	if r.Prob == atcf.MissingInt || r.Prob < 0 || r.Prob > 100 {
		return fmt.Errorf("%w: %d", atcf.ErrBadProbability, r.Prob)
	}

	genesis := r.Kind == atcf.KindProbGN || r.Kind == atcf.KindProbGS
	if genesis {
		if atcf.IsMissing(r.Lat) || atcf.IsMissing(r.Lon) || r.GenOrDis != atcf.GenesisForecastTag {
			rc.Logger.Debug("skipping genesis probability row",
				"technique", r.Technique, "tag", r.GenOrDis, "line", r.Line.Text)
			return nil
		}
	}

	p := Pair{Item: r.Item, Prob: r.Prob}
	for i := len(a.events) - 1; i >= 0; i-- {
		e := a.events[i]
		if e.Technique != r.Technique || !e.Matches(r) {
			continue
		}
		if genesis && e.has(p) {
			rc.Logger.Debug("skipping duplicate genesis probability", "storm_id", e.StormID, "item", p.Item)
			return nil
		}
		e.Pairs = append(e.Pairs, p)
		e.lines = append(e.lines, r.Line)
		return nil
	}

	e := newEvent(r)
	e.Pairs = []Pair{p}
	e.lines = []atcf.Line{r.Line}
	a.events = append(a.events, e)
	return nil
}

// Events returns the events in the order they were opened.
func (a *Aggregator) Events() []*Event {
	out := make([]*Event, len(a.events))
	copy(out, a.events)
	return out
}

// EventsOf returns the events of one kind.
func (a *Aggregator) EventsOf(k atcf.Kind) []*Event {
	var out []*Event
	for _, e := range a.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}
