// Package prob groups ATCF probability rows that share a header into single
// multi-threshold probability events.
package prob

import (
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

// Pair is one threshold item and its forecast probability in percent.
type Pair struct {
	Item string `json:"item"`
	Prob int    `json:"prob"`
}

// Event is one probabilistic forecast issuance assembled from one or more rows.
type Event struct {
	Kind      atcf.Kind `json:"kind"`
	StormID   string    `json:"storm_id"`
	Basin     string    `json:"basin"`
	Cyclone   string    `json:"cyclone"`
	Technique string    `json:"technique"`
	Init      time.Time `json:"init"`
	Valid     time.Time `json:"valid"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Pairs     []Pair    `json:"pairs"`

	// Rapid intensification/weakening.
	VFinal      int    `json:"v_final,omitempty"`
	Initials    string `json:"initials,omitempty"`
	WindowBegin int    `json:"window_begin,omitempty"` // hours
	WindowEnd   int    `json:"window_end,omitempty"`   // hours

	// Genesis.
	GenOrDis    string    `json:"gen_or_dis,omitempty"`
	GenesisTime time.Time `json:"genesis_time,omitzero"`

	lines []atcf.Line
}

func newEvent(r atcf.ProbRecord) *Event {
	return &Event{
		Kind:        r.Kind,
		StormID:     r.StormID(),
		Basin:       r.Basin,
		Cyclone:     r.Cyclone,
		Technique:   r.Technique,
		Init:        r.WarningTime,
		Valid:       r.Valid(),
		Lat:         r.Lat,
		Lon:         r.Lon,
		VFinal:      r.VFinal,
		Initials:    r.Initials,
		WindowBegin: r.WindowBegin,
		WindowEnd:   r.WindowEnd,
		GenOrDis:    r.GenOrDis,
		GenesisTime: r.GenesisTime,
	}
}

// Matches reports whether r carries exactly this event's header.
func (e *Event) Matches(r atcf.ProbRecord) bool {
	if e.Kind != r.Kind ||
		e.StormID != r.StormID() ||
		e.Basin != r.Basin ||
		e.Cyclone != r.Cyclone ||
		e.Technique != r.Technique ||
		!e.Init.Equal(r.WarningTime) ||
		!e.Valid.Equal(r.Valid()) ||
		e.Lat != r.Lat ||
		e.Lon != r.Lon {
		return false
	}

	switch e.Kind {
	case atcf.KindProbRIRW:
		return e.VFinal == r.VFinal && e.WindowBegin == r.WindowBegin && e.WindowEnd == r.WindowEnd
	case atcf.KindProbGN, atcf.KindProbGS:
		return e.GenesisTime.Equal(r.GenesisTime)
	default:
		return true
	}
}

func (e *Event) has(p Pair) bool {
	for _, have := range e.Pairs {
		if have == p {
			return true
		}
	}
	return false
}

// Prob returns the probability for item, or atcf.MissingInt.
func (e *Event) Prob(item string) int {
	for _, p := range e.Pairs {
		if p.Item == item {
			return p.Prob
		}
	}
	return atcf.MissingInt
}

// WindowBeginTime is the absolute start of a rapid intensity change window.
func (e *Event) WindowBeginTime() (time.Time, bool) {
	return e.windowTime(e.WindowBegin)
}

// WindowEndTime is the absolute end of a rapid intensity change window.
func (e *Event) WindowEndTime() (time.Time, bool) {
	return e.windowTime(e.WindowEnd)
}

func (e *Event) windowTime(hours int) (time.Time, bool) {
	if e.Init.IsZero() || hours == atcf.MissingInt {
		return time.Time{}, false
	}
	return e.Init.Add(time.Duration(hours) * time.Hour), true
}

// Lines returns the rows the event was built from.
func (e *Event) Lines() []atcf.Line {
	out := make([]atcf.Line, len(e.lines))
	copy(out, e.lines)
	return out
}
