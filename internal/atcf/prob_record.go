package atcf

import (
	"fmt"
	"time"
)

// GenesisForecastTag marks genesis probability lines that forecast formation
// rather than dissipation.
const GenesisForecastTag = "genFcst"

// ProbRecord is the typed content of one probability line.
type ProbRecord struct {
	Header

	Line           Line
	ForecastPeriod int
	Lat            float64
	Lon            float64
	Prob           int
	Item           string

	// Rapid intensification/weakening columns.
	VFinal      int
	Initials    string
	WindowBegin int // hours after init
	WindowEnd   int // hours after init

	// Genesis columns.
	GenOrDis    string
	GenesisTime time.Time
}

// Valid is the warning time plus the forecast period, or the warning time
// when no period is given.
func (r ProbRecord) Valid() time.Time {
	if r.ForecastPeriod == MissingInt {
		return r.WarningTime
	}
	return r.WarningTime.Add(time.Duration(r.ForecastPeriod) * time.Hour)
}

// StormID derives the storm id from the record's own times.
func (r ProbRecord) StormID() string {
	v := r.Valid()
	return StormID(r.Basin, r.Cyclone, r.WarningTime, v, v)
}

// DecodeProb maps a probability line to a ProbRecord.
func DecodeProb(rc *RunContext, l Line) (ProbRecord, error) {
	lay, ok := probLayoutFor(l.Kind)
	if !ok {
		return ProbRecord{}, fmt.Errorf("%w: %s", ErrWrongLineType, l.Kind)
	}

	h, err := decodeHeader(rc, l, absent, lay.Technique)
	if err != nil {
		return ProbRecord{}, err
	}

	get := func(col int) string {
		if col == absent {
			return ""
		}
		return l.Field(col)
	}

	r := ProbRecord{
		Header:         h,
		Line:           l,
		ForecastPeriod: ParseInt(get(lay.ForecastPeriod)),
		Lat:            decodeLat(rc, l, get(lay.Lat)),
		Lon:            decodeLon(rc, l, get(lay.Lon)),
		Prob:           ParseInt(get(lay.Prob)),
		Item:           get(lay.ProbItem),
		VFinal:         ParseInt(get(lay.VFinal)),
		Initials:       get(lay.Initials),
		WindowBegin:    ParseInt(get(lay.WindowBegin)),
		WindowEnd:      ParseInt(get(lay.WindowEnd)),
		GenOrDis:       get(lay.GenOrDis),
	}

	if s := get(lay.GenesisTime); s != "" {
		gt, err := ParseTime(s)
		if err != nil {
			return ProbRecord{}, fmt.Errorf("genesis time: %w", err)
		}
		r.GenesisTime = gt
	}

	return r, nil
}
