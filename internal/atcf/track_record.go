package atcf

import (
	"fmt"
	"strings"
	"time"
)

const thermoParams = "THERMO PARAMS"

// TrackRecord is the typed content of one Track or GenTrack line.
type TrackRecord struct {
	Header

	Line           Line
	GenesisStamp   string
	ForecastPeriod int
	Lat            float64
	Lon            float64
	VMax           int
	MSLP           int
	Level          CycloneLevel
	WindIntensity  int
	Quadrant       Quadrant
	Radius         [4]int
	IsobarPressure int
	IsobarRadius   int
	MaxWindRadius  int
	Gusts          int
	EyeDiameter    int
	Subregion      Subregion
	MaxSeas        int
	Initials       string
	StormDirection int
	StormSpeed     int
	StormName      string
	Depth          SystemsDepth
	WaveHeight     int
	SeasCode       Quadrant
	SeasRadius     [4]int
	WarmCore       bool

	// Genesis guidance diagnostics.
	ParameterB     float64
	ThermWindLower float64
	ThermWindUpper float64
	Mean850Vort    int
	Max850Vort     int
	Mean700Vort    int
	Max700Vort     int
}

// Valid is the absolute valid time. Best tracks add the technique number as minutes.
func (r TrackRecord) Valid() time.Time {
	t := r.WarningTime.Add(time.Duration(r.ForecastPeriod) * time.Hour)
	if r.IsBest && r.TechniqueNumber != MissingInt {
		t = t.Add(time.Duration(r.TechniqueNumber) * time.Minute)
	}
	return t
}

// Lead is zero for best tracks and the forecast period otherwise.
func (r TrackRecord) Lead() time.Duration {
	if r.IsBest {
		return 0
	}
	return time.Duration(r.ForecastPeriod) * time.Hour
}

// DecodeTrack maps a Track or GenTrack line to a TrackRecord using the
// column layout for its kind.
func DecodeTrack(rc *RunContext, l Line) (TrackRecord, error) {
	lay, ok := trackLayoutFor(l.Kind)
	if !ok {
		return TrackRecord{}, fmt.Errorf("%w: %s", ErrWrongLineType, l.Kind)
	}

	h, err := decodeHeader(rc, l, lay.TechniqueNumber, lay.Technique)
	if err != nil {
		return TrackRecord{}, err
	}

	r := TrackRecord{Header: h, Line: l}
	get := func(col int) string {
		if col == absent {
			return ""
		}
		return l.Field(col)
	}
	nonZero := func(col int) int { return ParseIntNonZero(get(col)) }

	if lay.GenesisStamp != absent {
		r.GenesisStamp = get(lay.GenesisStamp)
	}

	r.ForecastPeriod = ParseInt(get(lay.ForecastPeriod))
	if r.ForecastPeriod == MissingInt {
		return TrackRecord{}, fmt.Errorf("%w: forecast period", ErrMissingField)
	}

	r.Lat = decodeLat(rc, l, get(lay.Lat))
	r.Lon = decodeLon(rc, l, get(lay.Lon))

	r.VMax = nonZero(lay.VMax)
	r.MSLP = nonZero(lay.MSLP)
	r.Level = ParseCycloneLevel(get(lay.Level))
	r.WindIntensity = nonZero(lay.WindIntensity)
	r.Quadrant = ParseQuadrant(get(lay.Quadrant))
	for i, col := range lay.Radius {
		r.Radius[i] = nonZero(col)
	}
	r.IsobarPressure = nonZero(lay.IsobarPressure)
	r.IsobarRadius = nonZero(lay.IsobarRadius)
	r.MaxWindRadius = nonZero(lay.MaxWindRadius)
	r.Gusts = nonZero(lay.Gusts)
	r.EyeDiameter = nonZero(lay.EyeDiameter)
	r.Subregion = ParseSubregion(get(lay.Subregion))
	r.MaxSeas = nonZero(lay.MaxSeas)
	r.Initials = get(lay.Initials)
	r.StormDirection = ParseInt(get(lay.StormDirection))
	r.StormSpeed = ParseInt(get(lay.StormSpeed))
	r.StormName = get(lay.StormName)
	r.Depth = ParseSystemsDepth(get(lay.Depth))
	r.WaveHeight = nonZero(lay.WaveHeight)
	r.SeasCode = ParseQuadrant(get(lay.SeasCode))
	for i, col := range lay.SeasRadius {
		r.SeasRadius[i] = nonZero(col)
	}

	switch l.Kind {
	case KindGenTrack:
		r.WarmCore = strings.EqualFold(get(lay.WarmCore), "Y")
	default:
		r.WarmCore = strings.EqualFold(get(lay.UserDefined), thermoParams) &&
			strings.EqualFold(get(lay.WarmCore), "Y")
	}

	r.ParameterB = ParseTenths(get(lay.ParameterB))
	r.ThermWindLower = ParseTenths(get(lay.ThermWindLower))
	r.ThermWindUpper = ParseTenths(get(lay.ThermWindUpper))
	r.Mean850Vort = ParseInt(get(lay.Mean850Vort))
	r.Max850Vort = ParseInt(get(lay.Max850Vort))
	r.Mean700Vort = ParseInt(get(lay.Mean700Vort))
	r.Max700Vort = ParseInt(get(lay.Max700Vort))

	return r, nil
}

func decodeLat(rc *RunContext, l Line, s string) float64 {
	v, ok := ParseLat(s)
	if !ok {
		rc.Logger.Warn("bad latitude", "value", s, "line", l.Text)
	}
	return v
}

func decodeLon(rc *RunContext, l Line, s string) float64 {
	v, ok := ParseLon(s)
	if !ok {
		rc.Logger.Warn("bad longitude", "value", s, "line", l.Text)
	}
	return v
}
