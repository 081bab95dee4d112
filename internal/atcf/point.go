package atcf

import "time"

// WindThresholds are the wind-radii intensities tracked on every point, in knots.
var WindThresholds = [3]int{34, 50, 64}

// WindRadii holds one threshold's radii in nautical miles, either a single
// full-circle value or four quadrant values.
type WindRadii struct {
	Intensity int     `json:"intensity"`
	Full      float64 `json:"full"`
	NE        float64 `json:"ne"`
	SE        float64 `json:"se"`
	SW        float64 `json:"sw"`
	NW        float64 `json:"nw"`
}

// NewWindRadii returns an empty set for the given threshold.
func NewWindRadii(intensity int) WindRadii {
	return WindRadii{Intensity: intensity, Full: Missing, NE: Missing, SE: Missing, SW: Missing, NW: Missing}
}

// IsSet reports whether any radius is present.
func (w WindRadii) IsSet() bool {
	return !IsMissing(w.Full) || !IsMissing(w.NE) || !IsMissing(w.SE) ||
		!IsMissing(w.SW) || !IsMissing(w.NW)
}

// Quadrants returns NE, SE, SW, NW in order.
func (w WindRadii) Quadrants() [4]float64 {
	return [4]float64{w.NE, w.SE, w.SW, w.NW}
}

// setQuadrants stores radii reported clockwise from ref.
func (w *WindRadii) setQuadrants(ref Quadrant, r [4]int) {
	f := func(v int) float64 {
		if v == MissingInt {
			return Missing
		}
		return float64(v)
	}

	*w = NewWindRadii(w.Intensity)
	switch ref {
	case QuadFullCircle:
		w.Full = f(r[0])
	case QuadNE:
		w.NE, w.SE, w.SW, w.NW = f(r[0]), f(r[1]), f(r[2]), f(r[3])
	case QuadSE:
		w.NE, w.SE, w.SW, w.NW = f(r[3]), f(r[0]), f(r[1]), f(r[2])
	case QuadSW:
		w.NE, w.SE, w.SW, w.NW = f(r[2]), f(r[3]), f(r[0]), f(r[1])
	case QuadNW:
		w.NE, w.SE, w.SW, w.NW = f(r[1]), f(r[2]), f(r[3]), f(r[0])
	}
}

// Point is one timestamped observation on a track. Numeric fields use
// Missing when absent.
type Point struct {
	Valid          time.Time          `json:"valid"`
	Lead           time.Duration      `json:"lead"`
	Lat            float64            `json:"lat"`
	Lon            float64            `json:"lon"`
	VMax           float64            `json:"vmax"`
	MSLP           float64            `json:"mslp"`
	Level          CycloneLevel       `json:"level"`
	IsobarPressure float64            `json:"isobar_pressure"`
	IsobarRadius   float64            `json:"isobar_radius"`
	MaxWindRadius  float64            `json:"max_wind_radius"`
	Gusts          float64            `json:"gusts"`
	EyeDiameter    float64            `json:"eye_diameter"`
	Subregion      Subregion          `json:"subregion"`
	Direction      float64            `json:"direction"`
	Speed          float64            `json:"speed"`
	Depth          SystemsDepth       `json:"depth"`
	WatchWarn      WatchWarn          `json:"watch_warn"`
	WarmCore       bool               `json:"warm_core"`
	Wind           [3]WindRadii       `json:"wind"`
	Diagnostics    map[string]float64 `json:"diagnostics,omitempty"`
}

// EmptyPoint returns a point with every value missing.
func EmptyPoint() Point {
	p := Point{
		Lat: Missing, Lon: Missing, VMax: Missing, MSLP: Missing,
		IsobarPressure: Missing, IsobarRadius: Missing, MaxWindRadius: Missing,
		Gusts: Missing, EyeDiameter: Missing, Direction: Missing, Speed: Missing,
	}
	for i, kts := range WindThresholds {
		p.Wind[i] = NewWindRadii(kts)
	}
	return p
}

// IsEmpty reports whether p carries no valid time.
func (p Point) IsEmpty() bool { return p.Valid.IsZero() }

// BuildPoint creates a point from a decoded track record.
func BuildPoint(r TrackRecord) Point {
	p := EmptyPoint()
	p.Valid = r.Valid()
	p.Lead = r.Lead()
	p.Lat = r.Lat
	p.Lon = r.Lon
	p.VMax = intValue(r.VMax)
	p.MSLP = intValue(r.MSLP)
	p.Level = r.Level
	p.IsobarPressure = intValue(r.IsobarPressure)
	p.IsobarRadius = intValue(r.IsobarRadius)
	p.MaxWindRadius = intValue(r.MaxWindRadius)
	p.Gusts = intValue(r.Gusts)
	p.EyeDiameter = intValue(r.EyeDiameter)
	p.Subregion = r.Subregion
	p.Direction = intValue(r.StormDirection)
	p.Speed = intValue(r.StormSpeed)
	p.Depth = r.Depth
	p.WarmCore = r.WarmCore
	p.MergeRadii(r)
	if r.Kind == KindGenTrack {
		p.Diagnostics = genesisDiagnostics(r)
	}
	return p
}

// Diagnostic names carried on genesis guidance rows.
const (
	DiagParameterB     = "parameter_b"
	DiagThermWindLower = "therm_wind_lower"
	DiagThermWindUpper = "therm_wind_upper"
	DiagMean850Vort    = "mean_850_vort"
	DiagMax850Vort     = "max_850_vort"
	DiagMean700Vort    = "mean_700_vort"
	DiagMax700Vort     = "max_700_vort"
)

func genesisDiagnostics(r TrackRecord) map[string]float64 {
	d := make(map[string]float64)
	set := func(name string, v float64) {
		if !IsMissing(v) {
			d[name] = v
		}
	}
	set(DiagParameterB, r.ParameterB)
	set(DiagThermWindLower, r.ThermWindLower)
	set(DiagThermWindUpper, r.ThermWindUpper)
	set(DiagMean850Vort, intValue(r.Mean850Vort))
	set(DiagMax850Vort, intValue(r.Max850Vort))
	set(DiagMean700Vort, intValue(r.Mean700Vort))
	set(DiagMax700Vort, intValue(r.Max700Vort))
	if len(d) == 0 {
		return nil
	}
	return d
}

// MergeRadii stores the record's wind radii in the slot for its threshold.
// Records for other thresholds, or without radii, leave p unchanged.
func (p *Point) MergeRadii(r TrackRecord) {
	for i := range p.Wind {
		if p.Wind[i].Intensity == r.WindIntensity {
			p.Wind[i].setQuadrants(r.Quadrant, r.Radius)
			return
		}
	}
}

// Matches reports whether r describes the same observation as p, so that
// its radii belong on p rather than on a new point.
func (p Point) Matches(r TrackRecord) bool {
	return p.Valid.Equal(r.Valid()) &&
		p.Lead == r.Lead() &&
		p.Lat == r.Lat &&
		p.Lon == r.Lon &&
		p.VMax == intValue(r.VMax) &&
		p.MSLP == intValue(r.MSLP) &&
		p.Level == r.Level
}

// SetWatchWarn raises the watch/warning status when the bulletin time is
// not after the point.
func (p *Point) SetWatchWarn(ww WatchWarn, issued time.Time) {
	if !p.Valid.Before(issued) {
		p.WatchWarn = MaxWatchWarn(p.WatchWarn, ww)
	}
}

func intValue(v int) float64 {
	if v == MissingInt {
		return Missing
	}
	return float64(v)
}
