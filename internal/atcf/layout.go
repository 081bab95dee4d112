package atcf

// Column offsets shared by every kind.
const (
	colBasin       = 0
	colCyclone     = 1
	colWarningTime = 2
)

// absent marks a column a kind does not carry.
const absent = -1

// trackLayout locates every track column for one line kind.
type trackLayout struct {
	GenesisStamp    int
	TechniqueNumber int
	Technique       int
	ForecastPeriod  int
	Lat             int
	Lon             int
	VMax            int
	MSLP            int
	Level           int
	WindIntensity   int
	Quadrant        int
	Radius          [4]int
	IsobarPressure  int
	IsobarRadius    int
	MaxWindRadius   int
	Gusts           int
	EyeDiameter     int
	Subregion       int
	MaxSeas         int
	Initials        int
	StormDirection  int
	StormSpeed      int
	StormName       int
	Depth           int
	WaveHeight      int
	SeasCode        int
	SeasRadius      [4]int
	UserDefined     int
	WarmCore        int
	ParameterB      int
	ThermWindLower  int
	ThermWindUpper  int
	Mean850Vort     int
	Max850Vort      int
	Mean700Vort     int
	Max700Vort      int
}

var plainTrackLayout = trackLayout{
	GenesisStamp:    absent,
	TechniqueNumber: 3,
	Technique:       4,
	ForecastPeriod:  5,
	Lat:             6,
	Lon:             7,
	VMax:            8,
	MSLP:            9,
	Level:           10,
	WindIntensity:   11,
	Quadrant:        12,
	Radius:          [4]int{13, 14, 15, 16},
	IsobarPressure:  17,
	IsobarRadius:    18,
	MaxWindRadius:   19,
	Gusts:           20,
	EyeDiameter:     21,
	Subregion:       22,
	MaxSeas:         23,
	Initials:        24,
	StormDirection:  25,
	StormSpeed:      26,
	StormName:       27,
	Depth:           28,
	WaveHeight:      29,
	SeasCode:        30,
	SeasRadius:      [4]int{31, 32, 33, 34},
	UserDefined:     35,
	WarmCore:        36,
	ParameterB:      absent,
	ThermWindLower:  absent,
	ThermWindUpper:  absent,
	Mean850Vort:     absent,
	Max850Vort:      absent,
	Mean700Vort:     absent,
	Max700Vort:      absent,
}

// genTrackLayout inserts the genesis stamp at column 3, shifting the shared
// columns by one. Genesis guidance then carries its own diagnostic tail.
var genTrackLayout = trackLayout{
	GenesisStamp:    3,
	TechniqueNumber: 4,
	Technique:       5,
	ForecastPeriod:  6,
	Lat:             7,
	Lon:             8,
	VMax:            9,
	MSLP:            10,
	Level:           11,
	WindIntensity:   12,
	Quadrant:        13,
	Radius:          [4]int{14, 15, 16, 17},
	IsobarPressure:  18,
	IsobarRadius:    19,
	MaxWindRadius:   20,
	Gusts:           absent,
	EyeDiameter:     absent,
	Subregion:       absent,
	MaxSeas:         absent,
	Initials:        absent,
	StormDirection:  21,
	StormSpeed:      22,
	StormName:       absent,
	Depth:           absent,
	WaveHeight:      absent,
	SeasCode:        absent,
	SeasRadius:      [4]int{absent, absent, absent, absent},
	UserDefined:     absent,
	ParameterB:      23,
	ThermWindLower:  24,
	ThermWindUpper:  25,
	WarmCore:        26,
	Mean850Vort:     27,
	Max850Vort:      28,
	Mean700Vort:     29,
	Max700Vort:      30,
}

func trackLayoutFor(k Kind) (trackLayout, bool) {
	switch k {
	case KindTrack:
		return plainTrackLayout, true
	case KindGenTrack:
		return genTrackLayout, true
	default:
		return trackLayout{}, false
	}
}

// probLayout locates probability columns. Column 3 holds the type code, so
// probability lines have no technique number.
type probLayout struct {
	Technique      int
	ForecastPeriod int
	Lat            int
	Lon            int
	Prob           int
	ProbItem       int
	VFinal         int
	Initials       int
	WindowBegin    int
	WindowEnd      int
	GenOrDis       int
	GenesisTime    int
}

var baseProbLayout = probLayout{
	Technique:      4,
	ForecastPeriod: 5,
	Lat:            6,
	Lon:            7,
	Prob:           8,
	ProbItem:       9,
	VFinal:         absent,
	Initials:       absent,
	WindowBegin:    absent,
	WindowEnd:      absent,
	GenOrDis:       absent,
	GenesisTime:    absent,
}

func probLayoutFor(k Kind) (probLayout, bool) {
	l := baseProbLayout
	switch k {
	case KindProbRIRW:
		l.VFinal = 10
		l.Initials = 11
		l.WindowBegin = 12
		l.WindowEnd = 13
	case KindProbGN, KindProbGS:
		l.Initials = 10
		l.GenOrDis = 11
		l.GenesisTime = 12
	case KindProbTR, KindProbIN, KindProbWD, KindProbPR:
	default:
		return probLayout{}, false
	}
	return l, true
}
