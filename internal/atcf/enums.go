package atcf

import "strings"

// BestTechnique and OperTechnique are the built-in best and operational track names.
const (
	BestTechnique = "BEST"
	OperTechnique = "CARQ"
)

// CycloneLevel is the storm development level column, e.g. "TS".
type CycloneLevel string

const (
	LevelNone                  CycloneLevel = ""
	LevelDisturbance           CycloneLevel = "DB"
	LevelTropicalDepression    CycloneLevel = "TD"
	LevelTropicalStorm         CycloneLevel = "TS"
	LevelTyphoon               CycloneLevel = "TY"
	LevelSuperTyphoon          CycloneLevel = "ST"
	LevelTropicalCyclone       CycloneLevel = "TC"
	LevelHurricane             CycloneLevel = "HU"
	LevelSubtropicalDepression CycloneLevel = "SD"
	LevelSubtropicalStorm      CycloneLevel = "SS"
	LevelExtratropical         CycloneLevel = "EX"
	LevelInland                CycloneLevel = "IN"
	LevelDissipating           CycloneLevel = "DS"
	LevelLow                   CycloneLevel = "LO"
	LevelTropicalWave          CycloneLevel = "WV"
	LevelExtrapolated          CycloneLevel = "ET"
)

var cycloneLevels = map[string]CycloneLevel{
	"DB": LevelDisturbance, "TD": LevelTropicalDepression, "TS": LevelTropicalStorm,
	"TY": LevelTyphoon, "ST": LevelSuperTyphoon, "TC": LevelTropicalCyclone,
	"HU": LevelHurricane, "SD": LevelSubtropicalDepression, "SS": LevelSubtropicalStorm,
	"EX": LevelExtratropical, "IN": LevelInland, "DS": LevelDissipating,
	"LO": LevelLow, "WV": LevelTropicalWave, "ET": LevelExtrapolated,
}

// ParseCycloneLevel maps a level code to a CycloneLevel. Unknown codes,
// including "XX", are LevelNone.
func ParseCycloneLevel(s string) CycloneLevel {
	return cycloneLevels[strings.TrimSpace(s)]
}

// WindSpeedToLevel derives a level from maximum sustained wind in knots.
func WindSpeedToLevel(kts int) CycloneLevel {
	switch {
	case kts == MissingInt:
		return LevelNone
	case kts <= 33:
		return LevelTropicalDepression
	case kts <= 63:
		return LevelTropicalStorm
	default:
		return LevelHurricane
	}
}

// Quadrant is the reference quadrant code for a set of radii.
type Quadrant string

const (
	QuadNone       Quadrant = ""
	QuadFullCircle Quadrant = "AAA"
	QuadN          Quadrant = "NNQ"
	QuadE          Quadrant = "EEQ"
	QuadS          Quadrant = "SSQ"
	QuadW          Quadrant = "WWQ"
	QuadNE         Quadrant = "NEQ"
	QuadSE         Quadrant = "SEQ"
	QuadSW         Quadrant = "SWQ"
	QuadNW         Quadrant = "NWQ"
)

// ParseQuadrant maps a quadrant code. Unknown codes are QuadNone.
func ParseQuadrant(s string) Quadrant {
	switch q := Quadrant(strings.TrimSpace(s)); q {
	case QuadFullCircle, QuadN, QuadE, QuadS, QuadW, QuadNE, QuadSE, QuadSW, QuadNW:
		return q
	default:
		return QuadNone
	}
}

// Subregion is the ATCF subregion code.
type Subregion string

const (
	SubregionNone           Subregion = ""
	SubregionArabianSea     Subregion = "A"
	SubregionBayOfBengal    Subregion = "B"
	SubregionCentralPacific Subregion = "C"
	SubregionEastPacific    Subregion = "E"
	SubregionAtlantic       Subregion = "L"
	SubregionSouthPacific   Subregion = "P"
	SubregionSouthAtlantic  Subregion = "Q"
	SubregionSouthIndian    Subregion = "S"
	SubregionWestPacific    Subregion = "W"
)

// ParseSubregion maps a subregion code. Unknown codes are SubregionNone.
func ParseSubregion(s string) Subregion {
	switch r := Subregion(strings.TrimSpace(s)); r {
	case SubregionArabianSea, SubregionBayOfBengal, SubregionCentralPacific,
		SubregionEastPacific, SubregionAtlantic, SubregionSouthPacific,
		SubregionSouthAtlantic, SubregionSouthIndian, SubregionWestPacific:
		return r
	default:
		return SubregionNone
	}
}

// SystemsDepth is the vertical depth of the system.
type SystemsDepth string

const (
	DepthNone    SystemsDepth = ""
	DepthDeep    SystemsDepth = "D"
	DepthMedium  SystemsDepth = "M"
	DepthShallow SystemsDepth = "S"
	DepthUnknown SystemsDepth = "X"
)

// ParseSystemsDepth maps a depth code. Unknown codes are DepthNone.
func ParseSystemsDepth(s string) SystemsDepth {
	switch d := SystemsDepth(strings.TrimSpace(s)); d {
	case DepthDeep, DepthMedium, DepthShallow, DepthUnknown:
		return d
	default:
		return DepthNone
	}
}

// WatchWarn is the most severe watch or warning in effect for a point.
type WatchWarn string

const (
	WatchWarnNone      WatchWarn = ""
	TropicalStormWatch WatchWarn = "TSWATCH"
	TropicalStormWarn  WatchWarn = "TSWARN"
	GaleWarn           WatchWarn = "GLWARN"
	StormWarn          WatchWarn = "STWARN"
	HurricaneWatch     WatchWarn = "HUWATCH"
	HurricaneWarn      WatchWarn = "HUWARN"
)

// watchWarnRank orders watch/warning interest, highest first.
var watchWarnRank = map[WatchWarn]int{
	HurricaneWarn:      6,
	TropicalStormWarn:  5,
	HurricaneWatch:     4,
	TropicalStormWatch: 3,
	GaleWarn:           2,
	StormWarn:          1,
}

// ParseWatchWarn maps a watch/warning code, case-insensitively.
func ParseWatchWarn(s string) WatchWarn {
	w := WatchWarn(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := watchWarnRank[w]; ok {
		return w
	}
	return WatchWarnNone
}

// WatchWarnFromCode maps the numeric codes used by watch/warning bulletins.
func WatchWarnFromCode(code int) WatchWarn {
	switch code {
	case 1:
		return TropicalStormWatch
	case 2:
		return TropicalStormWarn
	case 3:
		return GaleWarn
	case 4:
		return StormWarn
	case 5:
		return HurricaneWatch
	case 6:
		return HurricaneWarn
	default:
		return WatchWarnNone
	}
}

// MaxWatchWarn returns the more severe of a and b.
func MaxWatchWarn(a, b WatchWarn) WatchWarn {
	if watchWarnRank[b] > watchWarnRank[a] {
		return b
	}
	return a
}
