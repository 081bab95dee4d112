package atcf

import (
	"fmt"
	"strings"
	"time"
)

const (
	legacyTechnique  = "AVN"
	currentTechnique = "GFS"
)

// Header is the identity shared by every line kind.
type Header struct {
	Kind            Kind      `json:"kind"`
	Basin           string    `json:"basin"`
	Cyclone         string    `json:"cyclone"`
	WarningTime     time.Time `json:"warning_time"`
	TechniqueNumber int       `json:"technique_number"`
	Technique       string    `json:"technique"`
	IsBest          bool      `json:"is_best"`
	IsOper          bool      `json:"is_oper"`
}

// decodeHeader reads the identity columns. techNumCol may be absent.
func decodeHeader(rc *RunContext, l Line, techNumCol, techCol int) (Header, error) {
	wt, err := ParseTime(l.Field(colWarningTime))
	if err != nil {
		return Header{}, fmt.Errorf("warning time: %w", err)
	}

	h := Header{
		Kind:            l.Kind,
		Basin:           rc.MapBasin(l.Field(colBasin)),
		Cyclone:         l.Field(colCyclone),
		WarningTime:     wt,
		TechniqueNumber: MissingInt,
	}
	if techNumCol != absent {
		h.TechniqueNumber = ParseInt(l.Field(techNumCol))
	}

	h.Technique = RewriteTechnique(rc, l.Field(techCol))
	h.IsBest = rc.IsBest(h.Technique)
	h.IsOper = rc.IsOper(h.Technique)
	if !h.IsBest && !h.IsOper && rc.TechSuffix != "" && h.Technique != "" {
		h.Technique += rc.TechSuffix
	}
	return h, nil
}

// RewriteTechnique replaces every literal "AVN" with "GFS". The first
// rewrite of the run is noted at debug level.
func RewriteTechnique(rc *RunContext, technique string) string {
	if !strings.Contains(technique, legacyTechnique) {
		return technique
	}
	if rc.Once("technique:avn") {
		rc.Logger.Debug("rewriting legacy technique name",
			"from", legacyTechnique, "to", currentTechnique)
	}
	return strings.ReplaceAll(technique, legacyTechnique, currentTechnique)
}

// StormID builds basin + cyclone + year. The year comes from the init time,
// falling back to the earliest and then latest valid time.
func StormID(basin, cyclone string, init, minValid, maxValid time.Time) string {
	var year int
	switch {
	case !init.IsZero():
		year = init.Year()
	case !minValid.IsZero():
		year = minValid.Year()
	case !maxValid.IsZero():
		year = maxValid.Year()
	default:
		return ""
	}
	return fmt.Sprintf("%s%s%04d", basin, cyclone, year)
}
