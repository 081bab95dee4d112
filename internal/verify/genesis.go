package verify

import (
	"slices"
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/track"
)

// GenesisCriteria decides which point of a track counts as genesis. Zero
// values disable a test.
type GenesisCriteria struct {
	MinVMax         float64             `yaml:"min_vmax"`
	MaxMSLP         float64             `yaml:"max_mslp"`
	Levels          []atcf.CycloneLevel `yaml:"levels"`
	RequireWarmCore bool                `yaml:"require_warm_core"`
}

// DefaultGenesisCriteria treats the first tropical depression, storm or
// hurricane as genesis.
func DefaultGenesisCriteria() GenesisCriteria {
	return GenesisCriteria{
		Levels: []atcf.CycloneLevel{
			atcf.LevelTropicalDepression,
			atcf.LevelTropicalStorm,
			atcf.LevelHurricane,
			atcf.LevelTyphoon,
			atcf.LevelSuperTyphoon,
		},
	}
}

func (c GenesisCriteria) matches(p atcf.Point) bool {
	if !validPosition(p) {
		return false
	}
	if c.MinVMax > 0 && (atcf.IsMissing(p.VMax) || p.VMax < c.MinVMax) {
		return false
	}
	if c.MaxMSLP > 0 && (atcf.IsMissing(p.MSLP) || p.MSLP > c.MaxMSLP) {
		return false
	}
	if len(c.Levels) > 0 && !slices.Contains(c.Levels, p.Level) {
		return false
	}
	return !c.RequireWarmCore || p.WarmCore
}

// Genesis is the first point on a track meeting the genesis criteria.
type Genesis struct {
	Track track.Key     `json:"track"`
	Index int           `json:"index"`
	Valid time.Time     `json:"valid"`
	Lead  time.Duration `json:"lead"`
	Lat   float64       `json:"lat"`
	Lon   float64       `json:"lon"`
	VMax  float64       `json:"vmax"`
}

// DetectGenesis scans t in valid-time order and returns the first point
// meeting c.
func DetectGenesis(t *track.Track, c GenesisCriteria) (Genesis, bool) {
	for i, p := range t.Points() {
		if c.matches(p) {
			return Genesis{
				Track: t.Key(),
				Index: i,
				Valid: p.Valid,
				Lead:  p.Lead,
				Lat:   p.Lat,
				Lon:   p.Lon,
				VMax:  p.VMax,
			}, true
		}
	}
	return Genesis{}, false
}
