package verify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

func TestDetectGenesis(t *testing.T) {
	tr := buildTrack(t,
		"AL, 09, 2022092800, 03, OFCL, 000, 250N, 0800W, 25, 1008, LO",
		"AL, 09, 2022092800, 03, OFCL, 012, 255N, 0800W, 30, 1005, TD",
		"AL, 09, 2022092800, 03, OFCL, 024, 260N, 0800W, 45, 998, TS",
	)

	tests := []struct {
		name      string
		criteria  GenesisCriteria
		wantOK    bool
		wantIndex int
	}{
		{"first depression", DefaultGenesisCriteria(), true, 1},
		{"wind threshold", GenesisCriteria{MinVMax: 35}, true, 2},
		{"pressure threshold", GenesisCriteria{MaxMSLP: 1000}, true, 2},
		{"warm core never reported", GenesisCriteria{RequireWarmCore: true}, false, 0},
		{"unmet level", GenesisCriteria{Levels: []atcf.CycloneLevel{atcf.LevelHurricane}}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := DetectGenesis(tr, tt.criteria)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantIndex, g.Index)
			assert.Equal(t, time.Duration(tt.wantIndex)*12*time.Hour, g.Lead)
			assert.Equal(t, tr.Key(), g.Track)
		})
	}
}
