package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

func consensusMembers(t *testing.T) []*Track {
	t.Helper()
	a, errs := assemble(t, Options{},
		row("2022092800", "03", "GFSI", 0, "150N", "1790W", 100),
		row("2022092800", "03", "GFSI", 12, "160N", "1785W", 110),
		row("2022092800", "03", "HWFI", 0, "160N", "1795E", 110),
		"AL, 09, 2022092800, 03, EMXI, 000, 155N, 1795E, 90, 990, XX, 34, NEQ, 0060, 0050, 0040, 0050",
	)
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 3, a.Len())
	return a.Tracks()
}

func TestBuildConsensusDateLine(t *testing.T) {
	members := consensusMembers(t)[:2]

	cons, spreads, err := BuildConsensus(discardLogger(), "TVCN", members, nil, 2)
	require.NoError(t, err)
	require.Equal(t, 1, cons.Len(), "12 h lead has a single member")

	p, err := cons.Point(0)
	require.NoError(t, err)
	assert.InDelta(t, 179.75, abs(p.Lon), 1e-9, "wraps across the date line")
	assert.InDelta(t, 15.5, p.Lat, 1e-9)
	assert.InDelta(t, 105.0, p.VMax, 1e-9)
	assert.InDelta(t, 980.0, p.MSLP, 1e-9)
	assert.Equal(t, atcf.LevelHurricane, p.Level)
	assert.Equal(t, [4]float64{50, 40, 30, 40}, p.Wind[0].Quadrants())
	assert.Equal(t, time.Duration(0), p.Lead)
	assert.Equal(t, members[0].Init, p.Valid)

	assert.Equal(t, "TVCN", cons.Technique)
	assert.Equal(t, "AL092022", cons.StormID)
	assert.Equal(t, members[0].Init, cons.Init)

	require.Len(t, spreads, 1)
	assert.Equal(t, 2, spreads[0].Members)
	assert.Greater(t, spreads[0].TrackMean, 0.0)
	assert.InDelta(t, 7.0711, spreads[0].VMaxStdev, 1e-3)
	assert.InDelta(t, 0.0, spreads[0].MSLPStdev, 1e-9)
}

func TestBuildConsensusMembership(t *testing.T) {
	members := consensusMembers(t)

	t.Run("min count one keeps every lead", func(t *testing.T) {
		cons, spreads, err := BuildConsensus(discardLogger(), "TVCN", members, nil, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, cons.Len())
		require.Len(t, spreads, 2)
		assert.Equal(t, 3, spreads[0].Members)
		assert.Equal(t, 1, spreads[1].Members)
		assert.Equal(t, atcf.Missing, spreads[1].TrackStdev)

		p, err := cons.Point(1)
		require.NoError(t, err)
		assert.Equal(t, 12*time.Hour, p.Lead)
		assert.InDelta(t, -178.5, p.Lon, 1e-9)
	})

	t.Run("missing required member skips the lead", func(t *testing.T) {
		cons, _, err := BuildConsensus(discardLogger(), "TVCN", members, []string{"HWFI"}, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, cons.Len())
		assert.Equal(t, -1, cons.LeadIndex(12*time.Hour))
	})

	t.Run("minimum count", func(t *testing.T) {
		cons, _, err := BuildConsensus(discardLogger(), "TVCN", members, nil, 4)
		require.NoError(t, err)
		assert.Equal(t, 0, cons.Len())
	})

	t.Run("select members by name", func(t *testing.T) {
		got := SelectMembers(members, ConsensusDef{Members: []string{"EMXI", "GFSI", "NOPE"}})
		require.Len(t, got, 2)
		assert.Equal(t, "EMXI", got[0].Technique)
		assert.Equal(t, "GFSI", got[1].Technique)
	})
}

func TestBuildConsensusErrors(t *testing.T) {
	_, _, err := BuildConsensus(discardLogger(), "TVCN", nil, nil, 1)
	assert.True(t, atcf.IsFatal(err))

	a, _ := assemble(t, Options{},
		row("2022092800", "03", "GFSI", 0, "150N", "0800W", 100),
		row("2022092806", "03", "HWFI", 0, "150N", "0800W", 100),
	)
	_, _, err = BuildConsensus(discardLogger(), "TVCN", a.Tracks(), nil, 1)
	require.Error(t, err)
	assert.True(t, atcf.IsFatal(err))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
