package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/prob"
	"github.com/couchcryptid/storm-track-verify/internal/track"
)

func probEvent(t *testing.T, text string) *prob.Event {
	t.Helper()
	rc := testContext()
	a := prob.NewAggregator()
	l, err := atcf.ParseLine(text)
	require.NoError(t, err)
	require.NoError(t, a.AddLine(rc, l))
	require.Len(t, a.Events(), 1)
	return a.Events()[0]
}

func TestPairProbRIRW(t *testing.T) {
	best := buildTrack(t,
		bRow("2022092800", "250N", 30),
		bRow("2022092812", "255N", 25),
		bRow("2022092900", "260N", 65),
	)
	idx := NewTrackIndex([]*track.Track{best})
	assert.Equal(t, 1, idx.Len())

	t.Run("window covered", func(t *testing.T) {
		ev := probEvent(t, "AL, 09, 2022092800, RI, SHIP, 0, 260N, 0800W, 40, 30, 95, XXX, 0, 24")
		p, ok := PairProbRIRW(ev, idx)
		require.True(t, ok)

		assert.Equal(t, best.Key(), p.BDeck)
		got, ok := idx.Get(p.BDeck)
		require.True(t, ok)
		assert.Same(t, best, got)

		assert.InDelta(t, 26.0, p.BLat, 1e-9)
		assert.Equal(t, 30.0, p.BBegV)
		assert.Equal(t, 65.0, p.BEndV)
		assert.Equal(t, 25.0, p.BMinV)
		assert.Equal(t, 65.0, p.BMaxV)
		assert.Equal(t, 35.0, p.Change())
		assert.Equal(t, atcf.LevelTropicalDepression, p.BBegLevel)
		assert.Equal(t, atcf.LevelHurricane, p.BEndLevel)
		assert.InDelta(t, 0.0, p.TrackErr, 1e-9)

		beg, end := p.WindowTimes()
		assert.Equal(t, mustTime(t, "2022092800"), beg)
		assert.Equal(t, mustTime(t, "2022092900"), end)
	})

	t.Run("window past the track", func(t *testing.T) {
		ev := probEvent(t, "AL, 09, 2022092800, RI, SHIP, 0, 260N, 0800W, 40, 30, 95, XXX, 0, 36")
		_, ok := PairProbRIRW(ev, idx)
		assert.False(t, ok)
	})

	t.Run("other storm", func(t *testing.T) {
		ev := probEvent(t, "AL, 10, 2022092800, RI, SHIP, 0, 260N, 0800W, 40, 30, 95, XXX, 0, 24")
		_, ok := PairProbRIRW(ev, idx)
		assert.False(t, ok)
	})

	t.Run("not a rapid intensity event", func(t *testing.T) {
		ev := probEvent(t, "AL, 09, 2022092800, TR, OFCL, 24, 260N, 0800W, 40, 34")
		_, ok := PairProbRIRW(ev, idx)
		assert.False(t, ok)
	})
}
