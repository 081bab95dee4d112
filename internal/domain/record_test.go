package domain

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/prob"
	"github.com/couchcryptid/storm-track-verify/internal/track"
	"github.com/couchcryptid/storm-track-verify/internal/verify"
)

var frozen = time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freezeClock(t *testing.T) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { SetClock(nil) })
}

func buildTracks(t *testing.T, rows ...string) []*track.Track {
	t.Helper()
	rc := atcf.NewRunContext(discardLogger(), atcf.Conventions{})
	a := track.NewAssembler(track.Options{CheckDup: true})
	for _, text := range rows {
		l, err := atcf.ParseLine(text)
		require.NoError(t, err)
		require.NoError(t, a.AddLine(rc, l))
	}
	return a.Tracks()
}

// overLand puts every position 10 nm inland.
type overLand struct{}

func (overLand) DistanceToLand(_, _ float64) float64 { return -10 }

func testPair(t *testing.T) *verify.Pair {
	t.Helper()
	return landPair(t, nil)
}

func landPair(t *testing.T, land verify.LandDistancer) *verify.Pair {
	t.Helper()
	a := buildTracks(t,
		"AL, 09, 2022092800, 03, OFCL, 000, 251N, 0800W, 30",
		"AL, 09, 2022092800, 03, OFCL, 012, 261N, 0800W, 40",
	)
	b := buildTracks(t,
		"AL, 09, 2022092800, , BEST, 0, 250N, 0800W, 35, 1000",
		"AL, 09, 2022092812, , BEST, 0, 260N, 0800W, 45, 995",
	)
	p, err := verify.NewPair(a[0], b[0], land, false)
	require.NoError(t, err)
	return p
}

func TestNewRun(t *testing.T) {
	freezeClock(t)
	r1, r2 := NewRun(), NewRun()
	assert.Len(t, r1.ID, 36)
	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Equal(t, frozen, r1.StartedAt)
}

func TestNewPairPointRecords(t *testing.T) {
	freezeClock(t)
	run := Run{ID: "run-1"}
	p := testPair(t)

	recs := NewPairPointRecords(run, p)
	require.Len(t, recs, 2)

	r := recs[1]
	assert.Equal(t, KindPairPoint, r.Kind)
	assert.Equal(t, "AL092022/OFCL/2022092800", r.Key)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, frozen, r.ProcessedAt)

	pp, ok := r.Payload.(PairPointRecord)
	require.True(t, ok)
	assert.Equal(t, "OFCL", pp.ADeck)
	assert.Equal(t, "BEST", pp.BDeck)
	assert.Equal(t, 12.0, pp.LeadHours)
	require.NotNil(t, pp.TrackErr)
	assert.InDelta(t, 6.0, *pp.TrackErr, 0.1)
	require.NotNil(t, pp.VMaxErr)
	assert.Equal(t, -5.0, *pp.VMaxErr)
	assert.Nil(t, pp.AMSLP, "missing values are null")
	assert.Nil(t, pp.MSLPErr)
	assert.Nil(t, pp.BDistLand, "no land mask")
	assert.Equal(t, "NA", pp.ARIRW)

	data, err := json.Marshal(pp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"amslp":null`)
	assert.Contains(t, string(data), `"bmslp":995`)
	assert.NotContains(t, string(data), "-9999")
}

func TestNewPairPointRecordsSkipsDropped(t *testing.T) {
	p := landPair(t, overLand{})
	assert.Equal(t, 2, p.CheckWaterOnly())
	assert.Empty(t, NewPairPointRecords(Run{ID: "run-1"}, p))
}

func TestOccurred(t *testing.T) {
	tests := []struct {
		name   string
		item   string
		change float64
		want   *bool
	}{
		{"increase reached", "30", 35, ptr(true)},
		{"increase missed", "30", 25, ptr(false)},
		{"decrease reached", "-25", -30, ptr(true)},
		{"decrease missed", "-25", -10, ptr(false)},
		{"not a number", "A", 40, nil},
		{"zero", "0", 40, nil},
		{"missing change", "30", atcf.Missing, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, occurred(tt.item, tt.change))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestNewProbRIRWRecords(t *testing.T) {
	freezeClock(t)
	rc := atcf.NewRunContext(discardLogger(), atcf.Conventions{})
	agg := prob.NewAggregator()
	for _, text := range []string{
		"AL, 09, 2022092800, RI, SHIP, 0, 250N, 0800W, 10, 30, 95, XXX, 0, 12",
		"AL, 09, 2022092800, RI, SHIP, 0, 250N, 0800W, 40, 5, 95, XXX, 0, 12",
	} {
		l, err := atcf.ParseLine(text)
		require.NoError(t, err)
		require.NoError(t, agg.AddLine(rc, l))
	}
	b := buildTracks(t,
		"AL, 09, 2022092800, , BEST, 0, 250N, 0800W, 35, 1000",
		"AL, 09, 2022092812, , BEST, 0, 260N, 0800W, 45, 995",
	)
	pr, ok := verify.PairProbRIRW(agg.Events()[0], verify.NewTrackIndex(b))
	require.True(t, ok)

	recs := NewProbRIRWRecords(Run{ID: "run-1"}, pr)
	require.Len(t, recs, 2)
	assert.Equal(t, KindProbRIRW, recs[0].Kind)

	first := recs[0].Payload.(ProbRIRWRecord)
	assert.Equal(t, "30", first.Item)
	assert.Equal(t, 10, first.Prob)
	require.NotNil(t, first.BChange)
	assert.Equal(t, 10.0, *first.BChange)
	assert.Equal(t, ptr(false), first.Occurred)

	second := recs[1].Payload.(ProbRIRWRecord)
	assert.Equal(t, ptr(true), second.Occurred)
	assert.Equal(t, "BEST", second.BDeck)
}

func TestNewConsensusSpreadRecords(t *testing.T) {
	members := buildTracks(t,
		"AL, 09, 2022092800, 03, GFSI, 000, 150N, 0800W, 100, 980",
		"AL, 09, 2022092800, 03, HWFI, 000, 160N, 0800W, 110, 980",
	)
	cons, spreads, err := track.BuildConsensus(discardLogger(), "TVCN", members, nil, 1)
	require.NoError(t, err)

	recs := NewConsensusSpreadRecords(Run{ID: "run-1"}, cons, spreads)
	require.Len(t, recs, 1)
	r := recs[0].Payload.(ConsensusSpreadRecord)
	assert.Equal(t, "TVCN", r.Technique)
	assert.Equal(t, 2, r.Members)
	require.NotNil(t, r.Lat)
	assert.InDelta(t, 15.5, *r.Lat, 1e-9)
	require.NotNil(t, r.MSLPStdev)
	assert.InDelta(t, 0.0, *r.MSLPStdev, 1e-9)
}

func TestLandfallAndGenesisRecords(t *testing.T) {
	freezeClock(t)
	run := Run{ID: "run-1"}
	p := testPair(t)

	lf := NewLandfallRecord(p, verify.Landfall{Valid: p.Init, Lat: 26, Lon: -80, VMax: 45})
	rec := lf.Record(run)
	assert.Equal(t, KindLandfall, rec.Kind)
	assert.Equal(t, "AL092022/BEST/2022092800", rec.Key)
	assert.Equal(t, "run-1", rec.Payload.(LandfallRecord).RunID)

	g, ok := verify.DetectGenesis(p.BDeck, verify.GenesisCriteria{MinVMax: 34})
	require.True(t, ok)
	grec := NewGenesisRecord(run, g)
	assert.Equal(t, KindGenesis, grec.Kind)
	assert.Equal(t, "BEST", grec.Payload.(GenesisRecord).Technique)
}
