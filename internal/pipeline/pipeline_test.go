package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/config"
	"github.com/couchcryptid/storm-track-verify/internal/domain"
	"github.com/couchcryptid/storm-track-verify/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- mocks ---

// sliceExtractor hands out lines in batches, failing once per entry in errs
// before the first batch.
type sliceExtractor struct {
	lines []domain.RawLine
	errs  []error
	pos   int
}

func (m *sliceExtractor) ExtractBatch(_ context.Context, n int) ([]domain.RawLine, error) {
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	end := min(m.pos+n, len(m.lines))
	batch := m.lines[m.pos:end]
	m.pos = end
	if m.pos == len(m.lines) {
		return batch, io.EOF
	}
	return batch, nil
}

type mockLoader struct {
	mu       sync.Mutex
	failures int
	loaded   []domain.Record
	calls    int
}

func (m *mockLoader) LoadBatch(_ context.Context, records []domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, records...)
	return nil
}

func (m *mockLoader) kinds() map[domain.RecordKind]int {
	out := make(map[domain.RecordKind]int)
	for _, r := range m.loaded {
		out[r.Kind]++
	}
	return out
}

// inlandNorthOf puts everything at or north of a latitude 5 nm inland.
type inlandNorthOf float64

func (l inlandNorthOf) DistanceToLand(lat, _ float64) float64 {
	if lat >= float64(l) {
		return -5
	}
	return 50
}

type mockGeocoder struct{}

func (mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{FormattedAddress: "Cape Coral, Florida", PlaceName: "Cape Coral"}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fixtures ---

var (
	adeckRows = []string{
		"AL, 09, 2022092800, 03, OFCL, 000, 250N, 0800W, 30, 1000",
		"AL, 09, 2022092800, 03, OFCL, 012, 260N, 0800W, 40, 995",
		"AL, 09, 2022092800, 03, OFCL, 024, 270N, 0800W, 50, 990",
		"AL, 09, 2022092800, 03, GFSI, 000, 251N, 0800W, 30, 1000",
		"AL, 09, 2022092800, 03, GFSI, 012, 261N, 0800W, 40, 995",
		"AL, 09, 2022092800, RI, SHIP, 0, 250N, 0800W, 10, 30, 95, XXX, 0, 24",
		"garbage line",
	}
	bdeckRows = []string{
		"AL, 09, 2022092800, , BEST, 0, 250N, 0800W, 35, 1000",
		"AL, 09, 2022092812, , BEST, 0, 260N, 0800W, 45, 995",
		"AL, 09, 2022092900, , BEST, 0, 270N, 0800W, 65, 980",
	}
)

func rawLines(deck domain.Deck, source string, rows []string) []domain.RawLine {
	out := make([]domain.RawLine, len(rows))
	for i, r := range rows {
		out[i] = domain.RawLine{Deck: deck, Source: source, Number: i + 1, Text: r}
	}
	return out
}

func allLines() []domain.RawLine {
	return append(rawLines(domain.DeckA, "aal092022.dat", adeckRows),
		rawLines(domain.DeckB, "bal092022.dat", bdeckRows)...)
}

func testJob(t *testing.T, yaml string) *config.Job {
	t.Helper()
	j, err := config.ParseJob([]byte(yaml))
	require.NoError(t, err)
	return j
}

const consensusJob = `
consensus:
  - name: TVCN
    members: [GFSI, HWFI]
`

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()
	p := New(&sliceExtractor{lines: allLines()}, ldr, discardLogger(), metrics, Options{
		Job:       testJob(t, consensusJob),
		BatchSize: 4,
		Workers:   2,
	})
	require.Error(t, p.CheckReadiness(context.Background()))
	_, ok := p.LastSummary()
	require.False(t, ok)

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, sum.FinishedAt.IsZero())

	last, ok := p.LastSummary()
	require.True(t, ok)
	assert.Equal(t, sum.RunID, last.RunID)

	want := Summary{
		RunID:      sum.RunID,
		Lines:      10,
		Rejected:   1,
		ADecks:     2,
		BDecks:     1,
		Consensus:  1,
		Pairs:      3,
		PointsKept: 7,
		Records: map[domain.RecordKind]int{
			domain.KindPairPoint:       7,
			domain.KindConsensusSpread: 2,
			domain.KindProbRIRW:        1,
		},
		FinishedAt: sum.FinishedAt,
	}
	if diff := cmp.Diff(want, sum); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want.Records, ldr.kinds())
	assert.NoError(t, p.CheckReadiness(context.Background()))

	for _, r := range ldr.loaded {
		assert.Equal(t, sum.RunID, r.RunID)
	}

	var ri domain.ProbRIRWRecord
	for _, r := range ldr.loaded {
		if r.Kind == domain.KindProbRIRW {
			ri = r.Payload.(domain.ProbRIRWRecord)
		}
	}
	require.NotNil(t, ri.Occurred)
	assert.True(t, *ri.Occurred, "30 kt in 24 h verified")

	assert.Equal(t, 7.0, testutil.ToFloat64(metrics.LinesRead.WithLabelValues("adeck")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LinesRejected.WithLabelValues("short_line")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.PairsBuilt))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ConsensusPoints))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TracksBuilt.WithLabelValues("best")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_WaterOnlyAndLandfall(t *testing.T) {
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()
	p := New(&sliceExtractor{lines: allLines()}, ldr, discardLogger(), metrics, Options{
		Job:      testJob(t, "water_only: true\n"),
		Land:     inlandNorthOf(25.95),
		Geocoder: mockGeocoder{},
	})

	sum, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Pairs)
	assert.Equal(t, 2, sum.PointsKept, "only the 00 h point is over water")
	assert.Equal(t, map[domain.RecordKind]int{
		domain.KindPairPoint: 2,
		domain.KindProbRIRW:  1,
		domain.KindLandfall:  1,
	}, ldr.kinds())
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.PointsFiltered.WithLabelValues("water_only")))

	for _, r := range ldr.loaded {
		if r.Kind != domain.KindLandfall {
			continue
		}
		lf := r.Payload.(domain.LandfallRecord)
		assert.Equal(t, "Cape Coral", lf.PlaceName)
		assert.Equal(t, "reverse", lf.GeoSource)
		assert.InDelta(t, 26.0, lf.Lat, 1e-9)
	}
}

func TestPipeline_Run_Genesis(t *testing.T) {
	ldr := &mockLoader{}
	p := New(&sliceExtractor{lines: allLines()}, ldr, discardLogger(), observability.NewMetricsForTesting(), Options{
		Job: testJob(t, "genesis:\n  enabled: true\n  min_vmax: 64\n"),
	})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	var got []domain.GenesisRecord
	for _, r := range ldr.loaded {
		if r.Kind == domain.KindGenesis {
			got = append(got, r.Payload.(domain.GenesisRecord))
		}
	}
	require.Len(t, got, 1)
	assert.Equal(t, "BEST", got[0].Technique)
	assert.Equal(t, time.Date(2022, 9, 29, 0, 0, 0, 0, time.UTC), got[0].Valid)
}

func TestPipeline_Run_RetriesLoad(t *testing.T) {
	ldr := &mockLoader{failures: 2}
	metrics := observability.NewMetricsForTesting()
	p := New(&sliceExtractor{lines: allLines()}, ldr, discardLogger(), metrics, Options{BatchSize: 100})

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ldr.calls)
	assert.Len(t, ldr.loaded, 6, "five pair points and the probability record")
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.LoadErrors))
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ldr := &mockLoader{}
	ext := &sliceExtractor{lines: allLines(), errs: []error{errors.New("fetch failed")}}
	p := New(ext, ldr, discardLogger(), observability.NewMetricsForTesting(), Options{})

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, sum.Lines)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := New(&sliceExtractor{lines: allLines()}, ldr, discardLogger(), observability.NewMetricsForTesting(), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_FatalLine(t *testing.T) {
	lines := append(allLines(), domain.RawLine{
		Deck: domain.DeckB, Source: "bal092022.dat", Number: 4,
		Text: "AL, 09, 2022023000, , BEST, 0, 280N, 0800W, 70",
	})
	ldr := &mockLoader{}
	p := New(&sliceExtractor{lines: lines}, ldr, discardLogger(), observability.NewMetricsForTesting(), Options{})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, atcf.IsFatal(err))
	assert.Contains(t, err.Error(), "bal092022.dat:4")
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_WrongDeck(t *testing.T) {
	lines := []domain.RawLine{
		{Deck: domain.DeckB, Text: "AL, 09, 2022092800, RI, SHIP, 0, 250N, 0800W, 10, 30, 95, XXX, 0, 24"},
		{Deck: domain.DeckE, Text: bdeckRows[0]},
	}
	metrics := observability.NewMetricsForTesting()
	p := New(&sliceExtractor{lines: lines}, &mockLoader{}, discardLogger(), metrics, Options{})

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Rejected)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.LinesRejected.WithLabelValues("wrong_type")))
}

func TestCommitLines(t *testing.T) {
	var committed []int64
	line := func(part int, off int64) domain.RawLine {
		return domain.RawLine{Partition: part, Offset: off, Commit: func(context.Context) error {
			committed = append(committed, off)
			return nil
		}}
	}

	p := New(nil, nil, discardLogger(), observability.NewMetricsForTesting(), Options{})
	p.commitLines(context.Background(), []domain.RawLine{
		line(0, 10), line(1, 5), line(0, 11), line(1, 6), line(0, 12),
	})
	assert.Equal(t, []int64{12, 6}, committed)
}

func TestBackoffOrStop(t *testing.T) {
	var zero time.Duration
	require.True(t, backoffOrStop(context.Background(), &zero))
	assert.Equal(t, time.Duration(0), zero)

	backoff := initialBackoff
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, backoffOrStop(ctx, &backoff))
	assert.Equal(t, initialBackoff, backoff, "unchanged when stopped")
}
