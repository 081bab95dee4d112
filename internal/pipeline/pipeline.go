package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/config"
	"github.com/couchcryptid/storm-track-verify/internal/domain"
	"github.com/couchcryptid/storm-track-verify/internal/observability"
	"github.com/couchcryptid/storm-track-verify/internal/track"
	"github.com/couchcryptid/storm-track-verify/internal/verify"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// LineExtractor reads up to batchSize raw deck lines. It returns io.EOF,
// possibly together with a final batch, once the source is exhausted.
type LineExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawLine, error)
}

// RecordLoader writes output records to the destination.
type RecordLoader interface {
	LoadBatch(ctx context.Context, records []domain.Record) error
}

// Options tune one Pipeline. Land, Geocoder and WatchWarn are optional.
type Options struct {
	Job       *config.Job
	BatchSize int
	Workers   int
	Land      verify.LandDistancer
	Geocoder  domain.Geocoder
	WatchWarn []domain.WatchWarnBulletin
}

// Summary counts what one run did.
type Summary struct {
	RunID      string                    `json:"run_id"`
	Lines      int                       `json:"lines"`
	Rejected   int                       `json:"rejected"`
	ADecks     int                       `json:"adecks"`
	BDecks     int                       `json:"bdecks"`
	Consensus  int                       `json:"consensus"`
	Pairs      int                       `json:"pairs"`
	PointsKept int                       `json:"points_kept"`
	Records    map[domain.RecordKind]int `json:"records"`
	FinishedAt time.Time                 `json:"finished_at"`
}

// Pipeline orchestrates one verification run: extract deck lines, assemble
// tracks, verify every storm and load the resulting records.
type Pipeline struct {
	extractor LineExtractor
	loader    RecordLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options
	ready     atomic.Bool
	last      atomic.Pointer[Summary]
}

// New creates a Pipeline with the given stages and observability.
func New(e LineExtractor, l RecordLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pipeline{
		extractor: e,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
}

// CheckReadiness returns nil once the pipeline has loaded records or
// finished a run, or an error describing why the service is not ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a load yet")
	}
	return nil
}

// LastSummary returns the summary of the most recent successful run.
func (p *Pipeline) LastSummary() (Summary, bool) {
	sum := p.last.Load()
	if sum == nil {
		return Summary{}, false
	}
	return *sum, true
}

// Run executes one verification run. Row-level problems are logged and
// counted; a fatal error or context cancellation aborts the run.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	run := domain.NewRun()
	logger := p.logger.With("run_id", run.ID)
	sum := Summary{RunID: run.ID, Records: make(map[domain.RecordKind]int)}

	logger.Info("pipeline started", "batch_size", p.opts.BatchSize, "workers", p.opts.Workers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	job := p.opts.Job
	if job == nil {
		var err error
		if job, err = config.DefaultJob(); err != nil {
			return sum, err
		}
	}
	rirw, err := job.RIRWFilter()
	if err != nil {
		return sum, atcf.Fatal(err)
	}

	rc := atcf.NewRunContext(logger, job.Conventions())
	in := newIngest(rc, job, p.metrics)
	if err := p.extract(ctx, in, logger); err != nil {
		return sum, err
	}
	sum.Lines, sum.Rejected = in.read, in.rejected

	adeck, bdeck := in.adeck.Tracks(), in.bdeck.Tracks()
	sum.ADecks, sum.BDecks = len(adeck), len(bdeck)
	p.countTracks(adeck)
	p.countTracks(bdeck)
	for _, ev := range in.probs.Events() {
		p.metrics.ProbEvents.WithLabelValues(ev.Kind.String()).Inc()
	}

	var records []domain.Record

	cons, consRecords, err := buildConsensus(logger, run, adeck, job.ConsensusDefs())
	if err != nil {
		return sum, err
	}
	sum.Consensus = len(cons)
	for _, c := range cons {
		p.metrics.ConsensusPoints.Add(float64(c.Len()))
	}
	records = append(records, consRecords...)
	adeck = append(adeck, cons...)

	v := &stormVerifier{
		run:       run,
		rc:        rc,
		job:       job,
		rirw:      rirw,
		land:      p.opts.Land,
		watchWarn: p.opts.WatchWarn,
		metrics:   p.metrics,
		logger:    logger,
	}
	results, err := v.verifyAll(ctx, groupByStorm(adeck, bdeck), p.opts.Workers)
	if err != nil {
		return sum, err
	}

	var landfalls []domain.LandfallRecord
	seen := make(map[string]bool)
	for _, r := range results {
		sum.Pairs += r.pairs
		sum.PointsKept += r.kept
		records = append(records, r.records...)
		for _, lf := range r.landfalls {
			if seen[lf.LandfallKey()] {
				continue
			}
			seen[lf.LandfallKey()] = true
			landfalls = append(landfalls, lf)
		}
	}

	records = append(records, pairProbRIRW(logger, run, in.probs.EventsOf(atcf.KindProbRIRW), bdeck)...)

	for _, lf := range landfalls {
		lf = domain.EnrichLandfall(ctx, lf, p.opts.Geocoder, logger)
		records = append(records, lf.Record(run))
	}

	if err := p.load(ctx, records, logger); err != nil {
		return sum, err
	}
	for _, r := range records {
		sum.Records[r.Kind]++
	}
	p.commitLines(ctx, in.committable)
	p.ready.Store(true)
	sum.FinishedAt = time.Now().UTC()
	p.last.Store(&sum)

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	logger.Info("pipeline finished",
		"lines", sum.Lines,
		"rejected", sum.Rejected,
		"pairs", sum.Pairs,
		"points_kept", sum.PointsKept,
		"records", len(records),
		"duration", time.Since(start),
	)
	return sum, nil
}

// extract feeds every line from the extractor into in, backing off on
// extractor errors.
func (p *Pipeline) extract(ctx context.Context, in *ingest, logger *slog.Logger) error {
	backoff := initialBackoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := p.extractor.ExtractBatch(ctx, p.opts.BatchSize)
		if len(batch) > 0 {
			p.metrics.BatchSize.Observe(float64(len(batch)))
		}
		for _, raw := range batch {
			if ferr := in.add(raw); ferr != nil {
				return ferr
			}
		}

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("extract batch failed", "error", err)
			if !backoffOrStop(ctx, &backoff) {
				return ctx.Err()
			}
		default:
			backoff = initialBackoff
		}
	}
}

func (p *Pipeline) countTracks(tracks []*track.Track) {
	for _, t := range tracks {
		p.metrics.TracksBuilt.WithLabelValues(t.Class().String()).Inc()
	}
}

// load writes records in batches, retrying a failed batch with backoff
// until it succeeds or ctx is done.
func (p *Pipeline) load(ctx context.Context, records []domain.Record, logger *slog.Logger) error {
	if p.loader == nil {
		return nil
	}
	backoff := initialBackoff
	for start := 0; start < len(records); {
		end := min(start+p.opts.BatchSize, len(records))
		batch := records[start:end]

		if err := p.loader.LoadBatch(ctx, batch); err != nil {
			p.metrics.LoadErrors.Inc()
			logger.Error("load batch failed", "error", err, "batch_size", len(batch))
			if !backoffOrStop(ctx, &backoff) {
				return ctx.Err()
			}
			continue
		}

		for _, r := range batch {
			p.metrics.RecordsLoaded.WithLabelValues(string(r.Kind)).Inc()
		}
		p.ready.Store(true)
		backoff = initialBackoff
		start = end
	}
	return nil
}

// commitLines commits the last line read from each partition. Offsets are
// cumulative so earlier lines are covered.
func (p *Pipeline) commitLines(ctx context.Context, lines []domain.RawLine) {
	last := make(map[int]domain.RawLine)
	var order []int
	for _, l := range lines {
		if _, ok := last[l.Partition]; !ok {
			order = append(order, l.Partition)
		}
		last[l.Partition] = l
	}
	for _, part := range order {
		p.commitOffset(ctx, last[part])
	}
}

// commitOffset commits the line's offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawLine) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Source, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// backoffOrStop sleeps for the current backoff and advances it. Returns
// false if ctx ended first.
func backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sharedretry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = sharedretry.NextBackoff(*backoff, maxBackoff)
	return true
}
