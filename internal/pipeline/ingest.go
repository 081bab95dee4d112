package pipeline

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/config"
	"github.com/couchcryptid/storm-track-verify/internal/domain"
	"github.com/couchcryptid/storm-track-verify/internal/observability"
	"github.com/couchcryptid/storm-track-verify/internal/prob"
	"github.com/couchcryptid/storm-track-verify/internal/track"
)

// ingest routes parsed lines to the per-deck assemblers and the
// probability aggregator. It belongs to one run.
type ingest struct {
	rcA, rcB *atcf.RunContext
	adeck    *track.Assembler
	bdeck    *track.Assembler
	probs    *prob.Aggregator
	metrics  *observability.Metrics

	read, rejected int
	committable    []domain.RawLine
}

func newIngest(rc *atcf.RunContext, job *config.Job, metrics *observability.Metrics) *ingest {
	return &ingest{
		rcA:     rc,
		rcB:     rc.WithSuffix(""),
		adeck:   track.NewAssembler(job.TrackOptions()),
		bdeck:   track.NewAssembler(job.TrackOptions()),
		probs:   prob.NewAggregator(),
		metrics: metrics,
	}
}

// add parses and routes one raw line. Only fatal errors are returned.
func (in *ingest) add(raw domain.RawLine) error {
	in.read++
	in.metrics.LinesRead.WithLabelValues(string(raw.Deck)).Inc()
	if raw.Commit != nil {
		in.committable = append(in.committable, raw)
	}

	err := in.route(raw)
	if err == nil {
		return nil
	}
	if atcf.IsFatal(err) {
		return fmt.Errorf("%s: %w", raw.Position(), err)
	}

	in.rejected++
	in.metrics.LinesRejected.WithLabelValues(atcf.Reason(err)).Inc()
	logger := in.rcA.Logger
	if errors.Is(err, atcf.ErrBlankLine) || errors.Is(err, atcf.ErrHeaderLine) {
		logger.Debug("skipping line", "position", raw.Position(), "reason", err)
		return nil
	}
	logger.Warn("skipping line", "position", raw.Position(), "error", err, "line", raw.Text)
	return nil
}

func (in *ingest) route(raw domain.RawLine) error {
	l, err := atcf.ParseLine(raw.Text)
	if err != nil {
		return err
	}

	switch {
	case raw.Deck == domain.DeckB && l.Kind.IsTrack():
		return in.bdeck.AddLine(in.rcB, l)
	case raw.Deck == domain.DeckA && l.Kind.IsTrack():
		return in.adeck.AddLine(in.rcA, l)
	case raw.Deck != domain.DeckB && l.Kind.IsProb():
		return in.probs.AddLine(in.rcA, l)
	default:
		return fmt.Errorf("%w: %s line in %s", atcf.ErrWrongLineType, l.Kind, raw.Deck)
	}
}
