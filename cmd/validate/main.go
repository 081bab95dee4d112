// Command validate checks ATCF deck files without verifying anything. It
// parses every line, assembles tracks and probability events the way a
// tcpairs run would, and reports rejected lines by reason along with the
// tracks found. It exits non-zero when a fatal error occurs or the share of
// rejected lines exceeds -max-reject.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -adeck 'data/decks/aal*.dat' \
//	  -bdeck 'data/decks/bal*.dat' \
//	  -job jobs/tcpairs.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/storm-track-verify/internal/adapter/deckfile"
	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/config"
	"github.com/couchcryptid/storm-track-verify/internal/domain"
	"github.com/couchcryptid/storm-track-verify/internal/observability"
	"github.com/couchcryptid/storm-track-verify/internal/prob"
	"github.com/couchcryptid/storm-track-verify/internal/track"
)

func main() {
	adeck := flag.String("adeck", "", "comma-separated ADECK file globs")
	bdeck := flag.String("bdeck", "", "comma-separated BDECK file globs")
	edeck := flag.String("edeck", "", "comma-separated EDECK file globs")
	jobFile := flag.String("job", "", "optional job file")
	maxReject := flag.Float64("max-reject", 0.05, "maximum share of rejected non-blank lines")
	logLevel := flag.String("log-level", "warn", "log level for skipped lines")
	flag.Parse()

	if *adeck == "" && *bdeck == "" && *edeck == "" {
		flag.Usage()
		os.Exit(2)
	}

	code, err := run(os.Stdout, options{
		decks: map[domain.Deck]string{
			domain.DeckA: *adeck,
			domain.DeckB: *bdeck,
			domain.DeckE: *edeck,
		},
		jobFile:   *jobFile,
		maxReject: *maxReject,
		logLevel:  *logLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
	}
	os.Exit(code)
}

type options struct {
	decks     map[domain.Deck]string
	jobFile   string
	maxReject float64
	logLevel  string
}

// report collects what a validation pass found.
type report struct {
	lines    map[domain.Deck]int
	skipped  int // blank and header lines
	rejected map[string]int
	tracks   []*track.Track
	events   []*prob.Event
}

func (r *report) totalLines() int {
	n := 0
	for _, v := range r.lines {
		n += v
	}
	return n
}

func (r *report) rejectShare() float64 {
	total := r.totalLines() - r.skipped
	if total <= 0 {
		return 0
	}
	n := 0
	for _, v := range r.rejected {
		n += v
	}
	return float64(n) / float64(total)
}

func run(out io.Writer, o options) (int, error) {
	job, err := loadJob(o.jobFile)
	if err != nil {
		return 1, err
	}

	var sources []deckfile.Source
	for _, deck := range []domain.Deck{domain.DeckA, domain.DeckE, domain.DeckB} {
		if o.decks[deck] == "" {
			continue
		}
		src, err := deckfile.Expand(deck, strings.Split(o.decks[deck], ","))
		if err != nil {
			return 1, err
		}
		sources = append(sources, src...)
	}

	logger := observability.NewToolLogger(os.Stderr, o.logLevel)
	reader := deckfile.NewReader(sources, logger)
	defer reader.Close()

	rc := atcf.NewRunContext(logger, job.Conventions())
	rep, err := scan(context.Background(), reader, rc, job)
	if err != nil {
		return 1, err
	}

	printReport(out, rep)
	if share := rep.rejectShare(); share > o.maxReject {
		fmt.Fprintf(out, "\nValidation FAILED: %.1f%% of lines rejected (max %.1f%%).\n", share*100, o.maxReject*100)
		return 1, nil
	}
	fmt.Fprintln(out, "\nAll validations passed.")
	return 0, nil
}

func loadJob(path string) (*config.Job, error) {
	if path == "" {
		return config.DefaultJob()
	}
	return config.LoadJob(path)
}

// scan reads every line and assembles tracks per deck. Only a fatal error
// stops it.
func scan(ctx context.Context, r *deckfile.Reader, rc *atcf.RunContext, job *config.Job) (*report, error) {
	rep := &report{lines: make(map[domain.Deck]int), rejected: make(map[string]int)}
	rcB := rc.WithSuffix("")
	adeck := track.NewAssembler(job.TrackOptions())
	bdeck := track.NewAssembler(job.TrackOptions())
	probs := prob.NewAggregator()

	for {
		batch, rerr := r.ExtractBatch(ctx, 500)
		for _, raw := range batch {
			rep.lines[raw.Deck]++
			err := addLine(rc, rcB, raw, adeck, bdeck, probs)
			switch {
			case err == nil:
			case atcf.IsFatal(err):
				return nil, fmt.Errorf("%s: %w", raw.Position(), err)
			case errors.Is(err, atcf.ErrBlankLine), errors.Is(err, atcf.ErrHeaderLine):
				rep.skipped++
			default:
				rep.rejected[atcf.Reason(err)]++
				rc.Logger.Warn("rejected line", "position", raw.Position(), "error", err)
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return nil, rerr
		}
	}

	rep.tracks = append(bdeck.Tracks(), adeck.Tracks()...)
	rep.events = probs.Events()
	return rep, nil
}

func addLine(rcA, rcB *atcf.RunContext, raw domain.RawLine, adeck, bdeck *track.Assembler, probs *prob.Aggregator) error {
	l, err := atcf.ParseLine(raw.Text)
	if err != nil {
		return err
	}
	switch {
	case raw.Deck == domain.DeckB && l.Kind.IsTrack():
		return bdeck.AddLine(rcB, l)
	case raw.Deck == domain.DeckA && l.Kind.IsTrack():
		return adeck.AddLine(rcA, l)
	case raw.Deck != domain.DeckB && l.Kind.IsProb():
		return probs.AddLine(rcA, l)
	default:
		return fmt.Errorf("%w: %s line in %s", atcf.ErrWrongLineType, l.Kind, raw.Deck)
	}
}

func printReport(out io.Writer, rep *report) {
	fmt.Fprintln(out, "=== ATCF Deck Validation ===")
	fmt.Fprintf(out, "\nLines: %d adeck, %d bdeck, %d edeck (%d blank or header)\n",
		rep.lines[domain.DeckA], rep.lines[domain.DeckB], rep.lines[domain.DeckE], rep.skipped)

	if len(rep.rejected) > 0 {
		fmt.Fprintln(out, "\nRejected lines by reason:")
		reasons := make([]string, 0, len(rep.rejected))
		for r := range rep.rejected {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			fmt.Fprintf(out, "  %-24s %d\n", r, rep.rejected[r])
		}
	}

	fmt.Fprintf(out, "\nTracks: %d\n", len(rep.tracks))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  STORM\tTECH\tINIT\tCLASS\tPOINTS")
	for _, t := range rep.tracks {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%d\n", t.StormID, t.Technique, atcf.FormatTime(t.Init), t.Class(), t.Len())
	}
	_ = tw.Flush()

	kinds := make(map[string]int)
	for _, e := range rep.events {
		kinds[e.Kind.String()]++
	}
	if len(kinds) > 0 {
		fmt.Fprintln(out, "\nProbability events:")
		names := make([]string, 0, len(kinds))
		for k := range kinds {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(out, "  %-8s %d\n", k, kinds[k])
		}
	}
}
