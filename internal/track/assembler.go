package track

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

// Options control how rows are matched to tracks.
type Options struct {
	// CheckDup skips rows identical to one already stored on any track.
	CheckDup bool
	// CheckAnalysis enables dynamic detection of analysis tracks.
	CheckAnalysis bool
}

// Assembler builds tracks from a stream of rows for one deck. It is not safe
// for concurrent use; each run or storm owns its own Assembler.
type Assembler struct {
	opts   Options
	tracks []*Track
}

// NewAssembler creates an empty Assembler.
func NewAssembler(opts Options) *Assembler {
	return &Assembler{opts: opts}
}

// AddLine decodes a track row and adds it. Row-level problems are returned
// as plain errors; the caller logs and continues. Fatal errors abort.
func (a *Assembler) AddLine(rc *atcf.RunContext, l atcf.Line) error {
	r, err := atcf.DecodeTrack(rc, l)
	if err != nil {
		return err
	}
	return a.AddRecord(r)
}

// AddRecord adds a decoded row to the most recent accepting track, or starts
// a new one.
func (a *Assembler) AddRecord(r atcf.TrackRecord) error {
	if a.opts.CheckDup && a.Has(r.Line) {
		return fmt.Errorf("%w: %s", atcf.ErrDuplicateLine, r.Line.Text)
	}

	for i := len(a.tracks) - 1; i >= 0; i-- {
		if a.tracks[i].Accepts(r) {
			return a.tracks[i].add(r)
		}
	}

	t := New(r, a.opts.CheckAnalysis)
	if err := t.add(r); err != nil {
		return err
	}
	a.tracks = append(a.tracks, t)
	return nil
}

// Has reports whether any track already holds an identical row.
func (a *Assembler) Has(l atcf.Line) bool {
	for i := len(a.tracks) - 1; i >= 0; i-- {
		if a.tracks[i].Has(l) {
			return true
		}
	}
	return false
}

// Tracks returns the assembled tracks in creation order.
func (a *Assembler) Tracks() []*Track {
	out := make([]*Track, len(a.tracks))
	copy(out, a.tracks)
	return out
}

// Len returns the number of tracks.
func (a *Assembler) Len() int { return len(a.tracks) }

// Reassemble re-parses raw rows and builds fresh tracks from them. Row
// problems are logged and skipped; a fatal error stops the rebuild.
func Reassemble(rc *atcf.RunContext, lines []atcf.Line, opts Options) ([]*Track, error) {
	a := NewAssembler(opts)
	for _, raw := range lines {
		l, err := atcf.ParseLine(raw.Text)
		if err == nil && !l.Kind.IsTrack() {
			err = fmt.Errorf("%w: %s", atcf.ErrWrongLineType, l.Kind)
		}
		if err == nil {
			err = a.AddLine(rc, l)
		}
		if err != nil {
			if atcf.IsFatal(err) {
				return nil, err
			}
			if !errors.Is(err, atcf.ErrBlankLine) {
				rc.Logger.Warn("skipping row during reassembly", "reason", atcf.Reason(err), "error", err)
			}
		}
	}
	return a.Tracks(), nil
}
