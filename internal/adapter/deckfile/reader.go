// Package deckfile reads ATCF deck files and watch/warning bulletins from
// disk.
package deckfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/couchcryptid/storm-track-verify/internal/domain"
)

// Source is one deck file.
type Source struct {
	Deck domain.Deck
	Path string
}

// Expand resolves glob patterns into sources in lexical order. A pattern
// matching nothing is an error.
func Expand(deck domain.Deck, patterns []string) ([]Source, error) {
	var out []Source
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no %s files match %q", deck, pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			out = append(out, Source{Deck: deck, Path: m})
		}
	}
	return out, nil
}

// Reader streams lines from a list of deck files, one file after another.
// Files ending in .gz are decompressed. It implements pipeline.LineExtractor.
type Reader struct {
	sources []Source
	logger  *slog.Logger

	next   int
	cur    Source
	file   *os.File
	gz     *gzip.Reader
	buf    *bufio.Reader
	lineNo int
}

// NewReader creates a Reader over sources.
func NewReader(sources []Source, logger *slog.Logger) *Reader {
	return &Reader{sources: sources, logger: logger}
}

// ExtractBatch returns up to batchSize lines. It returns io.EOF, with any
// final lines, after the last file.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawLine, error) {
	batch := make([]domain.RawLine, 0, batchSize)
	for len(batch) < batchSize {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		if r.buf == nil {
			if r.next >= len(r.sources) {
				return batch, io.EOF
			}
			if err := r.open(r.sources[r.next]); err != nil {
				return batch, err
			}
			r.next++
		}

		text, err := r.buf.ReadString('\n')
		if text != "" {
			r.lineNo++
			batch = append(batch, domain.RawLine{
				Deck:   r.cur.Deck,
				Source: filepath.Base(r.cur.Path),
				Number: r.lineNo,
				Text:   strings.TrimRight(text, "\r\n"),
			})
		}
		if errors.Is(err, io.EOF) {
			r.logger.Debug("deck file read", "path", r.cur.Path, "lines", r.lineNo)
			if cerr := r.closeCurrent(); cerr != nil {
				return batch, cerr
			}
			continue
		}
		if err != nil {
			return batch, fmt.Errorf("read %s: %w", r.cur.Path, err)
		}
	}
	return batch, nil
}

func (r *Reader) open(src Source) error {
	f, err := os.Open(src.Path)
	if err != nil {
		return fmt.Errorf("open deck: %w", err)
	}
	r.cur, r.file, r.lineNo = src, f, 0

	var in io.Reader = f
	if strings.HasSuffix(src.Path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			r.file = nil
			return fmt.Errorf("open deck %s: %w", src.Path, err)
		}
		r.gz = gz
		in = gz
	}
	r.buf = bufio.NewReader(in)
	return nil
}

func (r *Reader) closeCurrent() error {
	var err error
	if r.gz != nil {
		err = r.gz.Close()
		r.gz = nil
	}
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
		r.file = nil
	}
	r.buf = nil
	return err
}

// Close releases the file currently open, if any.
func (r *Reader) Close() error {
	return r.closeCurrent()
}
