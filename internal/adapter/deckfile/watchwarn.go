package deckfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/domain"
)

// ReadWatchWarn parses a watch/warning bulletin file. offset is added to
// every bulletin time.
func ReadWatchWarn(path string, offset time.Duration) ([]domain.WatchWarnBulletin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open watch/warning file: %w", err)
	}
	defer f.Close()
	return ParseWatchWarn(f, offset)
}

// ParseWatchWarn reads bulletins of the form
//
//	MM DD YYYY HH MM N STORMID
//	code ...
//
// where N code lines follow each header and the most severe code wins.
func ParseWatchWarn(r io.Reader, offset time.Duration) ([]domain.WatchWarnBulletin, error) {
	sc := bufio.NewScanner(r)
	lineNo := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			lineNo++
			if f := strings.Fields(sc.Text()); len(f) > 0 {
				return f, true
			}
		}
		return nil, false
	}

	var out []domain.WatchWarnBulletin
	for {
		hdr, ok := next()
		if !ok {
			break
		}
		if len(hdr) < 7 {
			return nil, fmt.Errorf("line %d: watch/warning header has %d fields", lineNo, len(hdr))
		}
		nums, err := atois(hdr[:4], hdr[5])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		month, day, year, hour, n := nums[0], nums[1], nums[2], nums[3], nums[4]
		issued := time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)

		level := atcf.WatchWarnNone
		for i := 0; i < n; i++ {
			code, ok := next()
			if !ok {
				return nil, fmt.Errorf("line %d: expected %d watch/warning lines, got %d", lineNo, n, i)
			}
			c, err := strconv.Atoi(code[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: watch/warning code %q", lineNo, code[0])
			}
			level = atcf.MaxWatchWarn(level, atcf.WatchWarnFromCode(c))
		}

		out = append(out, domain.WatchWarnBulletin{
			StormID: strings.TrimSpace(hdr[6]),
			Issued:  issued.Add(offset),
			Level:   level,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read watch/warning file: %w", err)
	}
	return out, nil
}

func atois(fields []string, extra ...string) ([]int, error) {
	all := append(append([]string{}, fields...), extra...)
	out := make([]int, len(all))
	for i, s := range all {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("watch/warning header field %q is not a number", s)
		}
		out[i] = v
	}
	return out, nil
}
