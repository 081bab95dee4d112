package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Deck identifies which ATCF deck a line was read from.
type Deck string

const (
	DeckA Deck = "adeck"
	DeckB Deck = "bdeck"
	DeckE Deck = "edeck"
)

// ParseDeck maps "adeck", "a", "ADECK" and friends to a Deck.
func ParseDeck(s string) (Deck, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "adeck":
		return DeckA, nil
	case "b", "bdeck":
		return DeckB, nil
	case "e", "edeck":
		return DeckE, nil
	default:
		return "", fmt.Errorf("unknown deck %q", s)
	}
}

// RawLine is one unparsed deck line.
type RawLine struct {
	Deck   Deck
	Source string // file name or topic
	Number int    // 1-based line number within Source, 0 when unknown
	Text   string

	// Set when the line came from Kafka.
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Position formats the line's origin for log messages.
func (l RawLine) Position() string {
	if l.Number > 0 {
		return fmt.Sprintf("%s:%d", l.Source, l.Number)
	}
	if l.Source != "" {
		return fmt.Sprintf("%s@%d/%d", l.Source, l.Partition, l.Offset)
	}
	return string(l.Deck)
}
