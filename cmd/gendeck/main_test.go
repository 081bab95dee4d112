package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/domain"
	"github.com/couchcryptid/storm-track-verify/internal/prob"
	"github.com/couchcryptid/storm-track-verify/internal/track"
)

func TestGenerateProducesValidDecks(t *testing.T) {
	o, err := parseOptions("AL092022", "2022092300", 24, "OFCL, gfsi", 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"OFCL", "GFSI"}, o.techniques)

	adeck, bdeck := generate(o)
	require.Len(t, bdeck, 5)

	rc := atcf.NewRunContext(slog.New(slog.NewTextHandler(io.Discard, nil)), atcf.Conventions{})
	best := track.NewAssembler(track.Options{})
	for _, text := range bdeck {
		l, err := atcf.ParseLine(text)
		require.NoError(t, err, text)
		require.NoError(t, best.AddLine(rc, l))
	}
	require.Equal(t, 1, best.Len())
	assert.True(t, best.Tracks()[0].IsBest())

	fcst := track.NewAssembler(track.Options{})
	probs := prob.NewAggregator()
	for _, text := range adeck {
		l, err := atcf.ParseLine(text)
		require.NoError(t, err, text)
		if l.Kind.IsProb() {
			require.NoError(t, probs.AddLine(rc, l))
			continue
		}
		require.NoError(t, fcst.AddLine(rc, l))
	}
	// Three inits (0, 12, 24 h) for each of two techniques.
	assert.Equal(t, 6, fcst.Len())
	assert.Len(t, probs.Events(), 3)
	assert.Equal(t, time.Date(2022, 9, 23, 0, 0, 0, 0, time.UTC), fcst.Tracks()[0].Init)
}

func TestGenerateIsSeeded(t *testing.T) {
	o, err := parseOptions("AL092022", "2022092300", 24, "OFCL", 3)
	require.NoError(t, err)
	a1, _ := generate(o)
	a2, _ := generate(o)
	assert.Equal(t, a1, a2)
}

func TestParseOptionsErrors(t *testing.T) {
	tests := []struct {
		name, storm, start string
		hours              int
	}{
		{"short storm id", "AL09", "2022092300", 24},
		{"bad year", "AL09XXXX", "2022092300", 24},
		{"bad start", "AL092022", "yesterday", 24},
		{"too short", "AL092022", "2022092300", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOptions(tt.storm, tt.start, tt.hours, "OFCL", 1)
			require.Error(t, err)
		})
	}
}

func TestDeckMessages(t *testing.T) {
	msgs := deckMessages(domain.DeckB, []string{"a", "b"})
	require.Len(t, msgs, 2)
	assert.Equal(t, "deck", msgs[0].Headers[0].Key)
	assert.Equal(t, []byte("bdeck"), msgs[1].Headers[0].Value)
}
