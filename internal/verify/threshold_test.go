package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		in   string
		want Threshold
	}{
		{">=30", Threshold{OpGE, 30}},
		{"ge30", Threshold{OpGE, 30}},
		{" GT 25 ", Threshold{OpGT, 25}},
		{"<=-30", Threshold{OpLE, -30}},
		{"lt-20.5", Threshold{OpLT, -20.5}},
		{"==0", Threshold{OpEQ, 0}},
		{"ne5", Threshold{OpNE, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseThreshold(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "30", ">=", "about30", "=>30"} {
		_, err := ParseThreshold(bad)
		assert.ErrorIs(t, err, ErrInvalidThreshold, bad)
	}
}

func TestThresholdCheck(t *testing.T) {
	tests := []struct {
		th   string
		v    float64
		want bool
	}{
		{">=30", 30, true},
		{">30", 30, false},
		{"<=-30", -35, true},
		{"<-30", -30, false},
		{"==10", 10, true},
		{"!=10", 10, false},
		{">=30", atcf.Missing, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MustThreshold(tt.th).Check(tt.v), "%s %v", tt.th, tt.v)
	}
	assert.False(t, Threshold{}.Check(1))
}

func TestThresholdText(t *testing.T) {
	var cfg struct {
		Thresh Threshold `yaml:"thresh"`
		Deck   Deck      `yaml:"deck"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("thresh: \">=30\"\ndeck: both\n"), &cfg))
	assert.Equal(t, Threshold{OpGE, 30}, cfg.Thresh)
	assert.Equal(t, DeckBoth, cfg.Deck)
	assert.Equal(t, ">=30", cfg.Thresh.String())
	assert.Equal(t, "NA", Threshold{}.String())

	err := yaml.Unmarshal([]byte("deck: sideways\n"), &cfg)
	assert.Error(t, err)
}
