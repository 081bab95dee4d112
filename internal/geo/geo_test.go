package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

func TestDistanceNM(t *testing.T) {
	assert.Equal(t, 0.0, DistanceNM(25, -80, 25, -80))
	assert.InDelta(t, 60.0, DistanceNM(25, -80, 26, -80), 0.2)
	assert.InDelta(t, DistanceNM(10, 179.5, 10, -179.5), DistanceNM(10, 0, 10, 1), 1e-6)
	assert.Equal(t, atcf.Missing, DistanceNM(atcf.Missing, -80, 25, -80))
}

func TestBearing(t *testing.T) {
	assert.InDelta(t, 0.0, Bearing(20, -60, 21, -60), 1e-6)
	assert.InDelta(t, 90.0, Bearing(0, -60, 0, -59), 1e-6)
	assert.InDelta(t, 180.0, Bearing(21, -60, 20, -60), 1e-6)
	assert.InDelta(t, 270.0, Bearing(0, -59, 0, -60), 1e-6)
	assert.Equal(t, atcf.Missing, Bearing(20, atcf.Missing, 21, -60))
}

func TestRescaleLon(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{179.75, 179.75},
		{180, -180},
		{190, -170},
		{-190, 170},
		{540, -180},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RescaleLon(tt.in), 1e-9, "RescaleLon(%v)", tt.in)
	}
	assert.InDelta(t, 2.0, DeltaLon(179, -179), 1e-9)
	assert.InDelta(t, -2.0, DeltaLon(-179, 179), 1e-9)
}

func TestMeanLon(t *testing.T) {
	t.Run("date line", func(t *testing.T) {
		// 1 degree east and 0.5 degree west of the date line meet at 180.25E.
		got := MeanLon([]float64{-179.0, 179.5})
		assert.InDelta(t, -179.75, got, 1e-9)
	})

	t.Run("ordinary", func(t *testing.T) {
		assert.InDelta(t, -81.0, MeanLon([]float64{-80, -82}), 1e-9)
	})

	t.Run("missing ignored", func(t *testing.T) {
		assert.InDelta(t, -80.0, MeanLon([]float64{-80, atcf.Missing}), 1e-9)
		assert.Equal(t, atcf.Missing, MeanLon([]float64{atcf.Missing}))
	})
}

func TestMeanDirection(t *testing.T) {
	got := MeanDirection([]float64{350, 10})
	assert.True(t, got < 1e-6 || got > 360-1e-6, "got %v", got)
	assert.InDelta(t, 90.0, MeanDirection([]float64{80, 100, atcf.Missing}), 1e-9)
	assert.Equal(t, atcf.Missing, MeanDirection(nil))
}

func TestStats(t *testing.T) {
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3, atcf.Missing}), 1e-12)
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-12)
	assert.Equal(t, atcf.Missing, StdDev([]float64{5}))
	assert.Equal(t, atcf.Missing, Mean(nil))
}
