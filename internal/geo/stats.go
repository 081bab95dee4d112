package geo

import (
	"math"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

// Mean averages the non-missing values, or returns atcf.Missing when none are present.
func Mean(vs []float64) float64 {
	var sum float64
	n := 0
	for _, v := range vs {
		if atcf.IsMissing(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return atcf.Missing
	}
	return sum / float64(n)
}

// StdDev is the sample standard deviation of the non-missing values. Fewer
// than two values yield atcf.Missing.
func StdDev(vs []float64) float64 {
	var sum, sumSq float64
	n := 0
	for _, v := range vs {
		if atcf.IsMissing(v) {
			continue
		}
		sum += v
		sumSq += v * v
		n++
	}
	if n < 2 {
		return atcf.Missing
	}
	v := (sumSq - sum*sum/float64(n)) / float64(n-1)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}
