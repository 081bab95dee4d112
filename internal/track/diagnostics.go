package track

import (
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

// DiagnosticsSource supplies named scalar series for one track, ordered by
// lead time.
type DiagnosticsSource interface {
	Leads() []time.Duration
	Lookup(name string) []float64
}

// AttachDiagnostics copies the named series onto the points with matching
// lead times. Names the source does not carry are skipped. It returns the
// number of values attached.
func AttachDiagnostics(t *Track, src DiagnosticsSource, names []string) int {
	leads := src.Leads()
	n := 0
	for _, name := range names {
		values := src.Lookup(name)
		for i, v := range values {
			if i >= len(leads) || atcf.IsMissing(v) {
				continue
			}
			j := t.LeadIndex(leads[i])
			if j < 0 {
				continue
			}
			if t.points[j].Diagnostics == nil {
				t.points[j].Diagnostics = make(map[string]float64)
			}
			t.points[j].Diagnostics[name] = v
			n++
		}
	}
	return n
}

// StaticDiagnostics is an in-memory DiagnosticsSource.
type StaticDiagnostics struct {
	LeadTimes []time.Duration
	Series    map[string][]float64
}

func (s StaticDiagnostics) Leads() []time.Duration { return s.LeadTimes }

func (s StaticDiagnostics) Lookup(name string) []float64 { return s.Series[name] }
