package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_verify"

// Metrics holds the Prometheus counters, histograms, and gauges for a
// verification run.
type Metrics struct {
	LinesRead       *prometheus.CounterVec // labels: deck={adeck,bdeck,edeck}
	LinesRejected   *prometheus.CounterVec // labels: reason
	TracksBuilt     *prometheus.CounterVec // labels: class={forecast,best,analysis}
	PairsBuilt      prometheus.Counter
	PointsKept      prometheus.Counter
	PointsFiltered  *prometheus.CounterVec // labels: filter={water_only,rirw,landfall}
	ConsensusPoints prometheus.Counter
	ProbEvents      *prometheus.CounterVec // labels: kind
	RecordsLoaded   *prometheus.CounterVec // labels: kind
	LoadErrors      prometheus.Counter
	PipelineRunning prometheus.Gauge

	BatchSize   prometheus.Histogram
	RunDuration prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method=reverse, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method=reverse, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method=reverse
	GeocodeEnabled     prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		LinesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_read_total",
			Help:      "Deck lines read by deck.",
		}, []string{"deck"}),
		LinesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_rejected_total",
			Help:      "Deck lines skipped by reason.",
		}, []string{"reason"}),
		TracksBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracks_built_total",
			Help:      "Tracks assembled by class.",
		}, []string{"class"}),
		PairsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_built_total",
			Help:      "Forecast tracks paired with a verifying track.",
		}),
		PointsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_kept_total",
			Help:      "Pair points surviving every filter.",
		}),
		PointsFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_filtered_total",
			Help:      "Pair points dropped by filter.",
		}, []string{"filter"}),
		ConsensusPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consensus_points_total",
			Help:      "Consensus track points computed.",
		}),
		ProbEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prob_events_total",
			Help:      "Probability events aggregated by kind.",
		}, []string{"kind"}),
		RecordsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Output records handed to the sink by kind.",
		}, []string{"kind"}),
		LoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Failed sink writes, including retried ones.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is active, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of lines per extracted batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete verification run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when landfall geocoding is enabled, 0 otherwise.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.LinesRead,
		m.LinesRejected,
		m.TracksBuilt,
		m.PairsBuilt,
		m.PointsKept,
		m.PointsFiltered,
		m.ConsensusPoints,
		m.ProbEvents,
		m.RecordsLoaded,
		m.LoadErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.RunDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
