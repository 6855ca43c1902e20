package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity resolution engine. All
// methods are nil-safe so callers can run without metrics in tests.
type Metrics struct {
	// Resolution attempts by outcome ("resolved", "not_found", "error")
	ResolutionOutcome *prometheus.CounterVec

	// Cache lookups by result ("hit", "miss")
	CacheLookups *prometheus.CounterVec

	// Candidates extracted per resolution request
	CandidatesExtracted prometheus.Histogram

	// Backing store lookup latency by identifier type
	StoreLatency *prometheus.HistogramVec

	// Structured search latency
	SearchLatency prometheus.Histogram

	// Session identity bindings by kind ("bound", "rebound", "cleared")
	SessionBindings *prometheus.CounterVec
}

// New creates a Metrics instance with all engine metrics registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		ResolutionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clinid_resolution_outcomes_total",
			Help: "Total free-text resolution attempts by outcome",
		}, []string{"outcome"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clinid_resolution_cache_lookups_total",
			Help: "Resolution cache lookups by result",
		}, []string{"result"}),

		CandidatesExtracted: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clinid_extracted_candidates",
			Help:    "Number of deduplicated candidates extracted per request",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		}),

		StoreLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinid_store_lookup_duration_seconds",
			Help:    "Duration of backing store lookups by identifier type",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"identifier_type"}),

		SearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clinid_patient_search_duration_seconds",
			Help:    "Duration of structured patient searches",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		SessionBindings: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clinid_session_bindings_total",
			Help: "Session identity binding events by kind",
		}, []string{"kind"}),
	}
}

// IncrementResolution records the outcome of one resolution attempt.
func (m *Metrics) IncrementResolution(outcome string) {
	if m != nil {
		m.ResolutionOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementCacheLookup records a cache hit or miss.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// ObserveCandidates records how many candidates one request produced.
func (m *Metrics) ObserveCandidates(n int) {
	if m != nil {
		m.CandidatesExtracted.Observe(float64(n))
	}
}

// ObserveStoreLatency records the duration of one store lookup.
func (m *Metrics) ObserveStoreLatency(identifierType string, d time.Duration) {
	if m != nil {
		m.StoreLatency.WithLabelValues(identifierType).Observe(d.Seconds())
	}
}

// ObserveSearchLatency records the duration of one structured search.
func (m *Metrics) ObserveSearchLatency(d time.Duration) {
	if m != nil {
		m.SearchLatency.Observe(d.Seconds())
	}
}

// IncrementSessionBinding records a session identity event.
func (m *Metrics) IncrementSessionBinding(kind string) {
	if m != nil {
		m.SessionBindings.WithLabelValues(kind).Inc()
	}
}
