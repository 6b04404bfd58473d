package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for bid request building.
type Metrics struct {
	// Full build latency, snapshot resolution included
	BuildLatency prometheus.Histogram

	// Where each request's consent snapshot came from
	SnapshotSource *prometheus.CounterVec

	// Stored-consent lookups that failed and degraded to an empty snapshot
	SourceErrors prometheus.Counter
}

// New creates a new Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the auction metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BuildLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rtbconsent_bid_request_build_duration_seconds",
			Help:    "Duration of bid request building including consent resolution",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		SnapshotSource: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtbconsent_consent_snapshot_source_total",
			Help: "Consent snapshots resolved by source",
		}, []string{"source"}), // source: "request", "storage_keys", "store", "none"

		SourceErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "rtbconsent_consent_source_errors_total",
			Help: "Stored-consent lookups that failed",
		}),
	}
}

// ObserveBuildLatency records the duration of one build.
func (m *Metrics) ObserveBuildLatency(d time.Duration) {
	if m != nil {
		m.BuildLatency.Observe(d.Seconds())
	}
}

// IncSnapshotSource counts a resolved snapshot by source.
func (m *Metrics) IncSnapshotSource(source string) {
	if m != nil {
		m.SnapshotSource.WithLabelValues(source).Inc()
	}
}

// IncSourceErrors counts a failed stored-consent lookup.
func (m *Metrics) IncSourceErrors() {
	if m != nil {
		m.SourceErrors.Inc()
	}
}
