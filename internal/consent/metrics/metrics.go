package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rtbconsent/internal/consent"
)

// Metrics provides observability for consent enrichment.
type Metrics struct {
	// Fields written by field name
	FieldsWritten *prometheus.CounterVec

	// Present values that were not written, by field and reason
	FieldsOmitted *prometheus.CounterVec

	// Enrichments that wrote and omitted nothing
	Noops prometheus.Counter
}

// New creates a new Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the consent metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FieldsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtbconsent_consent_fields_written_total",
			Help: "Consent fields written into bid requests by field",
		}, []string{"field"}), // field: "regs.gdpr", "user.consent", ...

		FieldsOmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtbconsent_consent_fields_omitted_total",
			Help: "Present consent values left out of bid requests by field and reason",
		}, []string{"field", "reason"}),

		Noops: factory.NewCounter(prometheus.CounterOpts{
			Name: "rtbconsent_consent_enrich_noop_total",
			Help: "Enrichments whose snapshot carried no consent values",
		}),
	}
}

// ObserveOutcome records every field written and omitted by one enrichment.
func (m *Metrics) ObserveOutcome(out consent.Outcome) {
	if m == nil {
		return
	}
	if out.IsNoop() {
		m.Noops.Inc()
		return
	}
	for _, f := range out.Written {
		m.FieldsWritten.WithLabelValues(string(f)).Inc()
	}
	for _, o := range out.Omitted {
		m.FieldsOmitted.WithLabelValues(string(o.Field), string(o.Reason)).Inc()
	}
}
