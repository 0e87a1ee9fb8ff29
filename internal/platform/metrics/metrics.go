package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	BatchesServed    prometheus.Counter
	BatchReplays     prometheus.Counter
	RowsExtracted    prometheus.Counter
	ExceptionsRaised *prometheus.CounterVec
	Allocations      *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		BatchesServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cohortd_batches_served_total",
			Help: "Total number of fresh extraction batches served to the consumer",
		}),
		BatchReplays: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cohortd_batch_replays_total",
			Help: "Total number of extraction requests answered from the audit ledger",
		}),
		RowsExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cohortd_rows_extracted_total",
			Help: "Total number of participant rows marked extracted",
		}),
		ExceptionsRaised: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cohortd_exceptions_raised_total",
			Help: "Total number of validation exception records created",
		}, []string{"fatal"}),
		Allocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cohortd_allocations_total",
			Help: "Total number of service provider allocations by outcome",
		}, []string{"outcome"}),
	}
}

// IncExceptionsRaised records one exception record, labelled by severity.
func (m *Metrics) IncExceptionsRaised(fatal bool) {
	label := "false"
	if fatal {
		label = "true"
	}
	m.ExceptionsRaised.WithLabelValues(label).Inc()
}
