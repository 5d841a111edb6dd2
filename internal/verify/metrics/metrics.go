package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Ledger read latencies by method
	LookupLatency *prometheus.HistogramVec

	// Lookup failures by method (fail-closed events)
	LookupFailures *prometheus.CounterVec

	// Verdicts by classification and outcome
	VerdictOutcome *prometheus.CounterVec

	// Overall evaluation latency
	EvaluateLatency prometheus.Histogram
}

// New creates a new Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		LookupLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veriscan_verify_lookup_duration_seconds",
			Help:    "Duration of ledger reads by method",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method"}),

		LookupFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriscan_verify_lookup_failures_total",
			Help: "Total failed or timed-out ledger reads by method",
		}, []string{"method"}),

		VerdictOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriscan_verify_verdicts_total",
			Help: "Total verdicts by classification and outcome",
		}, []string{"classification", "ok"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veriscan_verify_evaluate_duration_seconds",
			Help:    "Duration of full verification including ledger reads",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveLookup records the duration of one ledger read.
func (m *Metrics) ObserveLookup(method string, d time.Duration) {
	if m != nil {
		m.LookupLatency.WithLabelValues(method).Observe(d.Seconds())
	}
}

// IncrementLookupFailure records a failed ledger read.
func (m *Metrics) IncrementLookupFailure(method string) {
	if m != nil {
		m.LookupFailures.WithLabelValues(method).Inc()
	}
}

// IncrementVerdict records one verdict outcome.
func (m *Metrics) IncrementVerdict(classification string, ok bool) {
	if m != nil {
		label := "false"
		if ok {
			label = "true"
		}
		m.VerdictOutcome.WithLabelValues(classification, label).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
