// Package metrics provides Prometheus instrumentation for the console.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the console's Prometheus collectors. A single instance is
// created at startup and injected into the components that record to it.
type Metrics struct {
	RefreshTotal    *prometheus.CounterVec
	BatchRuns       prometheus.Counter
	BatchRequests   *prometheus.CounterVec
	CallsPlaced     prometheus.Counter
	CallsEnded      *prometheus.CounterVec
	PaymentLinks    *prometheus.CounterVec
	LedgerLatency   *prometheus.HistogramVec
	SessionExpiries prometheus.Counter
}

// New registers the console collectors on the given registerer. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "console_case_refresh_total",
			Help: "Case store refreshes by outcome.",
		}, []string{"outcome"}),
		BatchRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_analysis_batch_runs_total",
			Help: "Scoring batch runs started.",
		}),
		BatchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "console_analysis_requests_total",
			Help: "Per-case scoring requests by outcome.",
		}, []string{"outcome"}),
		CallsPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_calls_placed_total",
			Help: "Outbound call attempts.",
		}),
		CallsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "console_calls_ended_total",
			Help: "Call sessions ended by cause.",
		}, []string{"cause"}),
		PaymentLinks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "console_payment_links_total",
			Help: "Payment link requests by outcome.",
		}, []string{"outcome"}),
		LedgerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_ledger_request_seconds",
			Help:    "Latency of upstream ledger API calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		SessionExpiries: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_session_expiries_total",
			Help: "Sessions invalidated by upstream 401 responses.",
		}),
	}
}
