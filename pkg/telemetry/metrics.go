// Package telemetry exposes the Prometheus metrics for the sync engine and
// the payment pipeline.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PushedRecords counts records confirmed by the remote store, by kind.
	PushedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sendlink_sync_pushed_records_total",
		Help: "Records successfully pushed to the remote store.",
	}, []string{"kind"})

	// PushFailures counts records whose push exhausted the retry budget.
	PushFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sendlink_sync_push_failures_total",
		Help: "Records marked failed after the push retry budget ran out.",
	}, []string{"kind"})

	// PushConflicts counts per-record pushes aborted by a revision conflict.
	PushConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sendlink_sync_push_conflicts_total",
		Help: "Pushes requeued because the record changed mid-flight.",
	}, []string{"kind"})

	// PulledRecords counts remote records applied locally.
	PulledRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sendlink_sync_pulled_records_total",
		Help: "Remote records applied by the pull loop.",
	})

	// Payments counts finished payment sends by outcome.
	Payments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sendlink_payments_total",
		Help: "Payment sends by final status.",
	}, []string{"status"})

	// RiskLogAppends counts entries written to the risk audit log.
	RiskLogAppends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sendlink_risk_log_appends_total",
		Help: "Entries appended to the risk log.",
	})

	// SweptPayments counts stale pending payments resolved by the sweep.
	SweptPayments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sendlink_swept_payments_total",
		Help: "Stale payments resolved by the sweep, by outcome.",
	}, []string{"status"})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
