package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bu_wallet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bu_wallet_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LedgerMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bu_wallet_ledger_mutations_total",
			Help: "Total number of balance mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	SagaRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bu_wallet_saga_runs_total",
			Help: "Total number of orchestrated operations by outcome",
		},
		[]string{"saga", "outcome"},
	)

	CompensationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bu_wallet_compensation_failures_total",
			Help: "Compensating actions that failed and need manual reconciliation",
		},
		[]string{"saga", "step"},
	)

	PaymentEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bu_wallet_payment_events_total",
			Help: "Total number of consumed payment verification events",
		},
		[]string{"outcome"},
	)

	NotificationsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bu_wallet_notifications_published_total",
			Help: "Outbox notifications handed to the notification sink",
		},
		[]string{"status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordMutation(operation, outcome string) {
	LedgerMutationsTotal.WithLabelValues(operation, outcome).Inc()
}

func RecordSagaRun(saga, outcome string) {
	SagaRunsTotal.WithLabelValues(saga, outcome).Inc()
}

func RecordCompensationFailure(saga, step string) {
	CompensationFailuresTotal.WithLabelValues(saga, step).Inc()
}

func RecordPaymentEvent(outcome string) {
	PaymentEventsTotal.WithLabelValues(outcome).Inc()
}

func RecordNotification(status string) {
	NotificationsPublishedTotal.WithLabelValues(status).Inc()
}
