package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OperationsTotal counts committed pipeline operations by ledger action.
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptorium_operations_total",
			Help: "Committed task operations, labeled by action.",
		},
		[]string{"action"},
	)

	// FailuresTotal counts rejected requests by error kind.
	FailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptorium_operation_failures_total",
			Help: "Failed task operations, labeled by error kind.",
		},
		[]string{"kind"},
	)

	// WebhookDeliveries counts webhook delivery attempts by outcome.
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptorium_webhook_deliveries_total",
			Help: "Webhook delivery attempts, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	registerOnce sync.Once
)

// Register installs the collectors in the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(OperationsTotal, FailuresTotal, WebhookDeliveries)
	})
}

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
