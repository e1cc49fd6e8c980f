package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	provisioningTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_provisioning_total",
			Help: "Agent provisioning runs by outcome (success or error kind)",
		},
		[]string{"outcome"},
	)

	schemaModeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_schema_mode_total",
			Help: "Agent records persisted by schema shape",
		},
		[]string{"mode"},
	)

	rollbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_rollback_total",
			Help: "Identity rollbacks by result",
		},
		[]string{"result"},
	)

	notificationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_notification_total",
			Help: "Welcome notifications by result",
		},
		[]string{"result"},
	)
)

// ObserveProvisioning counts a finished provisioning run.
func ObserveProvisioning(outcome string) {
	provisioningTotal.WithLabelValues(outcome).Inc()
}

// ObserveSchemaMode counts a persisted record by the shape that succeeded.
func ObserveSchemaMode(mode string) {
	schemaModeTotal.WithLabelValues(mode).Inc()
}

// ObserveRollback counts a rollback attempt ("deleted", "skipped" or "failed").
func ObserveRollback(result string) {
	rollbackTotal.WithLabelValues(result).Inc()
}

// ObserveNotification counts a welcome notification ("sent" or "failed").
func ObserveNotification(result string) {
	notificationTotal.WithLabelValues(result).Inc()
}
