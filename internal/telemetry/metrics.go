package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	ShootsCreated          = prometheus.NewCounter(prometheus.CounterOpts{Name: "headshot_shoots_created_total", Help: "Shoot requests accepted by the provider"})
	ShootsRejected         = prometheus.NewCounter(prometheus.CounterOpts{Name: "headshot_shoots_rejected_total", Help: "Shoot requests the provider rejected"})
	Reconciliations        = prometheus.NewCounter(prometheus.CounterOpts{Name: "headshot_reconciliations_total", Help: "Status reconciliation calls executed"})
	ReconciliationFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "headshot_reconciliation_failures_total", Help: "Reconciliation calls that failed upstream"})
	WebhookDeliveries      = prometheus.NewCounter(prometheus.CounterOpts{Name: "headshot_webhook_deliveries_total", Help: "Provider webhook deliveries received"})
	FavoritesToggled       = prometheus.NewCounter(prometheus.CounterOpts{Name: "headshot_favorites_toggled_total", Help: "Favorite add/remove operations"})
	PollingActiveJobs      = prometheus.NewGauge(prometheus.GaugeOpts{Name: "headshot_polling_active_jobs", Help: "Predictions currently tracked by the poller"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			ShootsCreated,
			ShootsRejected,
			Reconciliations,
			ReconciliationFailures,
			WebhookDeliveries,
			FavoritesToggled,
			PollingActiveJobs,
		)
	})
	return promhttp.Handler()
}
