// Package metrics exposes Prometheus instrumentation for the enforcement
// hot path and catalog lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	permitChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scriptsec",
		Name:      "permit_checks_total",
		Help:      "Permission checks by access kind and decision.",
	}, []string{"kind", "decision"})

	catalogReloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scriptsec",
		Name:      "catalog_reloads_total",
		Help:      "Successful whitelist catalog reloads.",
	})

	catalogEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "scriptsec",
		Name:      "catalog_entries",
		Help:      "Active whitelist entries.",
	})
)

// RecordCheck counts one permission check. decision is "allowed" or "denied".
func RecordCheck(kind, decision string) {
	permitChecks.WithLabelValues(kind, decision).Inc()
}

// RecordReload counts one successful catalog reload.
func RecordReload() {
	catalogReloads.Inc()
}

// SetCatalogEntries reports the active entry count.
func SetCatalogEntries(n int) {
	catalogEntries.Set(float64(n))
}

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
