// Package metrics exposes Prometheus collectors for bmc.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Offline request results.
const (
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultBypass   = "bypass"
	ResultNetError = "network_error"
)

var (
	unitSelectionsTotal  prometheus.Counter
	unitsCompletedTotal  prometheus.Counter
	offlineRequestsTotal *prometheus.CounterVec
	cacheInstallsTotal   *prometheus.CounterVec
	httpRequestsTotal    *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		unitSelectionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bmc_unit_selections_total",
				Help: "Total number of unit selections.",
			},
		)

		unitsCompletedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bmc_units_completed_total",
				Help: "Total number of units that moved from incomplete to complete.",
			},
		)

		offlineRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bmc_offline_requests_total",
				Help: "Requests seen by the offline transport, labeled by result.",
			},
			[]string{"result"},
		)

		cacheInstallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bmc_cache_installs_total",
				Help: "Offline cache install attempts, labeled by status.",
			},
			[]string{"status"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bmc_http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveSelection counts a unit selection.
func ObserveSelection() {
	Init()
	unitSelectionsTotal.Inc()
}

// ObserveCompletion counts a unit completed for the first time.
func ObserveCompletion() {
	Init()
	unitsCompletedTotal.Inc()
}

// ObserveOfflineRequest counts a request handled by the offline transport.
func ObserveOfflineRequest(result string) {
	Init()
	offlineRequestsTotal.WithLabelValues(result).Inc()
}

// ObserveCacheInstall counts an install attempt ("ok" or "failed").
func ObserveCacheInstall(status string) {
	Init()
	cacheInstallsTotal.WithLabelValues(status).Inc()
}

// ObserveHTTPRequest counts a request served by the API.
func ObserveHTTPRequest(method string, code int) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
}
