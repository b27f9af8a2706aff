// Package metrics holds the Prometheus collectors for the fare service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, route and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Quotes counts priced quotes by mode and pricing type.
	Quotes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fare_quotes_total", Help: "Fare quotes computed."},
		[]string{"mode", "pricing_type"},
	)
	// QuoteErrors counts rejected quotes by error kind.
	QuoteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fare_quote_errors_total", Help: "Fare quotes rejected, by kind."},
		[]string{"kind"},
	)
	// SnapshotReloads counts reference data reloads by outcome.
	SnapshotReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fare_snapshot_reloads_total", Help: "Reference data reloads, by outcome."},
		[]string{"outcome"},
	)
	// SnapshotVersion is the version of the snapshot currently served.
	SnapshotVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "fare_snapshot_version", Help: "Version of the pricing snapshot in use."},
	)
)

var regOnce sync.Once

// RegisterDefault registers every collector on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Quotes)
		Registry.MustRegister(QuoteErrors)
		Registry.MustRegister(SnapshotReloads)
		Registry.MustRegister(SnapshotVersion)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
