package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dex_swap"

// Metrics holds the Prometheus collectors of one API server
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Domain metrics
	QuotesComputed *prometheus.CounterVec
	HistoryErrors  prometheus.Counter
	SettingsWrites prometheus.Counter
}

// NewMetrics creates metrics on a private registry so several servers can
// coexist in one process
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status code",
		}, []string{"route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		QuotesComputed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "computed_total",
			Help:      "Total number of quotes computed by impact level",
		}, []string{"impact"}),
		HistoryErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "errors_total",
			Help:      "Total number of failed explorer lookups",
		}),
		SettingsWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "writes_total",
			Help:      "Total number of accepted preference updates",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
