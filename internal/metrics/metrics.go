// Package metrics registers Trackify's Prometheus collectors on a
// dedicated registry and serves them over HTTP.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusOK    = "ok"
	StatusError = "error"

	SourceLive     = "live"
	SourceFallback = "fallback"
)

// Metrics is safe to use through a nil pointer; every recorder is a no-op
// then, which keeps tests and the CLI free of registry setup.
type Metrics struct {
	registry     *prometheus.Registry
	walletOps    *prometheus.CounterVec
	conversions  *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		walletOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trackify",
			Name:      "wallet_operations_total",
			Help:      "Wallet mutations by operation and outcome.",
		}, []string{"op", "status"}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trackify",
			Name:      "currency_conversions_total",
			Help:      "Currency conversions by rate source.",
		}, []string{"source"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trackify",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.walletOps,
		m.conversions,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) WalletOperation(op string, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.walletOps.WithLabelValues(op, status).Inc()
}

func (m *Metrics) CurrencyConversion(live bool) {
	if m == nil {
		return
	}
	source := SourceFallback
	if live {
		source = SourceLive
	}
	m.conversions.WithLabelValues(source).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
