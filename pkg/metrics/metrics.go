// Package metrics owns the Prometheus collectors of the storefront core.
// A nil *Metrics is valid and records nothing, so components and tests can
// run without a registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "farmgate"

type Metrics struct {
	registry *prometheus.Registry

	catalogRequests     *prometheus.CounterVec
	catalogBreakerOpen  prometheus.Gauge
	paymentPolls        *prometheus.CounterVec
	checkoutSubmissions *prometheus.CounterVec
	cartItems           prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		catalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "requests_total",
			Help:      "Catalog listings by the source that answered and the remote outcome.",
		}, []string{"source", "outcome"}),
		catalogBreakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "breaker_open",
			Help:      "1 once the catalog serves local fallback data for the rest of the session.",
		}),
		paymentPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "status_queries_total",
			Help:      "Payment status queries by result.",
		}, []string{"result"}),
		checkoutSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "submissions_total",
			Help:      "Checkout submissions by outcome.",
		}, []string{"outcome"}),
		cartItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "items",
			Help:      "Units currently in the cart.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.catalogRequests,
		m.catalogBreakerOpen,
		m.paymentPolls,
		m.checkoutSubmissions,
		m.cartItems,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) CatalogRequest(source, outcome string) {
	if m == nil {
		return
	}
	m.catalogRequests.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) CatalogBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.catalogBreakerOpen.Set(1)
		return
	}
	m.catalogBreakerOpen.Set(0)
}

func (m *Metrics) PaymentPoll(result string) {
	if m == nil {
		return
	}
	m.paymentPolls.WithLabelValues(result).Inc()
}

func (m *Metrics) CheckoutSubmission(outcome string) {
	if m == nil {
		return
	}
	m.checkoutSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CartItems(n int) {
	if m == nil {
		return
	}
	m.cartItems.Set(float64(n))
}
