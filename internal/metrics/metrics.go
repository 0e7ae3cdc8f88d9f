// Package metrics holds the exchange's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dex"

// Metrics is a set of collectors bound to their own registry, so tests can
// create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	Operations    *prometheus.CounterVec   // op, result
	Rejections    *prometheus.CounterVec   // op, code
	Trades        *prometheus.CounterVec   // symbol
	FillsPerOrder *prometheus.HistogramVec // symbol
	Truncations   *prometheus.CounterVec   // symbol
	RestingOrders *prometheus.GaugeVec     // symbol, side
	Webhooks      *prometheus.CounterVec   // event, result
}

// New creates and registers every collector, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Public operations processed, by operation and result.",
		}, []string{"op", "result"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Rejected operations, by operation and error code.",
		}, []string{"op", "code"}),
		Trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Executed trades, by symbol.",
		}, []string{"symbol"}),
		FillsPerOrder: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "market_order_fills",
			Help:      "Maker orders consumed by one market order.",
			Buckets:   []float64{0, 1, 2, 5, 10, 50, 100, 500, 1000},
		}, []string{"symbol"}),
		Truncations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_order_truncations_total",
			Help:      "Market orders stopped by the match step limit.",
		}, []string{"symbol"}),
		RestingOrders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resting_orders",
			Help:      "Orders resting on the book, by symbol and side.",
		}, []string{"symbol", "side"}),
		Webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Webhook delivery attempts, by event and result.",
		}, []string{"event", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Operations,
		m.Rejections,
		m.Trades,
		m.FillsPerOrder,
		m.Truncations,
		m.RestingOrders,
		m.Webhooks,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Succeeded records a committed operation.
func (m *Metrics) Succeeded(op string) {
	m.Operations.WithLabelValues(op, "ok").Inc()
}

// Rejected records a failed operation under its error code.
func (m *Metrics) Rejected(op, code string) {
	m.Operations.WithLabelValues(op, "rejected").Inc()
	m.Rejections.WithLabelValues(op, code).Inc()
}

// MarketOrder records the outcome of one executed market order.
func (m *Metrics) MarketOrder(symbol string, fills int, truncated bool) {
	m.Trades.WithLabelValues(symbol).Add(float64(fills))
	m.FillsPerOrder.WithLabelValues(symbol).Observe(float64(fills))
	if truncated {
		m.Truncations.WithLabelValues(symbol).Inc()
	}
}

// SetResting publishes the current book size of one side.
func (m *Metrics) SetResting(symbol, side string, n int) {
	m.RestingOrders.WithLabelValues(symbol, side).Set(float64(n))
}

// WebhookDelivered records a webhook delivery attempt.
func (m *Metrics) WebhookDelivered(event string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.Webhooks.WithLabelValues(event, result).Inc()
}
