package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "inventory_hub"

type Metrics struct {
	InflightRequests prometheus.Gauge
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec

	OrdersTotal      *prometheus.CounterVec
	OrderDuration    *prometheus.HistogramVec
	OrderValue       *prometheus.CounterVec
	StockAdjustments *prometheus.CounterVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		InflightRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "Number of HTTP requests being served.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_submissions_total",
			Help:      "Order submissions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		OrderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_submission_duration_seconds",
			Help:      "Time to validate and commit an order submission.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"mode"}),
		OrderValue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_value_total",
			Help:      "Sum of committed order totals.",
		}, []string{"mode"}),
		StockAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_adjustments_total",
			Help:      "Manual stock changes by direction.",
		}, []string{"type"}),
	}

	reg.MustRegister(
		m.InflightRequests,
		m.RequestsTotal,
		m.RequestDuration,
		m.OrdersTotal,
		m.OrderDuration,
		m.OrderValue,
		m.StockAdjustments,
	)
	return m
}

// ObserveOrder records one submission. An empty cause means success.
func (m *Metrics) ObserveOrder(mode, cause string, elapsed time.Duration, total decimal.Decimal) {
	outcome := cause
	if outcome == "" {
		outcome = "success"
	}
	m.OrdersTotal.WithLabelValues(mode, outcome).Inc()
	m.OrderDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if cause == "" {
		m.OrderValue.WithLabelValues(mode).Add(total.InexactFloat64())
	}
}

// ObserveStockAdjustment counts a manual stock change
func (m *Metrics) ObserveStockAdjustment(logType string) {
	m.StockAdjustments.WithLabelValues(logType).Inc()
}
