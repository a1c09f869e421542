// Package metrics exposes Prometheus collectors for the allocator, order placement and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/domain/documents/invoice"
	"uniformshop/internal/infrastructure/numerator"
	"uniformshop/internal/infrastructure/storage/postgres"
)

const namespace = "uniformshop"

var (
	_ numerator.Observer = (*Metrics)(nil)
	_ invoice.Observer   = (*Metrics)(nil)
)

// Metrics owns a private registry so tests can build as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	allocations        *prometheus.CounterVec
	allocationAttempts *prometheus.HistogramVec

	orders         *prometheus.CounterVec
	orderDuration  prometheus.Histogram
	statusChanges  *prometheus.CounterVec
	outboxMessages *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "HTTP request latency.", Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "numerator", Name: "allocations_total",
			Help: "Sequence allocations by series and outcome.",
		}, []string{"series", "outcome"}),
		allocationAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "numerator", Name: "allocation_attempts",
			Help: "Store calls needed per allocation.", Buckets: []float64{1, 2, 3, 5, 8},
		}, []string{"series"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "placed_total",
			Help: "Order placement attempts by outcome.",
		}, []string{"outcome"}),
		orderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "orders", Name: "duration_seconds",
			Help: "Order placement latency.", Buckets: prometheus.DefBuckets,
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "invoices", Name: "status_changes_total",
			Help: "Invoice status transitions.",
		}, []string{"from", "to"}),
		outboxMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "outbox", Name: "messages_total",
			Help: "Outbox messages handled by the relay.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.allocations, m.allocationAttempts,
		m.orders, m.orderDuration, m.statusChanges, m.outboxMessages,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAllocation implements numerator.Observer.
func (m *Metrics) ObserveAllocation(series string, attempts int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if appErr, ok := apperror.AsAppError(err); ok {
			outcome = appErr.Code
		}
	}
	m.allocations.WithLabelValues(series, outcome).Inc()
	m.allocationAttempts.WithLabelValues(series).Observe(float64(attempts))
}

// ObserveOrder implements invoice.Observer.
func (m *Metrics) ObserveOrder(outcome string, duration time.Duration) {
	m.orders.WithLabelValues(outcome).Inc()
	m.orderDuration.Observe(duration.Seconds())
}

// ObserveStatusChange implements invoice.Observer.
func (m *Metrics) ObserveStatusChange(from, to string) {
	m.statusChanges.WithLabelValues(from, to).Inc()
}

// ObserveOutbox counts relay results: published, retried or failed.
func (m *Metrics) ObserveOutbox(result string, n int) {
	if n > 0 {
		m.outboxMessages.WithLabelValues(result).Add(float64(n))
	}
}

// PoolStatsSource is implemented by *postgres.Pool.
type PoolStatsSource interface {
	Stats() postgres.PoolStats
}

// RegisterPool exports connection pool usage as gauges read at scrape time.
func (m *Metrics) RegisterPool(src PoolStatsSource) {
	gauge := func(name, help string, read func(postgres.PoolStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "db_pool", Name: name, Help: help,
		}, func() float64 { return read(src.Stats()) })
	}
	m.registry.MustRegister(
		gauge("total_conns", "Open connections.", func(s postgres.PoolStats) float64 { return float64(s.TotalConns) }),
		gauge("acquired_conns", "Connections in use.", func(s postgres.PoolStats) float64 { return float64(s.AcquiredConns) }),
		gauge("idle_conns", "Idle connections.", func(s postgres.PoolStats) float64 { return float64(s.IdleConns) }),
		gauge("max_conns", "Configured pool size.", func(s postgres.PoolStats) float64 { return float64(s.MaxConns) }),
		gauge("acquire_wait_seconds", "Cumulative time spent waiting for a connection.", func(s postgres.PoolStats) float64 {
			return s.AcquireDuration.Seconds()
		}),
	)
}

// GinMiddleware records request count and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
