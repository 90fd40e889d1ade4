// Package metrics holds the Prometheus instrumentation for the catalog API.
package metrics

import (
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// Domain
	RatingRecomputeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_rating_recompute_failures_total",
			Help: "Average rating recomputations that failed after a review write",
		},
	)

	WatchlistToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_watchlist_toggles_total",
			Help: "Watchlist toggles by resulting action",
		},
		[]string{"action"},
	)

	// Auth provider
	AuthProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_auth_provider_requests_total",
			Help: "Calls to the hosted auth provider by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	AuthProviderBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_auth_provider_breaker_state",
			Help: "Auth provider circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAuthProviderCall records the outcome ("ok", "rejected", "error") of
// an auth provider call.
func RecordAuthProviderCall(operation, outcome string) {
	AuthProviderRequests.WithLabelValues(operation, outcome).Inc()
}

// PoolCollector exports pgxpool statistics at scrape time.
type PoolCollector struct {
	stat func() *pgxpool.Stat

	acquired *prometheus.Desc
	idle     *prometheus.Desc
	total    *prometheus.Desc
	max      *prometheus.Desc
	acquires *prometheus.Desc
}

// NewPoolCollector builds a collector reading from stat. A nil Stat is skipped.
func NewPoolCollector(stat func() *pgxpool.Stat) *PoolCollector {
	return &PoolCollector{
		stat:     stat,
		acquired: prometheus.NewDesc("catalog_db_pool_acquired_conns", "Connections currently checked out", nil, nil),
		idle:     prometheus.NewDesc("catalog_db_pool_idle_conns", "Idle connections in the pool", nil, nil),
		total:    prometheus.NewDesc("catalog_db_pool_total_conns", "Open connections in the pool", nil, nil),
		max:      prometheus.NewDesc("catalog_db_pool_max_conns", "Configured pool size", nil, nil),
		acquires: prometheus.NewDesc("catalog_db_pool_acquires_total", "Cumulative successful acquires", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquired
	ch <- c.idle
	ch <- c.total
	ch <- c.max
	ch <- c.acquires
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	if s == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(s.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.acquires, prometheus.CounterValue, float64(s.AcquireCount()))
}
