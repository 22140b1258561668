package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metrics
type PrometheusMetrics struct {
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Verification run metrics
	RunsTotal          *prometheus.CounterVec
	RunDuration        *prometheus.HistogramVec
	TableVerifications *prometheus.CounterVec

	// Connection pool metrics
	ConnectionPoolOpen  *prometheus.GaugeVec
	ConnectionPoolInUse *prometheus.GaugeVec

	// Schema cache metrics
	SchemaCacheHits   prometheus.Counter
	SchemaCacheMisses prometheus.Counter
}

var (
	metrics *PrometheusMetrics
)

// InitMetrics initializes all Prometheus metrics
func InitMetrics() {
	metrics = &PrometheusMetrics{
		HttpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbverify_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HttpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbverify_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbverify_runs_total",
				Help: "Total number of verification runs by outcome",
			},
			[]string{"status"},
		),
		RunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbverify_run_duration_seconds",
				Help:    "Verification run duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"source_backend", "target_backend"},
		),
		TableVerifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbverify_table_verifications_total",
				Help: "Total number of per-table verifications by verdict",
			},
			[]string{"status"},
		),

		ConnectionPoolOpen: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dbverify_connection_pool_open",
				Help: "Number of open connections in the pool",
			},
			[]string{"scope"},
		),
		ConnectionPoolInUse: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dbverify_connection_pool_in_use",
				Help: "Number of borrowed connections in the pool",
			},
			[]string{"scope"},
		),

		SchemaCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dbverify_schema_cache_hits_total",
				Help: "Total number of schema cache hits",
			},
		),
		SchemaCacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dbverify_schema_cache_misses_total",
				Help: "Total number of schema cache misses",
			},
		),
	}
}

// GetMetrics returns the initialized metrics
func GetMetrics() *PrometheusMetrics {
	return metrics
}

// PrometheusMiddleware is a Gin middleware that records HTTP metrics
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		metrics.HttpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		metrics.HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
	}
}

// RecordRun records the outcome and duration of a verification run
func RecordRun(status, sourceBackend, targetBackend string, duration time.Duration) {
	if metrics == nil {
		return
	}

	metrics.RunsTotal.WithLabelValues(status).Inc()
	metrics.RunDuration.WithLabelValues(sourceBackend, targetBackend).Observe(duration.Seconds())
}

// RecordTableVerification records a single table verdict
func RecordTableVerification(status string) {
	if metrics == nil {
		return
	}

	metrics.TableVerifications.WithLabelValues(status).Inc()
}

// UpdateConnectionPoolMetrics updates connection pool gauges
func UpdateConnectionPoolMetrics(open, inUse int) {
	if metrics == nil {
		return
	}

	metrics.ConnectionPoolOpen.WithLabelValues("network").Set(float64(open))
	metrics.ConnectionPoolInUse.WithLabelValues("network").Set(float64(inUse))
}

// UpdateSchemaCacheMetrics publishes cumulative hit/miss totals
func UpdateSchemaCacheMetrics(hits, misses int64, prevHits, prevMisses int64) {
	if metrics == nil {
		return
	}

	if delta := hits - prevHits; delta > 0 {
		metrics.SchemaCacheHits.Add(float64(delta))
	}
	if delta := misses - prevMisses; delta > 0 {
		metrics.SchemaCacheMisses.Add(float64(delta))
	}
}
