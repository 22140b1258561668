package service

import (
	"strings"
	"sync"
	"time"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database/metadata"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/middleware"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
)

// MetricsCollector aggregates run statistics and mirrors them into the
// Prometheus registry.
type MetricsCollector struct {
	cache *metadata.SchemaCache
	pool  *database.ConnectionPool

	mu           sync.Mutex
	totalRuns    int64
	successRuns  int64
	mismatchRuns int64
	errorRuns    int64
	totalTables  int64
	prevHits     int64
	prevMisses   int64
	startTime    time.Time
}

// NewMetricsCollector creates a collector over the shared resources.
func NewMetricsCollector(cache *metadata.SchemaCache, pool *database.ConnectionPool) *MetricsCollector {
	return &MetricsCollector{
		cache:     cache,
		pool:      pool,
		startTime: time.Now(),
	}
}

// RecordRun records the outcome of one verification run.
func (mc *MetricsCollector) RecordRun(status string, source, target model.ConnectionDescriptor, duration time.Duration) {
	mc.mu.Lock()
	mc.totalRuns++
	switch status {
	case strings.ToLower(string(model.RunSuccess)):
		mc.successRuns++
	case strings.ToLower(string(model.RunMismatch)):
		mc.mismatchRuns++
	default:
		mc.errorRuns++
	}
	mc.mu.Unlock()

	middleware.RecordRun(status, string(source.Kind), string(target.Kind), duration)
}

// RecordVerdict records a single table verdict.
func (mc *MetricsCollector) RecordVerdict(verdict model.TableVerdict) {
	mc.mu.Lock()
	mc.totalTables++
	mc.mu.Unlock()

	middleware.RecordTableVerification(strings.ToLower(string(verdict.Status)))
}

// Sync pushes current pool and cache state into the Prometheus gauges.
func (mc *MetricsCollector) Sync() {
	poolStats := mc.pool.Stats()
	middleware.UpdateConnectionPoolMetrics(poolStats.Open, poolStats.InUse)

	cacheStats := mc.cache.Stats()
	mc.mu.Lock()
	middleware.UpdateSchemaCacheMetrics(cacheStats.Hits, cacheStats.Misses, mc.prevHits, mc.prevMisses)
	mc.prevHits = cacheStats.Hits
	mc.prevMisses = cacheStats.Misses
	mc.mu.Unlock()
}

// Summary returns cumulative counters for the health endpoint.
func (mc *MetricsCollector) Summary() map[string]any {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	return map[string]any{
		"uptime_seconds":  time.Since(mc.startTime).Seconds(),
		"total_runs":      mc.totalRuns,
		"success_runs":    mc.successRuns,
		"mismatch_runs":   mc.mismatchRuns,
		"error_runs":      mc.errorRuns,
		"tables_verified": mc.totalTables,
	}
}
