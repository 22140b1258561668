package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/config"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database/adapter"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database/metadata"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/utils"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/verifier"
)

// VerificationService is the engine facade the HTTP layer talks to. It
// validates descriptors, builds backend adapters over the shared resource
// managers and runs the orchestrator.
type VerificationService struct {
	cfg     *config.Config
	pool    *database.ConnectionPool
	files   *database.FileHandleCache
	cache   *metadata.SchemaCache
	hub     *verifier.ProgressHub
	metrics *MetricsCollector
	logger  *logrus.Logger
}

// NewVerificationService wires the service over shared resource managers.
func NewVerificationService(cfg *config.Config, pool *database.ConnectionPool, files *database.FileHandleCache, cache *metadata.SchemaCache, hub *verifier.ProgressHub, logger *logrus.Logger) *VerificationService {
	return &VerificationService{
		cfg:     cfg,
		pool:    pool,
		files:   files,
		cache:   cache,
		hub:     hub,
		metrics: NewMetricsCollector(cache, pool),
		logger:  logger,
	}
}

// Verify runs a full verification of target against source. runID may be
// empty, which disables progress reporting.
func (s *VerificationService) Verify(ctx context.Context, source, target model.ConnectionDescriptor, runID string) (*model.RunSummary, error) {
	if err := source.Validate(); err != nil {
		return nil, utils.NewValidationError("invalid source descriptor", err)
	}
	if err := target.Validate(); err != nil {
		return nil, utils.NewValidationError("invalid target descriptor", err)
	}

	sourceAdapter, err := s.buildAdapter(source)
	if err != nil {
		return nil, err
	}
	targetAdapter, err := s.buildAdapter(target)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"source": source.Tag(),
		"target": target.Tag(),
	}).Info("verification run starting")

	started := time.Now()
	orch := verifier.NewOrchestrator(&s.cfg.Verifier, s.cache, s.hub, s.logger)
	summary, err := orch.Run(ctx, sourceAdapter, targetAdapter, runID)
	if err != nil {
		s.metrics.RecordRun("error", source, target, time.Since(started))
		return nil, err
	}

	s.metrics.RecordRun(strings.ToLower(string(summary.Status)), source, target, summary.Duration)
	for _, verdict := range summary.Verdicts {
		s.metrics.RecordVerdict(verdict)
	}
	s.metrics.Sync()

	s.logger.WithFields(logrus.Fields{
		"run_id":     runID,
		"status":     summary.Status,
		"tables":     summary.TotalTables,
		"mismatched": summary.MismatchedTables,
		"duration":   summary.Duration,
	}).Info("verification run finished")
	return summary, nil
}

// TestConnectivity validates a descriptor and checks it can be reached.
func (s *VerificationService) TestConnectivity(ctx context.Context, desc model.ConnectionDescriptor) error {
	if err := desc.Validate(); err != nil {
		return utils.NewValidationError("invalid connection descriptor", err)
	}

	a, err := s.buildAdapter(desc)
	if err != nil {
		return err
	}
	return a.TestConnectivity(ctx)
}

// Subscribe registers a progress listener for runID.
func (s *VerificationService) Subscribe(runID string) chan model.ProgressEvent {
	return s.hub.Subscribe(runID)
}

// Unsubscribe removes a progress listener.
func (s *VerificationService) Unsubscribe(runID string, ch chan model.ProgressEvent) {
	s.hub.Unsubscribe(runID, ch)
}

// PoolStats reports the connection pool state for health output.
func (s *VerificationService) PoolStats() database.PoolStats {
	return s.pool.Stats()
}

// CacheStats reports schema cache effectiveness for health output.
func (s *VerificationService) CacheStats() metadata.CacheStats {
	return s.cache.Stats()
}

// MetricsSummary reports cumulative run counters.
func (s *VerificationService) MetricsSummary() map[string]any {
	return s.metrics.Summary()
}

// OpenFileHandles reports how many embedded files are currently held open.
func (s *VerificationService) OpenFileHandles() int {
	return s.files.Size()
}

func (s *VerificationService) buildAdapter(desc model.ConnectionDescriptor) (adapter.Adapter, error) {
	return adapter.New(desc, adapter.Resources{
		Pool:         s.pool,
		Files:        s.files,
		QueryTimeout: s.cfg.Verifier.QueryTimeout,
	}, s.logger)
}
