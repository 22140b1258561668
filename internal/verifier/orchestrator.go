package verifier

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/config"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database/adapter"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database/metadata"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/utils"
)

// Orchestrator drives a full verification run: connectivity gate, table
// discovery, fan-out across a bounded worker pool, and summary aggregation.
type Orchestrator struct {
	cfg       *config.VerifierConfig
	cache     *metadata.SchemaCache
	publisher Publisher
	logger    *logrus.Logger
}

// NewOrchestrator wires an orchestrator. A nil publisher disables progress
// reporting.
func NewOrchestrator(cfg *config.VerifierConfig, cache *metadata.SchemaCache, publisher Publisher, logger *logrus.Logger) *Orchestrator {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Orchestrator{
		cfg:       cfg,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// Run verifies target against source and returns the aggregated summary.
// Only connectivity failures are fatal; per-table failures are absorbed
// into MISMATCH verdicts.
func (o *Orchestrator) Run(ctx context.Context, source, target adapter.Adapter, runID string) (*model.RunSummary, error) {
	started := time.Now()

	o.emit(runID, model.StageConnecting, "", 0, 0, 0, "testing connectivity")
	if err := source.TestConnectivity(ctx); err != nil {
		o.emitFailure(runID, fmt.Sprintf("source unreachable: %v", err))
		return nil, err
	}
	if err := target.TestConnectivity(ctx); err != nil {
		o.emitFailure(runID, fmt.Sprintf("target unreachable: %v", err))
		return nil, err
	}

	o.emit(runID, model.StageDiscovering, "", 0, 0, 0, "discovering tables")
	sourceTables, err := source.ListTables(ctx)
	if err != nil {
		o.emitFailure(runID, fmt.Sprintf("source table discovery failed: %v", err))
		return nil, err
	}
	targetTables, err := target.ListTables(ctx)
	if err != nil {
		o.emitFailure(runID, fmt.Sprintf("target table discovery failed: %v", err))
		return nil, err
	}

	common, sourceOnly, targetOnly := intersect(sourceTables, targetTables)
	o.logger.WithFields(logrus.Fields{
		"run_id":      runID,
		"common":      len(common),
		"source_only": len(sourceOnly),
		"target_only": len(targetOnly),
	}).Info("table discovery complete")

	verdicts := o.verifyTables(ctx, source, target, common, runID)

	summary := o.summarize(verdicts, sourceOnly, targetOnly, started)
	o.emit(runID, model.StageCompleted, "", len(common), len(common), 100, summary.Message)
	return summary, nil
}

// verifyTables fans common tables out across a worker pool. Workers pull
// the next table via a shared atomic index and write the verdict into its
// discovery-order slot, so the report order never depends on completion
// order.
func (o *Orchestrator) verifyTables(ctx context.Context, source, target adapter.Adapter, tables []string, runID string) []model.TableVerdict {
	verdicts := make([]model.TableVerdict, len(tables))
	if len(tables) == 0 {
		return verdicts
	}

	tv := NewTableVerifier(source, target, o.cache, o.cfg.SampleSize, o.cfg.TableTimeout, o.logger)

	workers := o.cfg.MaxTableWorkers
	if !o.cfg.Parallel || workers < 1 {
		workers = 1
	}
	if workers > len(tables) {
		workers = len(tables)
	}

	var (
		next      atomic.Int64
		completed atomic.Int64
		wg        sync.WaitGroup
	)
	verifyStarted := time.Now()

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= len(tables) {
					return
				}
				table := tables[i]
				verdicts[i] = tv.Verify(ctx, table)

				done := int(completed.Add(1))
				percent := done * 100 / len(tables)
				o.emit(runID, model.StageVerifying, table, done, len(tables), percent,
					fmt.Sprintf("verified %s: %s", table, verdicts[i].Status),
					estimateRemaining(verifyStarted, done, len(tables))...)
			}
		}()
	}
	wg.Wait()

	return verdicts
}

func (o *Orchestrator) summarize(verdicts []model.TableVerdict, sourceOnly, targetOnly []string, started time.Time) *model.RunSummary {
	summary := &model.RunSummary{
		Status:           model.RunSuccess,
		CompletedAt:      time.Now(),
		Duration:         time.Since(started),
		TotalTables:      len(verdicts),
		SourceOnlyTables: sourceOnly,
		TargetOnlyTables: targetOnly,
		Verdicts:         verdicts,
	}

	for _, verdict := range verdicts {
		summary.TotalSourceRows += verdict.SourceRowCount
		if verdict.Status == model.TableMatch {
			summary.MatchedTables++
		} else {
			summary.MismatchedTables++
			summary.Status = model.RunMismatch
		}
	}

	if summary.Status == model.RunSuccess {
		summary.Message = fmt.Sprintf("all %d common tables match", summary.TotalTables)
	} else {
		summary.Message = fmt.Sprintf("%d of %d common tables mismatch", summary.MismatchedTables, summary.TotalTables)
	}
	return summary
}

// TestConnectivity checks a single descriptor without starting a run.
func (o *Orchestrator) TestConnectivity(ctx context.Context, a adapter.Adapter) error {
	if err := a.TestConnectivity(ctx); err != nil {
		if appErr, ok := utils.AsAppError(err); ok {
			return appErr
		}
		return utils.NewConnectionError(a.Descriptor().Tag(), err)
	}
	return nil
}

func (o *Orchestrator) emit(runID string, stage model.ProgressStage, table string, done, total, percent int, message string, eta ...time.Duration) {
	if runID == "" {
		return
	}
	event := model.ProgressEvent{
		RunID:           runID,
		Stage:           stage,
		CurrentTable:    table,
		TablesCompleted: done,
		TotalTables:     total,
		Percent:         percent,
		Message:         message,
		Timestamp:       time.Now(),
	}
	if len(eta) > 0 {
		event.EstimatedLeft = eta[0]
	}
	o.publisher.Publish(event)
}

func (o *Orchestrator) emitFailure(runID, message string) {
	o.emit(runID, model.StageFailed, "", 0, 0, 0, message)
}

// estimateRemaining projects the time left from the average per-table
// duration so far.
func estimateRemaining(started time.Time, done, total int) []time.Duration {
	if done == 0 || done >= total {
		return nil
	}
	perTable := time.Since(started) / time.Duration(done)
	return []time.Duration{perTable * time.Duration(total-done)}
}

// intersect splits two table listings into the common set (source discovery
// order, exact case-sensitive match) and the one-sided leftovers.
func intersect(sourceTables, targetTables []string) (common, sourceOnly, targetOnly []string) {
	targetSet := make(map[string]struct{}, len(targetTables))
	for _, table := range targetTables {
		targetSet[table] = struct{}{}
	}
	sourceSet := make(map[string]struct{}, len(sourceTables))
	for _, table := range sourceTables {
		sourceSet[table] = struct{}{}
	}

	common = make([]string, 0, len(sourceTables))
	for _, table := range sourceTables {
		if _, ok := targetSet[table]; ok {
			common = append(common, table)
		} else {
			sourceOnly = append(sourceOnly, table)
		}
	}
	for _, table := range targetTables {
		if _, ok := sourceSet[table]; !ok {
			targetOnly = append(targetOnly, table)
		}
	}
	return common, sourceOnly, targetOnly
}
