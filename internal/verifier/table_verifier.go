package verifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database/adapter"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database/metadata"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
)

// TableVerifier combines row counts, schema comparison and conditional
// sample comparison into one per-table verdict. Adapter failures become
// MISMATCH verdicts; they never abort the run.
type TableVerifier struct {
	source       adapter.Adapter
	target       adapter.Adapter
	cache        *metadata.SchemaCache
	sampleSize   int
	tableTimeout time.Duration
	logger       *logrus.Logger
}

// NewTableVerifier builds a verifier over one source/target adapter pair.
func NewTableVerifier(source, target adapter.Adapter, cache *metadata.SchemaCache, sampleSize int, tableTimeout time.Duration, logger *logrus.Logger) *TableVerifier {
	if sampleSize <= 0 {
		sampleSize = 5
	}
	return &TableVerifier{
		source:       source,
		target:       target,
		cache:        cache,
		sampleSize:   sampleSize,
		tableTimeout: tableTimeout,
		logger:       logger,
	}
}

// Verify runs the per-table state machine, terminal on the first
// disqualifying condition.
func (v *TableVerifier) Verify(ctx context.Context, table string) model.TableVerdict {
	if v.tableTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.tableTimeout)
		defer cancel()
	}

	sourceCount, err := v.source.CountRows(ctx, table)
	if err != nil {
		return v.errorVerdict(table, "source row count", err)
	}
	targetCount, err := v.target.CountRows(ctx, table)
	if err != nil {
		return v.errorVerdict(table, "target row count", err)
	}

	sourceSchema, err := v.fetchSchema(ctx, v.source, table)
	if err != nil {
		return v.errorVerdict(table, "source schema", err)
	}
	targetSchema, err := v.fetchSchema(ctx, v.target, table)
	if err != nil {
		return v.errorVerdict(table, "target schema", err)
	}

	verdict := model.TableVerdict{
		Table:          table,
		SourceRowCount: sourceCount,
		TargetRowCount: targetCount,
		RowDataMatch:   true,
	}

	schemaMatch, schemaDetail := compareSchemas(sourceSchema, targetSchema)
	verdict.SchemaMatch = schemaMatch
	countsEqual := sourceCount == targetCount

	switch {
	case !schemaMatch:
		verdict.Detail = schemaDetail
	case !countsEqual:
		verdict.Detail = fmt.Sprintf("row counts differ: source=%d target=%d", sourceCount, targetCount)
	default:
		match, detail, err := v.compareSampleData(ctx, table, sourceSchema)
		if err != nil {
			return v.errorVerdict(table, "sample comparison", err)
		}
		verdict.RowDataMatch = match
		verdict.Detail = detail
	}

	if verdict.SchemaMatch && countsEqual && verdict.RowDataMatch {
		verdict.Status = model.TableMatch
	} else {
		verdict.Status = model.TableMismatch
	}
	return verdict
}

// fetchSchema consults the schema cache for network backends. The embedded
// backend is never cached.
func (v *TableVerifier) fetchSchema(ctx context.Context, a adapter.Adapter, table string) ([]model.ColumnDescriptor, error) {
	desc := a.Descriptor()
	if v.cache == nil || !metadata.Cacheable(desc.Kind) {
		return a.FetchSchema(ctx, table)
	}

	key := metadata.Key(desc, table)
	if columns, ok := v.cache.Get(key); ok {
		return columns, nil
	}
	columns, err := a.FetchSchema(ctx, table)
	if err != nil {
		return nil, err
	}
	v.cache.Put(key, columns)
	return columns, nil
}

// compareSampleData fetches a bounded sample from each side and compares it
// row by row. Two embedded descriptors over the identical file are declared
// matching without sampling.
func (v *TableVerifier) compareSampleData(ctx context.Context, table string, sourceSchema []model.ColumnDescriptor) (bool, string, error) {
	if v.source.Descriptor().SameFileAs(v.target.Descriptor()) {
		return true, "source and target reference the same database file", nil
	}

	sourceSample, err := v.source.FetchSample(ctx, table, v.sampleSize)
	if err != nil {
		return false, "", err
	}
	targetSample, err := v.target.FetchSample(ctx, table, v.sampleSize)
	if err != nil {
		return false, "", err
	}

	if len(sourceSample) != len(targetSample) {
		return false, fmt.Sprintf("sample sizes differ: source=%d target=%d", len(sourceSample), len(targetSample)), nil
	}

	for i, sourceRow := range sourceSample {
		targetRow := foldKeys(targetSample[i])
		for _, column := range sourceSchema {
			sourceValue, null1 := valueString(sourceRow[column.Name])
			targetValue, null2 := valueString(targetRow[strings.ToLower(column.Name)])
			if null1 != null2 || sourceValue != targetValue {
				return false, fmt.Sprintf("row %d column %q: source=%s target=%s",
					i+1, column.Name, describe(sourceValue, null1), describe(targetValue, null2)), nil
			}
		}
	}

	return true, fmt.Sprintf("%d sampled rows match", len(sourceSample)), nil
}

func (v *TableVerifier) errorVerdict(table, operation string, err error) model.TableVerdict {
	v.logger.WithFields(logrus.Fields{
		"table":     table,
		"operation": operation,
	}).WithError(err).Warn("table verification failed")

	return model.TableVerdict{
		Table:        table,
		SchemaMatch:  false,
		RowDataMatch: false,
		Detail:       fmt.Sprintf("%s failed: %v", operation, err),
		Status:       model.TableMismatch,
	}
}

// compareSchemas compares two column sequences positionally: count, then
// per position name (case-insensitive), nullability (exact) and type
// (compatibility table).
func compareSchemas(source, target []model.ColumnDescriptor) (bool, string) {
	if len(source) != len(target) {
		return false, fmt.Sprintf("column counts differ: source=%d target=%d", len(source), len(target))
	}

	for i := range source {
		s, t := source[i], target[i]
		if !strings.EqualFold(s.Name, t.Name) {
			return false, fmt.Sprintf("column %d name differs: source=%q target=%q", i+1, s.Name, t.Name)
		}
		if s.Nullable != t.Nullable {
			return false, fmt.Sprintf("column %q nullability differs: source=%t target=%t", s.Name, s.Nullable, t.Nullable)
		}
		if !Compatible(s.Type, t.Type) {
			return false, fmt.Sprintf("column %q types are incompatible: source=%q target=%q", s.Name, s.Type, t.Type)
		}
	}

	return true, ""
}

// foldKeys reindexes a sample row by lowercased column name so source
// columns match target columns case-insensitively.
func foldKeys(row map[string]any) map[string]any {
	folded := make(map[string]any, len(row))
	for name, value := range row {
		folded[strings.ToLower(name)] = value
	}
	return folded
}

// valueString renders a sampled value for comparison. Null is equal only to
// null; everything else is stringified and trimmed. Booleans render as 0/1
// so a boolean column matches its integer representation on the other side.
func valueString(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case []byte:
		return strings.TrimSpace(string(v)), false
	case string:
		return strings.TrimSpace(v), false
	case bool:
		if v {
			return "1", false
		}
		return "0", false
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 64), false
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), false
	case int64:
		return strconv.FormatInt(v, 10), false
	case time.Time:
		return v.UTC().Format("2006-01-02 15:04:05"), false
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v)), false
	}
}

func describe(value string, isNull bool) string {
	if isNull {
		return "NULL"
	}
	return strconv.Quote(value)
}
