package verifier

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database/metadata"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
)

// stubAdapter serves canned metadata so verifier logic can be tested
// without live databases.
type stubAdapter struct {
	desc    model.ConnectionDescriptor
	tables  []string
	counts  map[string]int64
	schemas map[string][]model.ColumnDescriptor
	samples map[string][]map[string]any
	errs    map[string]error

	schemaCalls atomic.Int64
	sampleCalls atomic.Int64
}

func (s *stubAdapter) Descriptor() model.ConnectionDescriptor { return s.desc }

func (s *stubAdapter) TestConnectivity(ctx context.Context) error {
	return s.errs["connect"]
}

func (s *stubAdapter) ListTables(ctx context.Context) ([]string, error) {
	if err := s.errs["list"]; err != nil {
		return nil, err
	}
	return s.tables, nil
}

func (s *stubAdapter) CountRows(ctx context.Context, table string) (int64, error) {
	if err := s.failure("count", table); err != nil {
		return 0, err
	}
	return s.counts[table], nil
}

func (s *stubAdapter) FetchSchema(ctx context.Context, table string) ([]model.ColumnDescriptor, error) {
	s.schemaCalls.Add(1)
	if err := s.failure("schema", table); err != nil {
		return nil, err
	}
	return s.schemas[table], nil
}

func (s *stubAdapter) FetchSample(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	s.sampleCalls.Add(1)
	if err := s.failure("sample", table); err != nil {
		return nil, err
	}
	rows := s.samples[table]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// failure looks up an injected error, table-scoped first.
func (s *stubAdapter) failure(op, table string) error {
	if err := s.errs[op+":"+table]; err != nil {
		return err
	}
	return s.errs[op]
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func mysqlDesc(db string) model.ConnectionDescriptor {
	return model.ConnectionDescriptor{
		Kind:     model.BackendMySQL,
		Host:     "localhost",
		Port:     3306,
		Database: db,
		Username: "verify",
		Password: "secret",
	}
}

// customersSchema builds the wide customers table, optionally widening the
// integer id column.
func customersSchema(idType string) []model.ColumnDescriptor {
	columns := []model.ColumnDescriptor{
		{Name: "id", Type: idType, Nullable: false},
		{Name: "first_name", Type: "varchar(64)", Nullable: false},
		{Name: "last_name", Type: "varchar(64)", Nullable: false},
		{Name: "email", Type: "varchar(255)", Nullable: false},
		{Name: "phone", Type: "varchar(32)", Nullable: true},
		{Name: "address", Type: "varchar(255)", Nullable: true},
		{Name: "city", Type: "varchar(64)", Nullable: true},
		{Name: "country", Type: "varchar(64)", Nullable: true},
		{Name: "postal_code", Type: "varchar(16)", Nullable: true},
		{Name: "balance", Type: "decimal(10,2)", Nullable: false},
		{Name: "active", Type: "tinyint(1)", Nullable: false},
		{Name: "created_at", Type: "datetime", Nullable: false},
		{Name: "updated_at", Type: "datetime", Nullable: true},
	}
	return columns
}

func customersRows(n int) []map[string]any {
	rows := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, map[string]any{
			"id":          int64(i),
			"first_name":  fmt.Sprintf("First%d", i),
			"last_name":   fmt.Sprintf("Last%d", i),
			"email":       fmt.Sprintf("user%d@example.com", i),
			"phone":       nil,
			"address":     fmt.Sprintf("%d Main St", i),
			"city":        "Springfield",
			"country":     "US",
			"postal_code": "12345",
			"balance":     "100.00",
			"active":      int64(1),
			"created_at":  time.Date(2024, 1, i, 10, 0, 0, 0, time.UTC),
			"updated_at":  nil,
		})
	}
	return rows
}

func TestVerifyWidenedTypeMatches(t *testing.T) {
	source := &stubAdapter{
		desc:    mysqlDesc("src"),
		counts:  map[string]int64{"customers": 5},
		schemas: map[string][]model.ColumnDescriptor{"customers": customersSchema("int")},
		samples: map[string][]map[string]any{"customers": customersRows(5)},
	}
	target := &stubAdapter{
		desc:    mysqlDesc("dst"),
		counts:  map[string]int64{"customers": 5},
		schemas: map[string][]model.ColumnDescriptor{"customers": customersSchema("bigint")},
		samples: map[string][]map[string]any{"customers": customersRows(5)},
	}

	tv := NewTableVerifier(source, target, nil, 5, time.Minute, testLogger())
	verdict := tv.Verify(context.Background(), "customers")

	assert.Equal(t, model.TableMatch, verdict.Status)
	assert.True(t, verdict.SchemaMatch)
	assert.True(t, verdict.RowDataMatch)
	assert.Equal(t, int64(5), verdict.SourceRowCount)
	assert.Equal(t, int64(5), verdict.TargetRowCount)
}

func TestVerifyColumnCountMismatchSkipsSample(t *testing.T) {
	sourceSchema := []model.ColumnDescriptor{
		{Name: "id", Type: "int"}, {Name: "name", Type: "varchar"},
		{Name: "title", Type: "varchar"}, {Name: "dept", Type: "varchar"},
		{Name: "salary", Type: "decimal"}, {Name: "hired_at", Type: "date"},
		{Name: "manager_id", Type: "int", Nullable: true}, {Name: "notes", Type: "text", Nullable: true},
	}
	targetSchema := sourceSchema[:7]

	source := &stubAdapter{
		desc:    mysqlDesc("src"),
		counts:  map[string]int64{"employees": 12},
		schemas: map[string][]model.ColumnDescriptor{"employees": sourceSchema},
	}
	target := &stubAdapter{
		desc:    mysqlDesc("dst"),
		counts:  map[string]int64{"employees": 12},
		schemas: map[string][]model.ColumnDescriptor{"employees": targetSchema},
	}

	tv := NewTableVerifier(source, target, nil, 5, time.Minute, testLogger())
	verdict := tv.Verify(context.Background(), "employees")

	assert.Equal(t, model.TableMismatch, verdict.Status)
	assert.False(t, verdict.SchemaMatch)
	assert.True(t, verdict.RowDataMatch, "row data comparison should be skipped, not failed")
	assert.Contains(t, verdict.Detail, "column counts differ")
	assert.Zero(t, source.sampleCalls.Load())
	assert.Zero(t, target.sampleCalls.Load())
}

func TestVerifySampleDifferenceIdentifiesRowAndColumn(t *testing.T) {
	schema := []model.ColumnDescriptor{
		{Name: "id", Type: "int"},
		{Name: "name", Type: "varchar"},
	}
	sourceRows := []map[string]any{
		{"id": int64(1), "name": "alpha"},
		{"id": int64(2), "name": "beta"},
	}
	targetRows := []map[string]any{
		{"id": int64(1), "name": "alpha"},
		{"id": int64(2), "name": "gamma"},
	}

	source := &stubAdapter{
		desc:    mysqlDesc("src"),
		counts:  map[string]int64{"things": 2},
		schemas: map[string][]model.ColumnDescriptor{"things": schema},
		samples: map[string][]map[string]any{"things": sourceRows},
	}
	target := &stubAdapter{
		desc:    mysqlDesc("dst"),
		counts:  map[string]int64{"things": 2},
		schemas: map[string][]model.ColumnDescriptor{"things": schema},
		samples: map[string][]map[string]any{"things": targetRows},
	}

	tv := NewTableVerifier(source, target, nil, 5, time.Minute, testLogger())
	verdict := tv.Verify(context.Background(), "things")

	assert.Equal(t, model.TableMismatch, verdict.Status)
	assert.True(t, verdict.SchemaMatch)
	assert.False(t, verdict.RowDataMatch)
	assert.Contains(t, verdict.Detail, "row 2")
	assert.Contains(t, verdict.Detail, `"name"`)
}

func TestVerifyRowCountDifferenceSkipsSample(t *testing.T) {
	schema := []model.ColumnDescriptor{{Name: "id", Type: "int"}}

	source := &stubAdapter{
		desc:    mysqlDesc("src"),
		counts:  map[string]int64{"t": 10},
		schemas: map[string][]model.ColumnDescriptor{"t": schema},
	}
	target := &stubAdapter{
		desc:    mysqlDesc("dst"),
		counts:  map[string]int64{"t": 9},
		schemas: map[string][]model.ColumnDescriptor{"t": schema},
	}

	tv := NewTableVerifier(source, target, nil, 5, time.Minute, testLogger())
	verdict := tv.Verify(context.Background(), "t")

	assert.Equal(t, model.TableMismatch, verdict.Status)
	assert.True(t, verdict.SchemaMatch)
	assert.Contains(t, verdict.Detail, "row counts differ")
	assert.Zero(t, source.sampleCalls.Load())
}

func TestVerifyAdapterErrorBecomesMismatch(t *testing.T) {
	source := &stubAdapter{
		desc: mysqlDesc("src"),
		errs: map[string]error{"count": fmt.Errorf("connection reset")},
	}
	target := &stubAdapter{desc: mysqlDesc("dst")}

	tv := NewTableVerifier(source, target, nil, 5, time.Minute, testLogger())
	verdict := tv.Verify(context.Background(), "orders")

	assert.Equal(t, model.TableMismatch, verdict.Status)
	assert.False(t, verdict.SchemaMatch)
	assert.False(t, verdict.RowDataMatch)
	assert.Contains(t, verdict.Detail, "source row count failed")
	assert.Contains(t, verdict.Detail, "connection reset")
}

func TestVerifySameFileShortCircuitsSampling(t *testing.T) {
	desc := model.ConnectionDescriptor{Kind: model.BackendSQLite, FilePath: "/data/app.db"}
	schema := []model.ColumnDescriptor{{Name: "id", Type: "INTEGER"}}

	source := &stubAdapter{
		desc:    desc,
		counts:  map[string]int64{"t": 3},
		schemas: map[string][]model.ColumnDescriptor{"t": schema},
	}
	target := &stubAdapter{
		desc:    desc,
		counts:  map[string]int64{"t": 3},
		schemas: map[string][]model.ColumnDescriptor{"t": schema},
	}

	tv := NewTableVerifier(source, target, nil, 5, time.Minute, testLogger())
	verdict := tv.Verify(context.Background(), "t")

	assert.Equal(t, model.TableMatch, verdict.Status)
	assert.Zero(t, source.sampleCalls.Load(), "same file must not be sampled")
	assert.Zero(t, target.sampleCalls.Load())
	assert.Contains(t, verdict.Detail, "same database file")
}

func TestVerifyUsesSchemaCacheForNetworkBackends(t *testing.T) {
	schema := []model.ColumnDescriptor{{Name: "id", Type: "int"}}
	rows := []map[string]any{{"id": int64(1)}}

	source := &stubAdapter{
		desc:    mysqlDesc("src"),
		counts:  map[string]int64{"t": 1},
		schemas: map[string][]model.ColumnDescriptor{"t": schema},
		samples: map[string][]map[string]any{"t": rows},
	}
	target := &stubAdapter{
		desc:    mysqlDesc("dst"),
		counts:  map[string]int64{"t": 1},
		schemas: map[string][]model.ColumnDescriptor{"t": schema},
		samples: map[string][]map[string]any{"t": rows},
	}

	cache := metadata.NewSchemaCache(time.Minute)
	tv := NewTableVerifier(source, target, cache, 5, time.Minute, testLogger())

	first := tv.Verify(context.Background(), "t")
	require.Equal(t, model.TableMatch, first.Status)
	second := tv.Verify(context.Background(), "t")
	require.Equal(t, model.TableMatch, second.Status)

	assert.Equal(t, int64(1), source.schemaCalls.Load(), "second run should hit the cache")
	assert.Equal(t, int64(1), target.schemaCalls.Load())

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}
