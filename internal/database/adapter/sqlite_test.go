package adapter

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func createFixtureFile(t *testing.T, statements ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.db")
	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "statement: %s", stmt)
	}
	return path
}

func sqliteFixtureAdapter(t *testing.T, statements ...string) Adapter {
	t.Helper()

	path := createFixtureFile(t, statements...)
	files := database.NewFileHandleCache(time.Minute, testLogger())
	t.Cleanup(files.CloseAll)

	a, err := New(model.ConnectionDescriptor{
		Kind:     model.BackendSQLite,
		FilePath: path,
	}, Resources{Files: files, QueryTimeout: 5 * time.Second}, testLogger())
	require.NoError(t, err)
	return a
}

func TestSQLiteTestConnectivity(t *testing.T) {
	a := sqliteFixtureAdapter(t, "CREATE TABLE t (id INTEGER)")
	assert.NoError(t, a.TestConnectivity(context.Background()))
}

func TestSQLiteListTablesOrderedWithoutSystemTables(t *testing.T) {
	a := sqliteFixtureAdapter(t,
		"CREATE TABLE zeta (id INTEGER)",
		"CREATE TABLE alpha (id INTEGER)",
		"CREATE INDEX idx_alpha ON alpha(id)",
	)

	tables, err := a.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, tables)
}

func TestSQLiteCountRows(t *testing.T) {
	a := sqliteFixtureAdapter(t,
		"CREATE TABLE t (id INTEGER)",
		"INSERT INTO t VALUES (1), (2), (3)",
	)

	count, err := a.CountRows(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSQLiteCountRowsUnknownTable(t *testing.T) {
	a := sqliteFixtureAdapter(t, "CREATE TABLE t (id INTEGER)")

	_, err := a.CountRows(context.Background(), "nope")
	assert.Error(t, err)
}

func TestSQLiteFetchSchema(t *testing.T) {
	a := sqliteFixtureAdapter(t,
		`CREATE TABLE people (
			id INTEGER PRIMARY KEY,
			name VARCHAR(64) NOT NULL,
			note TEXT
		)`,
	)

	columns, err := a.FetchSchema(context.Background(), "people")
	require.NoError(t, err)
	require.Len(t, columns, 3)

	assert.Equal(t, "id", columns[0].Name)
	assert.Equal(t, "INTEGER", columns[0].Type)

	assert.Equal(t, "name", columns[1].Name)
	assert.Equal(t, "VARCHAR(64)", columns[1].Type)
	assert.False(t, columns[1].Nullable)

	assert.Equal(t, "note", columns[2].Name)
	assert.True(t, columns[2].Nullable)
}

func TestSQLiteFetchSampleRespectsLimit(t *testing.T) {
	a := sqliteFixtureAdapter(t,
		"CREATE TABLE t (id INTEGER, name TEXT)",
		"INSERT INTO t VALUES (1, 'one'), (2, 'two'), (3, NULL), (4, 'four'), (5, 'five'), (6, 'six')",
	)

	rows, err := a.FetchSample(context.Background(), "t", 5)
	require.NoError(t, err)
	assert.Len(t, rows, 5)

	for _, row := range rows {
		assert.Contains(t, row, "id")
		assert.Contains(t, row, "name")
	}
}
