package adapter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/utils"
)

func TestNewRejectsUnknownKind(t *testing.T) {
	_, err := New(model.ConnectionDescriptor{Kind: "oracle"}, Resources{}, testLogger())
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeValidationFailed, appErr.Code)
}

func TestScanTableNames(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT table_name").WillReturnRows(
		sqlmock.NewRows([]string{"table_name"}).
			AddRow("customers").
			AddRow("orders"),
	)

	rows, err := db.Query("SELECT table_name FROM information_schema.tables")
	require.NoError(t, err)

	tables, err := scanTableNames(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanSampleRowsDecodesBytes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT \\*").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "note"}).
			AddRow(int64(1), []byte("alice"), nil).
			AddRow(int64(2), []byte("bob"), []byte("vip")),
	)

	rows, err := db.Query("SELECT * FROM t LIMIT 5")
	require.NoError(t, err)

	sample, err := scanSampleRows(rows)
	require.NoError(t, err)
	require.Len(t, sample, 2)

	assert.Equal(t, int64(1), sample[0]["id"])
	assert.Equal(t, "alice", sample[0]["name"], "byte slices should decode to strings")
	assert.Nil(t, sample[0]["note"])
	assert.Equal(t, "vip", sample[1]["note"])
}

func TestClassifyQueryErr(t *testing.T) {
	timeoutErr := classifyQueryErr(fmt.Errorf("query: %w", context.DeadlineExceeded), model.BackendMySQL, "count", "orders")
	if !utils.IsTimeout(timeoutErr) {
		t.Errorf("deadline exceeded should classify as timeout, got %v", timeoutErr)
	}
	assert.Contains(t, timeoutErr.Error(), `"orders"`)

	queryErr := classifyQueryErr(errors.New("syntax error"), model.BackendPostgreSQL, "schema", "")
	appErr, ok := utils.AsAppError(queryErr)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeQueryFailed, appErr.Code)
}

func TestQuoteIdent(t *testing.T) {
	cases := []struct {
		name     string
		quote    rune
		expected string
	}{
		{"orders", '`', "`orders`"},
		{"orders", '"', `"orders"`},
		{"weird`name", '`', "`weird``name`"},
		{`weird"name`, '"', `"weird""name"`},
	}

	for _, c := range cases {
		got := quoteIdent(c.name, c.quote)
		if got != c.expected {
			t.Errorf("quoteIdent(%q, %q) = %s, expected %s", c.name, c.quote, got, c.expected)
		}
	}
}
