package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/utils"
)

// Adapter is the uniform operation set the engine needs from one side of a
// verification run. One implementation exists per backend kind.
type Adapter interface {
	// Descriptor returns the descriptor the adapter was built for
	Descriptor() model.ConnectionDescriptor

	// TestConnectivity issues a minimal round-trip
	TestConnectivity(ctx context.Context) error

	// ListTables returns table names ordered by name, excluding system tables
	ListTables(ctx context.Context) ([]string, error)

	// CountRows returns the row count of one table
	CountRows(ctx context.Context, table string) (int64, error)

	// FetchSchema returns the table's columns in native ordinal order
	FetchSchema(ctx context.Context, table string) ([]model.ColumnDescriptor, error)

	// FetchSample returns up to limit rows in backend-default order
	FetchSample(ctx context.Context, table string, limit int) ([]map[string]any, error)
}

// Resources bundles the shared connection managers an adapter borrows from.
type Resources struct {
	Pool         *database.ConnectionPool
	Files        *database.FileHandleCache
	QueryTimeout time.Duration
}

// New returns the adapter for the descriptor's backend kind.
func New(desc model.ConnectionDescriptor, res Resources, logger *logrus.Logger) (Adapter, error) {
	switch desc.Kind {
	case model.BackendMySQL:
		return &mysqlAdapter{desc: desc, res: res, logger: logger}, nil
	case model.BackendPostgreSQL:
		return &postgresAdapter{desc: desc, res: res, logger: logger}, nil
	case model.BackendSQLite:
		return &sqliteAdapter{desc: desc, res: res, logger: logger}, nil
	default:
		return nil, utils.NewValidationError(fmt.Sprintf("unsupported backend kind: %s", desc.Kind), nil)
	}
}

// queryContext applies the configured per-query timeout.
func (r Resources) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.QueryTimeout)
}

// classifyQueryErr converts a raw driver error into the engine's error
// kinds, keeping enough context for diagnosis.
func classifyQueryErr(err error, kind model.BackendKind, op, table string) error {
	msg := fmt.Sprintf("%s %s failed", kind, op)
	if table != "" {
		msg = fmt.Sprintf("%s %s failed for table %q", kind, op, table)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return utils.NewTimeoutError(msg, err)
	}
	return utils.NewQueryError(msg, err)
}

// scanTableNames drains a single-column result set of table names.
func scanTableNames(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// scanSampleRows converts a result set into name→value maps. Byte slices
// are decoded to strings so values stringify consistently across drivers.
func scanSampleRows(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var sample []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		sample = append(sample, row)
	}
	return sample, rows.Err()
}

// quoteIdent quotes an identifier with the given quote rune, escaping any
// embedded quotes. Table names come from the backend's own catalog but are
// quoted anyway.
func quoteIdent(name string, quote rune) string {
	q := string(quote)
	return q + strings.ReplaceAll(name, q, q+q) + q
}
