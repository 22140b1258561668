package adapter

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
)

// sqliteAdapter implements Adapter over a cached embedded-file handle.
// Schema discovery goes through PRAGMA table_info, which reports columns in
// definition order.
type sqliteAdapter struct {
	desc   model.ConnectionDescriptor
	res    Resources
	logger *logrus.Logger
}

func (a *sqliteAdapter) Descriptor() model.ConnectionDescriptor {
	return a.desc
}

func (a *sqliteAdapter) TestConnectivity(ctx context.Context) error {
	handle, err := a.res.Files.Acquire(ctx, a.desc)
	if err != nil {
		return err
	}
	defer a.res.Files.Release(handle)

	var one int
	if err := handle.DB().QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return classifyQueryErr(err, a.desc.Kind, "connectivity probe", "")
	}
	return nil
}

func (a *sqliteAdapter) ListTables(ctx context.Context) ([]string, error) {
	handle, err := a.res.Files.Acquire(ctx, a.desc)
	if err != nil {
		return nil, err
	}
	defer a.res.Files.Release(handle)

	qctx, cancel := a.res.queryContext(ctx)
	defer cancel()

	rows, err := handle.DB().QueryContext(qctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		a.logOpErr("list_tables", "", err)
		return nil, classifyQueryErr(err, a.desc.Kind, "list tables", "")
	}

	tables, err := scanTableNames(rows)
	if err != nil {
		return nil, classifyQueryErr(err, a.desc.Kind, "list tables", "")
	}
	return tables, nil
}

func (a *sqliteAdapter) CountRows(ctx context.Context, table string) (int64, error) {
	handle, err := a.res.Files.Acquire(ctx, a.desc)
	if err != nil {
		return 0, err
	}
	defer a.res.Files.Release(handle)

	qctx, cancel := a.res.queryContext(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table, '"'))
	var count int64
	if err := handle.DB().QueryRowContext(qctx, query).Scan(&count); err != nil {
		a.logOpErr("count_rows", table, err)
		return 0, classifyQueryErr(err, a.desc.Kind, "count rows", table)
	}
	return count, nil
}

func (a *sqliteAdapter) FetchSchema(ctx context.Context, table string) ([]model.ColumnDescriptor, error) {
	handle, err := a.res.Files.Acquire(ctx, a.desc)
	if err != nil {
		return nil, err
	}
	defer a.res.Files.Release(handle)

	qctx, cancel := a.res.queryContext(ctx)
	defer cancel()

	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table, '"'))
	rows, err := handle.DB().QueryContext(qctx, query)
	if err != nil {
		a.logOpErr("fetch_schema", table, err)
		return nil, classifyQueryErr(err, a.desc.Kind, "fetch schema", table)
	}
	defer rows.Close()

	var columns []model.ColumnDescriptor
	for rows.Next() {
		var cid, notNull, pk int
		var name, typeName string
		var defaultValue sql.NullString
		if err := rows.Scan(&cid, &name, &typeName, &notNull, &defaultValue, &pk); err != nil {
			return nil, classifyQueryErr(err, a.desc.Kind, "fetch schema", table)
		}
		columns = append(columns, model.ColumnDescriptor{
			Name:     name,
			Type:     typeName,
			Nullable: notNull == 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classifyQueryErr(err, a.desc.Kind, "fetch schema", table)
	}
	return columns, nil
}

func (a *sqliteAdapter) FetchSample(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	handle, err := a.res.Files.Acquire(ctx, a.desc)
	if err != nil {
		return nil, err
	}
	defer a.res.Files.Release(handle)

	qctx, cancel := a.res.queryContext(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT * FROM %s LIMIT ?", quoteIdent(table, '"'))
	rows, err := handle.DB().QueryContext(qctx, query, limit)
	if err != nil {
		a.logOpErr("fetch_sample", table, err)
		return nil, classifyQueryErr(err, a.desc.Kind, "fetch sample", table)
	}

	sample, err := scanSampleRows(rows)
	if err != nil {
		return nil, classifyQueryErr(err, a.desc.Kind, "fetch sample", table)
	}
	return sample, nil
}

func (a *sqliteAdapter) logOpErr(op, table string, err error) {
	a.logger.WithFields(logrus.Fields{
		"backend":   a.desc.Kind,
		"file":      a.desc.FilePath,
		"operation": op,
		"table":     table,
	}).WithError(err).Warn("adapter operation failed")
}
