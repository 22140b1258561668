package adapter

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/utils"
)

// postgresAdapter implements Adapter over a pooled PostgreSQL connection.
// Tables are resolved against the public schema.
type postgresAdapter struct {
	desc   model.ConnectionDescriptor
	res    Resources
	logger *logrus.Logger
}

func (a *postgresAdapter) Descriptor() model.ConnectionDescriptor {
	return a.desc
}

func (a *postgresAdapter) TestConnectivity(ctx context.Context) error {
	conn, err := a.res.Pool.Acquire(ctx, a.desc)
	if err != nil {
		return err
	}
	defer a.res.Pool.Release(conn)

	if err := conn.DB().PingContext(ctx); err != nil {
		return utils.NewConnectionError("postgresql ping failed", err)
	}
	return nil
}

func (a *postgresAdapter) ListTables(ctx context.Context) ([]string, error) {
	conn, err := a.res.Pool.Acquire(ctx, a.desc)
	if err != nil {
		return nil, err
	}
	defer a.res.Pool.Release(conn)

	qctx, cancel := a.res.queryContext(ctx)
	defer cancel()

	rows, err := conn.DB().QueryContext(qctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
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

func (a *postgresAdapter) CountRows(ctx context.Context, table string) (int64, error) {
	conn, err := a.res.Pool.Acquire(ctx, a.desc)
	if err != nil {
		return 0, err
	}
	defer a.res.Pool.Release(conn)

	qctx, cancel := a.res.queryContext(ctx)
	defer cancel()

	// Schema-qualified form first, unqualified fallback if it errors.
	qualified := fmt.Sprintf(`SELECT COUNT(*) FROM "public".%s`, quoteIdent(table, '"'))
	var count int64
	if err := conn.DB().QueryRowContext(qctx, qualified).Scan(&count); err == nil {
		return count, nil
	}

	unqualified := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table, '"'))
	if err := conn.DB().QueryRowContext(qctx, unqualified).Scan(&count); err != nil {
		a.logOpErr("count_rows", table, err)
		return 0, classifyQueryErr(err, a.desc.Kind, "count rows", table)
	}
	return count, nil
}

func (a *postgresAdapter) FetchSchema(ctx context.Context, table string) ([]model.ColumnDescriptor, error) {
	conn, err := a.res.Pool.Acquire(ctx, a.desc)
	if err != nil {
		return nil, err
	}
	defer a.res.Pool.Release(conn)

	qctx, cancel := a.res.queryContext(ctx)
	defer cancel()

	rows, err := conn.DB().QueryContext(qctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		a.logOpErr("fetch_schema", table, err)
		return nil, classifyQueryErr(err, a.desc.Kind, "fetch schema", table)
	}
	defer rows.Close()

	var columns []model.ColumnDescriptor
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, classifyQueryErr(err, a.desc.Kind, "fetch schema", table)
		}
		columns = append(columns, model.ColumnDescriptor{
			Name:     name,
			Type:     dataType,
			Nullable: nullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classifyQueryErr(err, a.desc.Kind, "fetch schema", table)
	}
	return columns, nil
}

func (a *postgresAdapter) FetchSample(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	conn, err := a.res.Pool.Acquire(ctx, a.desc)
	if err != nil {
		return nil, err
	}
	defer a.res.Pool.Release(conn)

	qctx, cancel := a.res.queryContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT * FROM "public".%s LIMIT $1`, quoteIdent(table, '"'))
	rows, err := conn.DB().QueryContext(qctx, query, limit)
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

func (a *postgresAdapter) logOpErr(op, table string, err error) {
	a.logger.WithFields(logrus.Fields{
		"backend":   a.desc.Kind,
		"target":    a.desc.Redacted().String(),
		"operation": op,
		"table":     table,
	}).WithError(err).Warn("adapter operation failed")
}
