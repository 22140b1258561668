package database

import (
	"database/sql"
	"fmt"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver holds the backend-specific pieces of opening a connection.
// The backend set is fixed and small, so drivers are a closed switch
// rather than an open registry.
type Driver interface {
	// Open opens a database handle for the built DSN
	Open(dsn string) (*sql.DB, error)

	// BuildDSN builds a connection string from a descriptor
	BuildDSN(desc model.ConnectionDescriptor) string

	// DriverName returns the underlying database/sql driver name
	DriverName() string

	// DefaultPort returns the default port for the backend
	DefaultPort() int
}

// ForKind returns the driver for the given backend kind.
func ForKind(kind model.BackendKind) (Driver, error) {
	switch kind {
	case model.BackendMySQL:
		return &MySQLDriver{}, nil
	case model.BackendPostgreSQL:
		return &PostgreSQLDriver{}, nil
	case model.BackendSQLite:
		return &SQLiteDriver{}, nil
	default:
		return nil, fmt.Errorf("unsupported backend kind: %s", kind)
	}
}

// MySQLDriver implements Driver for MySQL/MariaDB
type MySQLDriver struct{}

func (d *MySQLDriver) Open(dsn string) (*sql.DB, error) {
	return sql.Open("mysql", dsn)
}

func (d *MySQLDriver) BuildDSN(desc model.ConnectionDescriptor) string {
	port := desc.Port
	if port == 0 {
		port = d.DefaultPort()
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		desc.Username,
		desc.Password,
		desc.Host,
		port,
		desc.Database,
	)
}

func (d *MySQLDriver) DriverName() string {
	return "mysql"
}

func (d *MySQLDriver) DefaultPort() int {
	return 3306
}

// PostgreSQLDriver implements Driver for PostgreSQL
type PostgreSQLDriver struct{}

func (d *PostgreSQLDriver) Open(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

func (d *PostgreSQLDriver) BuildDSN(desc model.ConnectionDescriptor) string {
	port := desc.Port
	if port == 0 {
		port = d.DefaultPort()
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		desc.Host,
		port,
		desc.Username,
		desc.Password,
		desc.Database,
	)
}

func (d *PostgreSQLDriver) DriverName() string {
	return "postgres"
}

func (d *PostgreSQLDriver) DefaultPort() int {
	return 5432
}

// SQLiteDriver implements Driver for embedded SQLite files
type SQLiteDriver struct{}

func (d *SQLiteDriver) Open(dsn string) (*sql.DB, error) {
	return sql.Open("sqlite", dsn)
}

func (d *SQLiteDriver) BuildDSN(desc model.ConnectionDescriptor) string {
	// The engine never mutates either side, so handles are opened read-only.
	return fmt.Sprintf("file:%s?mode=ro", desc.FilePath)
}

func (d *SQLiteDriver) DriverName() string {
	return "sqlite"
}

func (d *SQLiteDriver) DefaultPort() int {
	return 0
}
