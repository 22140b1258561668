package model

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BackendKind identifies one of the supported database technologies.
type BackendKind string

const (
	BackendMySQL      BackendKind = "mysql"
	BackendPostgreSQL BackendKind = "postgresql"
	BackendSQLite     BackendKind = "sqlite"
)

// SupportedBackends lists every backend kind the engine can verify.
func SupportedBackends() []BackendKind {
	return []BackendKind{BackendMySQL, BackendPostgreSQL, BackendSQLite}
}

// IsNetwork reports whether the backend speaks a network protocol.
// SQLite is file-based and is pooled separately from network connections.
func (k BackendKind) IsNetwork() bool {
	return k == BackendMySQL || k == BackendPostgreSQL
}

// ConnectionDescriptor describes one side of a verification run.
// It is immutable once constructed; the engine never persists it.
type ConnectionDescriptor struct {
	Kind     BackendKind `json:"kind" validate:"required,oneof=mysql postgresql sqlite"`
	Host     string      `json:"host" validate:"required_unless=Kind sqlite"`
	Port     int         `json:"port" validate:"omitempty,min=1,max=65535"`
	Database string      `json:"database" validate:"required_unless=Kind sqlite"`
	Username string      `json:"username" validate:"required_unless=Kind sqlite"`
	Password string      `json:"password"`
	// FilePath is the resolved local path of an embedded database file.
	// Resolution of an upload to a path is the caller's job.
	FilePath string `json:"filePath" validate:"required_if=Kind sqlite"`
}

var descriptorValidator = validator.New()

// Validate type-checks the descriptor structurally. It does not sanitize
// values; that is the transport layer's responsibility.
func (d ConnectionDescriptor) Validate() error {
	if err := descriptorValidator.Struct(d); err != nil {
		return fmt.Errorf("invalid connection descriptor: %w", err)
	}
	return nil
}

// PoolKey returns the identity used for connection pooling. Two descriptors
// with the same key share a pool slot for the process lifetime.
func (d ConnectionDescriptor) PoolKey() string {
	if d.Kind == BackendSQLite {
		return fmt.Sprintf("%s|%s", d.Kind, d.FilePath)
	}
	return fmt.Sprintf("%s|%s|%d|%s|%s", d.Kind, d.Host, d.Port, d.Database, d.Username)
}

// Tag returns the hard-reset grouping key: the resolved file path for the
// embedded backend, the pool identity otherwise.
func (d ConnectionDescriptor) Tag() string {
	if d.Kind == BackendSQLite {
		return d.FilePath
	}
	return d.PoolKey()
}

// SameFileAs reports whether both descriptors reference the identical
// embedded database file.
func (d ConnectionDescriptor) SameFileAs(other ConnectionDescriptor) bool {
	return d.Kind == BackendSQLite && other.Kind == BackendSQLite &&
		d.FilePath != "" && d.FilePath == other.FilePath
}

// Redacted returns a copy safe for logging.
func (d ConnectionDescriptor) Redacted() ConnectionDescriptor {
	if d.Password != "" {
		d.Password = "***"
	}
	return d
}

// String renders the descriptor with credentials redacted.
func (d ConnectionDescriptor) String() string {
	if d.Kind == BackendSQLite {
		return fmt.Sprintf("sqlite(%s)", d.FilePath)
	}
	user := d.Username
	if user == "" {
		user = "?"
	}
	return fmt.Sprintf("%s(%s@%s:%d/%s)", d.Kind, user, d.Host, d.Port, strings.TrimSpace(d.Database))
}
