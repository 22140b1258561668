package database

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/utils"
)

// fileSweepInterval is how often idle embedded-file handles are checked.
// Less frequent than the network sweep because the idle window is short
// and handles are cheap to reopen.
const fileSweepInterval = 5 * time.Minute

// FileHandle is a cached embedded-database handle. Handles are shared
// between concurrent readers and refcounted so the sweep never closes one
// mid-query.
type FileHandle struct {
	db       *sql.DB
	path     string
	lastUsed time.Time
	refs     int
}

// DB exposes the live handle while it is borrowed.
func (h *FileHandle) DB() *sql.DB {
	return h.db
}

// FileHandleCache reuses embedded-file handles across calls within a short
// idle window. Distinct from the network pool: the file schema can change
// between sessions, so handles are kept on a much shorter leash.
type FileHandleCache struct {
	mu       sync.Mutex
	handles  map[string]*FileHandle
	idleTTL  time.Duration
	logger   *logrus.Logger
	stopChan chan struct{}
}

// NewFileHandleCache creates a cache with the given idle timeout.
func NewFileHandleCache(idleTTL time.Duration, logger *logrus.Logger) *FileHandleCache {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Second
	}
	return &FileHandleCache{
		handles:  make(map[string]*FileHandle),
		idleTTL:  idleTTL,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Acquire returns a cached handle for the resolved file path, opening one
// if necessary. The caller must Release the handle on every exit path.
func (fc *FileHandleCache) Acquire(ctx context.Context, desc model.ConnectionDescriptor) (*FileHandle, error) {
	fc.mu.Lock()
	if handle, ok := fc.handles[desc.FilePath]; ok {
		handle.refs++
		fc.mu.Unlock()
		return handle, nil
	}
	fc.mu.Unlock()

	driver, err := ForKind(model.BackendSQLite)
	if err != nil {
		return nil, utils.NewValidationError("unknown backend kind", err)
	}
	db, err := driver.Open(driver.BuildDSN(desc))
	if err != nil {
		return nil, utils.NewConnectionError("failed to open database file", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		fc.logger.WithField("file", desc.FilePath).WithError(err).Warn("database file open failed")
		return nil, utils.NewConnectionError("failed to open database file", err)
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	// Another borrower may have opened the same file while we did.
	if existing, ok := fc.handles[desc.FilePath]; ok {
		db.Close()
		existing.refs++
		return existing, nil
	}
	handle := &FileHandle{db: db, path: desc.FilePath, lastUsed: time.Now(), refs: 1}
	fc.handles[desc.FilePath] = handle
	return handle, nil
}

// Release returns a borrowed handle and stamps its last-used time.
func (fc *FileHandleCache) Release(handle *FileHandle) {
	if handle == nil {
		return
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if handle.refs > 0 {
		handle.refs--
	}
	handle.lastUsed = time.Now()
}

// Start runs the background idle sweep until the context is cancelled or
// Stop is called.
func (fc *FileHandleCache) Start(ctx context.Context) {
	ticker := time.NewTicker(fileSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fc.stopChan:
			return
		case <-ticker.C:
			fc.sweep()
		}
	}
}

// Stop terminates the background sweep.
func (fc *FileHandleCache) Stop() {
	close(fc.stopChan)
}

func (fc *FileHandleCache) sweep() {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	cutoff := time.Now().Add(-fc.idleTTL)
	for path, handle := range fc.handles {
		if handle.refs == 0 && handle.lastUsed.Before(cutoff) {
			handle.db.Close()
			delete(fc.handles, path)
		}
	}
}

// Invalidate closes the handle for a file path regardless of idle state.
// Called when a new upload replaces the file behind the same logical role.
func (fc *FileHandleCache) Invalidate(path string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if handle, ok := fc.handles[path]; ok {
		handle.db.Close()
		delete(fc.handles, path)
	}
}

// CloseAll closes every cached handle.
func (fc *FileHandleCache) CloseAll() {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	for path, handle := range fc.handles {
		handle.db.Close()
		delete(fc.handles, path)
	}
}

// Size returns the number of cached handles.
func (fc *FileHandleCache) Size() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.handles)
}
