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

// sweepInterval is how often idle network entries are checked for eviction.
const sweepInterval = 60 * time.Second

// PooledConn is one live network connection owned by the ConnectionPool.
// A borrower must return it via Release on every exit path.
type PooledConn struct {
	db       *sql.DB
	kind     model.BackendKind
	key      string
	tag      string
	lastUsed time.Time
	inUse    bool
}

// DB exposes the live handle while the connection is borrowed.
func (c *PooledConn) DB() *sql.DB {
	return c.db
}

// Kind returns the backend kind the connection belongs to.
func (c *PooledConn) Kind() model.BackendKind {
	return c.kind
}

// PoolStats is a point-in-time snapshot of the pool.
type PoolStats struct {
	Open     int `json:"open"`
	InUse    int `json:"inUse"`
	Idle     int `json:"idle"`
	Capacity int `json:"capacity"`
}

// ConnectionPool bounds the number of simultaneously open network
// connections and amortizes connection setup across repeated calls.
// Identity key for pooling is (kind, host, port, database, user); two
// descriptors with identical key share a slot across runs within the
// process lifetime.
type ConnectionPool struct {
	mu             sync.Mutex
	entries        map[string][]*PooledConn
	total          int
	maxConns       int
	idleTTL        time.Duration
	connectTimeout time.Duration
	logger         *logrus.Logger
	stopChan       chan struct{}
}

// NewConnectionPool creates a pool with the given connection ceiling and
// idle eviction timeout.
func NewConnectionPool(maxConns int, idleTTL, connectTimeout time.Duration, logger *logrus.Logger) *ConnectionPool {
	if maxConns <= 0 {
		maxConns = 10
	}
	if idleTTL <= 0 {
		idleTTL = 5 * time.Minute
	}
	return &ConnectionPool{
		entries:        make(map[string][]*PooledConn),
		maxConns:       maxConns,
		idleTTL:        idleTTL,
		connectTimeout: connectTimeout,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Acquire returns an idle, non-expired pooled connection for the same
// descriptor identity if one exists, otherwise opens a new one. When the
// pool is at capacity it fails immediately rather than blocking.
func (cp *ConnectionPool) Acquire(ctx context.Context, desc model.ConnectionDescriptor) (*PooledConn, error) {
	key := desc.PoolKey()

	cp.mu.Lock()
	now := time.Now()
	for _, entry := range cp.entries[key] {
		if !entry.inUse && now.Sub(entry.lastUsed) < cp.idleTTL {
			entry.inUse = true
			cp.mu.Unlock()
			return entry, nil
		}
	}

	if cp.total >= cp.maxConns {
		cp.mu.Unlock()
		return nil, utils.NewPoolExhaustedError("connection pool at capacity")
	}
	// Reserve the slot before dialing so concurrent acquires cannot
	// overshoot the ceiling while this dial is in flight.
	cp.total++
	cp.mu.Unlock()

	entry, err := cp.dial(ctx, desc, key)
	if err != nil {
		cp.mu.Lock()
		cp.total--
		cp.mu.Unlock()
		return nil, err
	}

	cp.mu.Lock()
	cp.entries[key] = append(cp.entries[key], entry)
	cp.mu.Unlock()

	return entry, nil
}

func (cp *ConnectionPool) dial(ctx context.Context, desc model.ConnectionDescriptor, key string) (*PooledConn, error) {
	driver, err := ForKind(desc.Kind)
	if err != nil {
		return nil, utils.NewValidationError("unknown backend kind", err)
	}

	db, err := driver.Open(driver.BuildDSN(desc))
	if err != nil {
		return nil, utils.NewConnectionError("failed to open connection", err)
	}

	// One pooled entry maps to one live connection; database/sql's own
	// pooling is disabled so the ceiling is accounted here.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx := ctx
	if cp.connectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cp.connectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		cp.logger.WithFields(logrus.Fields{
			"backend": desc.Kind,
			"target":  desc.Redacted().String(),
		}).WithError(err).Warn("connection ping failed")
		return nil, utils.NewConnectionError("failed to ping database", err)
	}

	return &PooledConn{
		db:       db,
		kind:     desc.Kind,
		key:      key,
		tag:      desc.Tag(),
		lastUsed: time.Now(),
		inUse:    true,
	}, nil
}

// Release marks the connection idle and stamps its last-used time. It never
// closes eagerly, and releasing twice is harmless.
func (cp *ConnectionPool) Release(conn *PooledConn) {
	if conn == nil {
		return
	}
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if !conn.inUse {
		return
	}
	conn.inUse = false
	conn.lastUsed = time.Now()
}

// Start runs the background idle sweep until the context is cancelled or
// Stop is called.
func (cp *ConnectionPool) Start(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cp.stopChan:
			return
		case <-ticker.C:
			cp.sweep()
		}
	}
}

// Stop terminates the background sweep.
func (cp *ConnectionPool) Stop() {
	close(cp.stopChan)
}

func (cp *ConnectionPool) sweep() {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	cutoff := time.Now().Add(-cp.idleTTL)
	evicted := 0
	for key, entries := range cp.entries {
		kept := entries[:0]
		for _, entry := range entries {
			if !entry.inUse && entry.lastUsed.Before(cutoff) {
				entry.db.Close()
				cp.total--
				evicted++
				continue
			}
			kept = append(kept, entry)
		}
		if len(kept) == 0 {
			delete(cp.entries, key)
		} else {
			cp.entries[key] = kept
		}
	}

	if evicted > 0 {
		cp.logger.WithField("evicted", evicted).Debug("connection pool sweep")
	}
}

// CloseByTag closes and evicts every entry with the given tag regardless of
// idle state. Used for hard resets, e.g. when a new embedded-file upload
// must invalidate prior handles for the same logical role.
func (cp *ConnectionPool) CloseByTag(tag string) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	for key, entries := range cp.entries {
		kept := entries[:0]
		for _, entry := range entries {
			if entry.tag == tag {
				entry.db.Close()
				cp.total--
				continue
			}
			kept = append(kept, entry)
		}
		if len(kept) == 0 {
			delete(cp.entries, key)
		} else {
			cp.entries[key] = kept
		}
	}
}

// CloseAll closes every pooled connection regardless of state.
func (cp *ConnectionPool) CloseAll() {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	for key, entries := range cp.entries {
		for _, entry := range entries {
			entry.db.Close()
		}
		delete(cp.entries, key)
	}
	cp.total = 0
}

// Stats returns a snapshot of pool occupancy.
func (cp *ConnectionPool) Stats() PoolStats {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	stats := PoolStats{Open: cp.total, Capacity: cp.maxConns}
	for _, entries := range cp.entries {
		for _, entry := range entries {
			if entry.inUse {
				stats.InUse++
			} else {
				stats.Idle++
			}
		}
	}
	return stats
}
