package metadata

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bluele/gcache"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
)

// defaultCapacity bounds the number of cached table schemas.
const defaultCapacity = 512

// SchemaCache memoizes a table's column descriptors for a short window,
// keyed by connection identity plus table name. Entries are replaced
// wholesale, never mutated in place. The embedded-file backend is never
// cached: its schema can change between calls within a session.
type SchemaCache struct {
	store  gcache.Cache
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewSchemaCache creates a cache with the given TTL.
func NewSchemaCache(ttl time.Duration) *SchemaCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SchemaCache{
		store: gcache.New(defaultCapacity).LRU().Build(),
		ttl:   ttl,
	}
}

// Key builds the cache key for a descriptor and table.
func Key(desc model.ConnectionDescriptor, table string) string {
	return fmt.Sprintf("%s|%s", desc.PoolKey(), table)
}

// Cacheable reports whether schemas for this backend may be cached.
func Cacheable(kind model.BackendKind) bool {
	return kind != model.BackendSQLite
}

// Get returns the cached column sequence for the key, if present and fresh.
func (sc *SchemaCache) Get(key string) ([]model.ColumnDescriptor, bool) {
	value, err := sc.store.Get(key)
	if err != nil {
		sc.misses.Add(1)
		return nil, false
	}
	columns, ok := value.([]model.ColumnDescriptor)
	if !ok {
		sc.misses.Add(1)
		return nil, false
	}
	sc.hits.Add(1)
	return columns, true
}

// Put stores a copy of the column sequence under the key.
func (sc *SchemaCache) Put(key string, columns []model.ColumnDescriptor) {
	stored := make([]model.ColumnDescriptor, len(columns))
	copy(stored, columns)
	// gcache evicts expired entries on access, so no sweep goroutine here.
	_ = sc.store.SetWithExpire(key, stored, sc.ttl)
}

// Invalidate removes one entry.
func (sc *SchemaCache) Invalidate(key string) {
	sc.store.Remove(key)
}

// Clear drops every entry.
func (sc *SchemaCache) Clear() {
	sc.store.Purge()
}

// Stats returns hit/miss counters and the current entry count.
func (sc *SchemaCache) Stats() CacheStats {
	return CacheStats{
		Entries: sc.store.Len(false),
		Hits:    sc.hits.Load(),
		Misses:  sc.misses.Load(),
	}
}
