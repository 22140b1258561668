package metadata

import (
	"testing"
	"time"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
)

func testColumns() []model.ColumnDescriptor {
	return []model.ColumnDescriptor{
		{Name: "id", Type: "int", Nullable: false},
		{Name: "name", Type: "varchar(64)", Nullable: true},
	}
}

func TestSchemaCachePutGet(t *testing.T) {
	cache := NewSchemaCache(time.Minute)

	key := "mysql|localhost|3306|app|verify|orders"
	if _, ok := cache.Get(key); ok {
		t.Fatal("expected a miss on an empty cache")
	}

	cache.Put(key, testColumns())

	columns, ok := cache.Get(key)
	if !ok {
		t.Fatal("expected a hit after Put")
	}
	if len(columns) != 2 || columns[0].Name != "id" {
		t.Errorf("unexpected cached columns: %+v", columns)
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
}

func TestSchemaCacheEntriesAreImmutable(t *testing.T) {
	cache := NewSchemaCache(time.Minute)

	original := testColumns()
	cache.Put("k", original)
	original[0].Name = "mutated"

	columns, ok := cache.Get("k")
	if !ok {
		t.Fatal("expected a hit")
	}
	if columns[0].Name != "id" {
		t.Errorf("cached entry was mutated through the caller's slice")
	}
}

func TestSchemaCacheExpiry(t *testing.T) {
	cache := NewSchemaCache(50 * time.Millisecond)

	cache.Put("k", testColumns())
	if _, ok := cache.Get("k"); !ok {
		t.Fatal("expected a hit before expiry")
	}

	time.Sleep(120 * time.Millisecond)

	if _, ok := cache.Get("k"); ok {
		t.Error("expected the entry to expire")
	}
}

func TestSchemaCacheInvalidate(t *testing.T) {
	cache := NewSchemaCache(time.Minute)

	cache.Put("k", testColumns())
	cache.Invalidate("k")

	if _, ok := cache.Get("k"); ok {
		t.Error("expected a miss after Invalidate")
	}
}

func TestCacheableExcludesEmbeddedBackend(t *testing.T) {
	if Cacheable(model.BackendSQLite) {
		t.Error("embedded file schemas must never be cached")
	}
	if !Cacheable(model.BackendMySQL) || !Cacheable(model.BackendPostgreSQL) {
		t.Error("network backend schemas should be cacheable")
	}
}

func TestKeyIncludesConnectionIdentityAndTable(t *testing.T) {
	desc := model.ConnectionDescriptor{
		Kind:     model.BackendPostgreSQL,
		Host:     "db1",
		Port:     5432,
		Database: "app",
		Username: "verify",
	}
	other := desc
	other.Database = "app2"

	if Key(desc, "orders") == Key(other, "orders") {
		t.Error("keys for different databases must differ")
	}
	if Key(desc, "orders") == Key(desc, "items") {
		t.Error("keys for different tables must differ")
	}
}
