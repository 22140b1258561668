package verifier

import "strings"

// typeEntry maps one known type name to the set of type names it accepts as
// a migration target.
type typeEntry struct {
	name    string
	accepts []string
}

// compatibilityTable is the static type compatibility catalog. Keys follow
// each backend's own casing conventions (the embedded backend reports
// uppercase storage classes); lookups are case-insensitive and entries with
// case-equal names are merged at init. The table is intentionally not
// symmetric, and no transitive closure is computed over it: a pair matches
// only directly or through one shared entry.
var compatibilityTable = []typeEntry{
	// Integer family
	{"tinyint", []string{"tinyint", "smallint", "int", "integer", "boolean", "bool"}},
	{"smallint", []string{"smallint", "mediumint", "int", "integer", "bigint"}},
	{"mediumint", []string{"mediumint", "int", "integer", "bigint"}},
	{"int", []string{"int", "integer", "bigint"}},
	{"integer", []string{"integer", "int", "bigint", "serial", "bigserial"}},
	{"bigint", []string{"bigint", "bigserial", "int8"}},
	{"serial", []string{"serial", "int", "integer", "bigserial"}},
	{"bigserial", []string{"bigserial", "bigint"}},

	// Floating point and exact numerics
	{"float", []string{"float", "real", "double", "double precision"}},
	{"double", []string{"double", "double precision", "float8"}},
	{"double precision", []string{"double precision", "double", "float8"}},
	{"decimal", []string{"decimal", "numeric"}},
	{"numeric", []string{"numeric", "decimal"}},

	// Character data
	{"char", []string{"char", "character", "varchar", "character varying", "text"}},
	{"character", []string{"character", "char", "varchar", "character varying", "text"}},
	{"varchar", []string{"varchar", "character varying", "text"}},
	{"character varying", []string{"character varying", "varchar", "text"}},
	{"tinytext", []string{"tinytext", "text", "varchar"}},
	{"mediumtext", []string{"mediumtext", "text"}},
	{"longtext", []string{"longtext", "text", "clob"}},
	{"enum", []string{"enum", "varchar", "text"}},
	{"uuid", []string{"uuid", "char", "varchar"}},

	// Binary data
	{"tinyblob", []string{"tinyblob", "blob"}},
	{"mediumblob", []string{"mediumblob", "blob"}},
	{"longblob", []string{"longblob", "blob", "bytea"}},
	{"binary", []string{"binary", "varbinary", "blob", "bytea"}},
	{"varbinary", []string{"varbinary", "blob", "bytea"}},
	{"bytea", []string{"bytea", "blob"}},

	// Temporal data
	{"date", []string{"date"}},
	{"time", []string{"time", "timetz", "time without time zone"}},
	{"datetime", []string{"datetime", "timestamp", "timestamp without time zone"}},
	{"timestamp", []string{"timestamp", "datetime", "timestamptz", "timestamp without time zone", "timestamp with time zone"}},
	{"timestamp without time zone", []string{"timestamp without time zone", "timestamp", "datetime"}},
	{"year", []string{"year", "smallint", "int", "integer"}},

	// Booleans and documents
	{"boolean", []string{"boolean", "bool", "tinyint", "bit"}},
	{"bool", []string{"bool", "boolean", "tinyint"}},
	{"json", []string{"json", "jsonb", "text"}},
	{"jsonb", []string{"jsonb", "json"}},

	// Embedded backend storage classes (uppercase catalog)
	{"INTEGER", []string{"int", "integer", "bigint", "smallint", "tinyint", "mediumint", "serial", "bigserial", "boolean", "bool"}},
	{"TEXT", []string{"text", "varchar", "character varying", "char", "character", "clob", "datetime", "date"}},
	{"REAL", []string{"real", "float", "double", "double precision", "decimal", "numeric"}},
	{"BLOB", []string{"blob", "bytea", "binary", "varbinary"}},
	{"NUMERIC", []string{"numeric", "decimal", "boolean", "date", "datetime"}},
}

// acceptsIndex is the case-folded lookup built from compatibilityTable.
var acceptsIndex = buildAcceptsIndex()

func buildAcceptsIndex() map[string]map[string]struct{} {
	index := make(map[string]map[string]struct{}, len(compatibilityTable))
	for _, entry := range compatibilityTable {
		key := strings.ToLower(entry.name)
		set, ok := index[key]
		if !ok {
			set = make(map[string]struct{}, len(entry.accepts))
			index[key] = set
		}
		for _, accepted := range entry.accepts {
			set[strings.ToLower(accepted)] = struct{}{}
		}
	}
	return index
}

// NormalizeTypeName trims, lowercases and strips a size suffix from a
// backend-native type name, collapsing internal whitespace. The embedded
// backend reports declared types like "VARCHAR(32)".
func NormalizeTypeName(typeName string) string {
	normalized := strings.ToLower(strings.TrimSpace(typeName))
	if start := strings.Index(normalized, "("); start != -1 {
		if end := strings.Index(normalized[start:], ")"); end != -1 {
			normalized = normalized[:start] + normalized[start+end+1:]
		}
	}
	return strings.Join(strings.Fields(normalized), " ")
}

// Compatible reports whether two column types may legitimately differ across
// a migration. It is deterministic and total: unknown types simply fail to
// match, which is a defined verdict rather than an error.
//
// Resolution order: exact match after normalization, then source→target and
// target→source membership in the compatibility table, then co-occurrence
// in the accepted set of a shared entry.
func Compatible(sourceType, targetType string) bool {
	source := NormalizeTypeName(sourceType)
	target := NormalizeTypeName(targetType)

	if source == target {
		return true
	}

	if accepts(source, target) || accepts(target, source) {
		return true
	}

	// Shared-group pass: both types appear in some entry's accepted set.
	for _, entry := range compatibilityTable {
		set := acceptsIndex[strings.ToLower(entry.name)]
		if _, ok := set[source]; !ok {
			continue
		}
		if _, ok := set[target]; ok {
			return true
		}
	}

	return false
}

func accepts(from, to string) bool {
	set, ok := acceptsIndex[from]
	if !ok {
		return false
	}
	_, ok = set[to]
	return ok
}
