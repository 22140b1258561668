package verifier

import (
	"testing"
)

func TestNormalizeTypeName(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"VARCHAR(255)", "varchar"},
		{"  int  ", "int"},
		{"Numeric(10, 2)", "numeric"},
		{"TIMESTAMP WITHOUT TIME ZONE", "timestamp without time zone"},
		{"double   precision", "double precision"},
		{"", ""},
	}

	for _, c := range cases {
		got := NormalizeTypeName(c.input)
		if got != c.expected {
			t.Errorf("NormalizeTypeName(%q) = %q, expected %q", c.input, got, c.expected)
		}
	}
}

func TestCompatibleReflexive(t *testing.T) {
	types := []string{"int", "bigint", "varchar(64)", "TEXT", "timestamp", "made_up_type"}

	for _, typ := range types {
		if !Compatible(typ, typ) {
			t.Errorf("Compatible(%q, %q) should be true", typ, typ)
		}
	}
}

func TestCompatibleNormalizedEqual(t *testing.T) {
	if !Compatible("VARCHAR(255)", "varchar(64)") {
		t.Errorf("size-parameterized variants of the same type should be compatible")
	}
	if !Compatible("  INT ", "int") {
		t.Errorf("whitespace and case should not affect compatibility")
	}
}

func TestCompatibleIntegerWidening(t *testing.T) {
	cases := []struct {
		source string
		target string
	}{
		{"int", "bigint"},
		{"bigint", "int"},
		{"integer", "INTEGER"},
		{"smallint", "int"},
		{"tinyint(1)", "boolean"},
	}

	for _, c := range cases {
		if !Compatible(c.source, c.target) {
			t.Errorf("Compatible(%q, %q) should be true", c.source, c.target)
		}
	}
}

func TestCompatibleSharedGroup(t *testing.T) {
	// datetime and date list neither each other, but co-occur in the TEXT
	// storage-class entry's accepted set.
	if !Compatible("datetime", "date") {
		t.Errorf("datetime and date should be compatible through a shared group")
	}
	if !Compatible("character varying", "TEXT") {
		t.Errorf("character varying and TEXT should be compatible")
	}
	if !Compatible("double", "real") {
		t.Errorf("double and real should be compatible")
	}
}

func TestIncompatibleTypes(t *testing.T) {
	cases := []struct {
		source string
		target string
	}{
		{"int", "varchar"},
		{"timestamp", "blob"},
		{"made_up_type", "another_made_up_type"},
		{"json", "int"},
	}

	for _, c := range cases {
		if Compatible(c.source, c.target) {
			t.Errorf("Compatible(%q, %q) should be false", c.source, c.target)
		}
	}
}

func TestCompatibleIsTotal(t *testing.T) {
	// Arbitrary garbage must yield an answer, never a panic.
	inputs := []string{"", "(((", "int(((", "漢字", "a b c d e"}

	for _, a := range inputs {
		for _, b := range inputs {
			_ = Compatible(a, b)
		}
	}
}

func TestCompatibleDeterministic(t *testing.T) {
	first := Compatible("decimal(10,2)", "numeric")
	for i := 0; i < 100; i++ {
		if Compatible("decimal(10,2)", "numeric") != first {
			t.Fatalf("Compatible is not deterministic")
		}
	}
	if !first {
		t.Errorf("decimal and numeric should be compatible")
	}
}
