package ddl

import (
	"testing"

	gddl "fwimport/internal/ddl"
	"fwimport/internal/fieldspec"
)

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   fieldspec.DeclaredType
		want string
	}{
		{in: "text", want: "TEXT"},
		{in: "BOOLEAN", want: "BOOLEAN"},
		{in: " integer", want: "INTEGER"},
		{in: "NUMERIC(10,2)", want: "NUMERIC(10,2)"},
	}
	for _, tt := range tests {
		if got := MapType(tt.in); got != tt.want {
			t.Errorf("MapType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestCatalogLookupFoldsCase pins the exact existence query.
func TestCatalogLookupFoldsCase(t *testing.T) {
	t.Parallel()

	q, args, err := gddl.ExistsSQL(Dialect, "TestFormat1")
	if err != nil {
		t.Fatalf("ExistsSQL() error = %v", err)
	}
	if want := "SELECT COUNT(*) FROM pg_catalog.pg_class WHERE relname = $1"; q != want {
		t.Fatalf("ExistsSQL() = %q, want %q", q, want)
	}
	if len(args) != 1 || args[0] != "testformat1" {
		t.Fatalf("args = %v, want [testformat1]", args)
	}
}
