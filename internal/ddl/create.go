// Package ddl defines a small, backend-agnostic model for the statements the
// importer issues (CREATE TABLE, INSERT, COUNT, catalog lookups and
// savepoints) and the Dialect descriptor each storage backend fills in.
//
// Identifiers are emitted unquoted. Callers are expected to have validated
// them (fieldspec.ValidIdent) before they reach this package.
package ddl

import (
	"fmt"
	"strings"

	"fwimport/internal/fieldspec"
)

// FromSpec builds the table definition for a loaded specification, mapping
// declared types through d.
func FromSpec(spec fieldspec.Spec, d Dialect) TableDef {
	cols := make([]ColumnDef, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = ColumnDef{Name: c.Name, SQLType: d.ColumnType(c.Type)}
	}
	return TableDef{Name: spec.Table, Columns: cols}
}

// BuildCreateTableSQL renders
//
//	CREATE TABLE <name> (<identity column>, <col1> <type1>, <col2> <type2>, ...);
//
// Rules:
//   - t.Name must be non-empty; it is emitted verbatim.
//   - Each column must have a non-empty Name and SQLType.
//   - d.IdentityColumn must be set.
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	if strings.TrimSpace(d.IdentityColumn) == "" {
		return "", fmt.Errorf("ddl: dialect %q has no identity column", d.Name)
	}

	parts := make([]string, 0, len(t.Columns)+1)
	parts = append(parts, d.IdentityColumn)
	for _, c := range t.Columns {
		cn := strings.TrimSpace(c.Name)
		if cn == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", name)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", cn)
		}
		parts = append(parts, cn+" "+typ)
	}

	return fmt.Sprintf("CREATE TABLE %s (%s);", name, strings.Join(parts, ", ")), nil
}
