// Package ddl holds the Postgres dialect.
package ddl

import (
	sq "github.com/Masterminds/squirrel"

	"fwimport/internal/ddl"
	"fwimport/internal/fieldspec"
)

// MapType maps a declared spec type into a Postgres column type. TEXT,
// BOOLEAN and INTEGER are native; other tokens pass through unchanged.
func MapType(t fieldspec.DeclaredType) string {
	return string(t.Canonical())
}

// Dialect is the Postgres SQL flavor. Unquoted identifiers fold to lower
// case, so the catalog lookup folds the name as well.
var Dialect = ddl.Dialect{
	Name:           "postgres",
	IdentityColumn: "id SERIAL PRIMARY KEY",
	MapType:        MapType,
	Placeholder:    sq.Dollar,
	Savepoint:      "SAVEPOINT %s",
	RollbackTo:     "ROLLBACK TO SAVEPOINT %s",
	Release:        "RELEASE SAVEPOINT %s",
	Catalog: ddl.Catalog{
		Table:      "pg_catalog.pg_class",
		NameColumn: "relname",
		FoldCase:   true,
	},
}
