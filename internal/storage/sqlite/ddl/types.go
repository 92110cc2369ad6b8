// Package ddl holds the SQLite dialect.
//
// SQLite accepts any declared column type and derives an affinity from it,
// so declared spec types are kept verbatim (TEXT, BOOLEAN and INTEGER in
// canonical upper case).
package ddl

import (
	sq "github.com/Masterminds/squirrel"

	"fwimport/internal/ddl"
	"fwimport/internal/fieldspec"
)

// MapType maps a declared spec type into a SQLite column type.
func MapType(t fieldspec.DeclaredType) string {
	return string(t.Canonical())
}

// Dialect is the SQLite SQL flavor.
var Dialect = ddl.Dialect{
	Name:           "sqlite",
	IdentityColumn: "id INTEGER PRIMARY KEY AUTOINCREMENT",
	MapType:        MapType,
	Placeholder:    sq.Question,
	Savepoint:      "SAVEPOINT %s",
	RollbackTo:     "ROLLBACK TO SAVEPOINT %s",
	Release:        "RELEASE SAVEPOINT %s",
	Catalog: ddl.Catalog{
		Table:      "sqlite_master",
		NameColumn: "name",
		Filter:     sq.Eq{"type": "table"},
	},
}
