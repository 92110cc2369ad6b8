// Package ddl holds the SQL Server dialect.
package ddl

import (
	sq "github.com/Masterminds/squirrel"

	"fwimport/internal/ddl"
	"fwimport/internal/fieldspec"
)

// MapType maps a declared spec type into a SQL Server column type.
//
//	TEXT     -> NVARCHAR(MAX)  (TEXT is deprecated and not comparable)
//	BOOLEAN  -> BIT
//	INTEGER  -> INTEGER
//	other    -> verbatim
func MapType(t fieldspec.DeclaredType) string {
	switch c := t.Canonical(); c {
	case fieldspec.Text:
		return "NVARCHAR(MAX)"
	case fieldspec.Boolean:
		return "BIT"
	default:
		return string(c)
	}
}

// Dialect is the SQL Server flavor. Savepoints have no release statement.
var Dialect = ddl.Dialect{
	Name:           "mssql",
	IdentityColumn: "id INT IDENTITY(1,1) PRIMARY KEY",
	MapType:        MapType,
	Placeholder:    sq.AtP,
	Savepoint:      "SAVE TRANSACTION %s",
	RollbackTo:     "ROLLBACK TRANSACTION %s",
	Catalog: ddl.Catalog{
		Table:      "sys.tables",
		NameColumn: "name",
	},
}
