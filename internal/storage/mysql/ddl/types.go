// Package ddl holds the MySQL dialect.
package ddl

import (
	sq "github.com/Masterminds/squirrel"

	"fwimport/internal/ddl"
	"fwimport/internal/fieldspec"
)

// MapType maps a declared spec type into a MySQL column type. BOOLEAN is an
// alias for TINYINT(1) and is accepted as declared.
func MapType(t fieldspec.DeclaredType) string {
	return string(t.Canonical())
}

// Dialect is the MySQL flavor. The catalog lookup is scoped to the
// connection's current database.
//
// CREATE TABLE commits implicitly in MySQL and ends the job's transaction,
// savepoints included, so tables are provisioned before it begins.
var Dialect = ddl.Dialect{
	Name:           "mysql",
	DDLAutoCommits: true,
	IdentityColumn: "id BIGINT AUTO_INCREMENT PRIMARY KEY",
	MapType:        MapType,
	Placeholder:    sq.Question,
	Savepoint:      "SAVEPOINT %s",
	RollbackTo:     "ROLLBACK TO SAVEPOINT %s",
	Release:        "RELEASE SAVEPOINT %s",
	Catalog: ddl.Catalog{
		Table:      "information_schema.tables",
		NameColumn: "table_name",
		Filter:     sq.Expr("table_schema = DATABASE()"),
	},
}
