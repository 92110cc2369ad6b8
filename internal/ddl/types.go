package ddl

import (
	sq "github.com/Masterminds/squirrel"

	"fwimport/internal/fieldspec"
)

// ColumnDef describes a single user column in a table definition.
//
// Fields:
//   - Name: column identifier, emitted unquoted
//   - SQLType: target SQL type after dialect mapping (e.g. TEXT, BIT)
type ColumnDef struct {
	Name    string
	SQLType string
}

// TableDef holds a table name and its ordered user columns. The generated
// primary key column is not part of Columns; dialects render it.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// Catalog locates the system view used to test whether a table exists.
type Catalog struct {
	Table      string     // e.g. pg_catalog.pg_class
	NameColumn string     // e.g. relname
	Filter     sq.Sqlizer // optional extra predicate
	FoldCase   bool       // lower-case the looked-up name
}

// Dialect captures the few places where backends disagree on SQL.
type Dialect struct {
	// Name is the storage kind, e.g. "postgres".
	Name string

	// IdentityColumn is the full definition of the generated key column,
	// e.g. "id SERIAL PRIMARY KEY".
	IdentityColumn string

	// MapType translates a declared spec type into a column type. nil keeps
	// the declared token verbatim.
	MapType func(fieldspec.DeclaredType) string

	// Placeholder is the bind-parameter style ($1, ?, @p1).
	Placeholder sq.PlaceholderFormat

	// Savepoint, RollbackTo and Release are fmt patterns taking the savepoint
	// name. An empty Release means the dialect has no release statement.
	Savepoint  string
	RollbackTo string
	Release    string

	// DDLAutoCommits is set when CREATE TABLE implicitly commits the open
	// transaction. Such tables are provisioned in a transaction of their own
	// before the job's transaction begins.
	DDLAutoCommits bool

	Catalog Catalog
}

// ColumnType returns the SQL type for a declared type under d.
func (d Dialect) ColumnType(t fieldspec.DeclaredType) string {
	if d.MapType != nil {
		return d.MapType(t)
	}
	return string(t)
}

// ANSI is a neutral dialect used where no backend is involved (plans,
// tests): SERIAL keys, $n placeholders and standard savepoints.
var ANSI = Dialect{
	Name:           "ansi",
	IdentityColumn: "id SERIAL PRIMARY KEY",
	Placeholder:    sq.Dollar,
	Savepoint:      "SAVEPOINT %s",
	RollbackTo:     "ROLLBACK TO SAVEPOINT %s",
	Release:        "RELEASE SAVEPOINT %s",
	Catalog: Catalog{
		Table:      "information_schema.tables",
		NameColumn: "table_name",
	},
}
