package ddl

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// InsertSQL renders a parameterized single-row INSERT for table.
func InsertSQL(d Dialect, table string, columns []string, values []any) (string, []any, error) {
	if len(columns) != len(values) {
		return "", nil, fmt.Errorf("ddl: %d columns but %d values", len(columns), len(values))
	}
	return sq.Insert(table).
		Columns(columns...).
		Values(values...).
		PlaceholderFormat(d.Placeholder).
		ToSql()
}

// LiteralInsertSQL renders an INSERT with pre-rendered literal values, the
// text form printed by plans.
func LiteralInsertSQL(table string, columns, literals []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		table, strings.Join(columns, ", "), strings.Join(literals, ", "))
}

// CountSQL renders SELECT COUNT(*) FROM table.
func CountSQL(table string) (string, error) {
	q, _, err := sq.Select("COUNT(*)").From(table).ToSql()
	return q, err
}

// ExistsSQL renders a catalog lookup returning the number of relations named
// table.
func ExistsSQL(d Dialect, table string) (string, []any, error) {
	c := d.Catalog
	if c.Table == "" || c.NameColumn == "" {
		return "", nil, fmt.Errorf("ddl: dialect %q has no catalog", d.Name)
	}
	name := table
	if c.FoldCase {
		name = strings.ToLower(name)
	}
	q := sq.Select("COUNT(*)").From(c.Table).Where(sq.Eq{c.NameColumn: name})
	if c.Filter != nil {
		q = q.Where(c.Filter)
	}
	return q.PlaceholderFormat(d.Placeholder).ToSql()
}

// SavepointSQL returns the statements that open, roll back to and release a
// savepoint called name. release is empty when the dialect has none.
func SavepointSQL(d Dialect, name string) (open, rollback, release string) {
	open = fmt.Sprintf(d.Savepoint, name)
	rollback = fmt.Sprintf(d.RollbackTo, name)
	if d.Release != "" {
		release = fmt.Sprintf(d.Release, name)
	}
	return open, rollback, release
}
