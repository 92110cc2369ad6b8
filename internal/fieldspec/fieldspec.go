// Package fieldspec loads specification files: the comma-separated
// descriptions of a destination table's columns, their fixed widths and their
// declared SQL types.
//
// File format (the first line is a header and is discarded):
//
//	column name,width,datatype
//	name,10,TEXT
//	valid,1,BOOLEAN
//	count,3,INTEGER
package fieldspec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"fwimport/internal/errs"
)

// DeclaredType is the datatype token of a spec line. TEXT, BOOLEAN and
// INTEGER receive casting treatment; any other token is carried verbatim into
// the table DDL.
type DeclaredType string

const (
	Text    DeclaredType = "TEXT"
	Boolean DeclaredType = "BOOLEAN"
	Integer DeclaredType = "INTEGER"
)

// Canonical returns the upper-cased enum value for TEXT/BOOLEAN/INTEGER
// (matched case-insensitively) and the raw token otherwise.
func (t DeclaredType) Canonical() DeclaredType {
	switch u := DeclaredType(strings.ToUpper(strings.TrimSpace(string(t)))); u {
	case Text, Boolean, Integer:
		return u
	default:
		return t
	}
}

// Known reports whether t is one of the three cast-aware types.
func (t DeclaredType) Known() bool {
	switch t.Canonical() {
	case Text, Boolean, Integer:
		return true
	}
	return false
}

// ColumnSpec describes one fixed-width column. Values are immutable once
// loaded; order defines both byte offsets and insert column order.
type ColumnSpec struct {
	Name  string
	Width int
	Type  DeclaredType
}

// Spec is the ordered column layout of a single specification file.
type Spec struct {
	Path    string
	Table   string
	Columns []ColumnSpec
}

// Names returns the column names in source order.
func (s Spec) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Widths returns the column widths in source order.
func (s Spec) Widths() []int {
	out := make([]int, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Width
	}
	return out
}

// Types returns the declared types in source order.
func (s Spec) Types() []DeclaredType {
	out := make([]DeclaredType, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Type
	}
	return out
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether name can be emitted unquoted as a table or
// column identifier.
func ValidIdent(name string) bool { return identRe.MatchString(name) }

// TableName derives a table name from a specification path: the directory
// is dropped and everything from the first dot of the file name on is
// stripped, so "specs/testformat1.csv" yields "testformat1".
func TableName(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

// Load opens and parses the specification file at path.
func Load(path string) (Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return Spec{}, errs.At(errs.KindSchemaParse, "open spec", path, 0, err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads a specification from r. path is used for the table name and
// for error locations only.
func Parse(r io.Reader, path string) (Spec, error) {
	table := TableName(path)
	if !ValidIdent(table) {
		return Spec{}, errs.At(errs.KindSchemaParse, "table name", path, 0,
			fmt.Errorf("%q is not a valid identifier", table))
	}

	spec := Spec{Path: path, Table: table}
	seen := map[string]int{}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo == 1 {
			// header row
			continue
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		col, err := parseLine(line)
		if err != nil {
			return Spec{}, errs.At(errs.KindSchemaParse, "column", path, lineNo, err)
		}
		key := strings.ToLower(col.Name)
		if key == "id" {
			return Spec{}, errs.At(errs.KindSchemaParse, "column", path, lineNo,
				errors.New(`column "id" is reserved for the generated primary key`))
		}
		if prev, dup := seen[key]; dup {
			return Spec{}, errs.At(errs.KindSchemaParse, "column", path, lineNo,
				fmt.Errorf("duplicate column %q (first declared on line %d)", col.Name, prev))
		}
		seen[key] = lineNo
		spec.Columns = append(spec.Columns, col)
	}
	if err := sc.Err(); err != nil {
		return Spec{}, errs.At(errs.KindSchemaParse, "read spec", path, lineNo, err)
	}
	if len(spec.Columns) == 0 {
		return Spec{}, errs.At(errs.KindSchemaParse, "column", path, 0, errors.New("no columns declared"))
	}
	return spec, nil
}

func parseLine(line string) (ColumnSpec, error) {
	tokens := strings.Split(line, ",")
	if len(tokens) != 3 {
		return ColumnSpec{}, fmt.Errorf("want 3 comma-separated tokens, got %d in %q", len(tokens), line)
	}
	name := strings.TrimSpace(tokens[0])
	if !ValidIdent(name) {
		return ColumnSpec{}, fmt.Errorf("column name %q is not a valid identifier", name)
	}
	width, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
	if err != nil {
		return ColumnSpec{}, fmt.Errorf("column %s: width %q: %w", name, tokens[1], err)
	}
	if width <= 0 {
		return ColumnSpec{}, fmt.Errorf("column %s: width must be positive, got %d", name, width)
	}
	typ := strings.TrimSpace(tokens[2])
	if typ == "" {
		return ColumnSpec{}, fmt.Errorf("column %s: missing datatype", name)
	}
	return ColumnSpec{Name: name, Width: width, Type: DeclaredType(typ)}, nil
}
