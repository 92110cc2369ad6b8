// Package match pairs specification files with the data files they import.
//
// Two modes exist. Substring claims every data file whose name contains the
// spec's table name anywhere; it is the historical behavior and lets one data
// file join several jobs ("report" also claims "report_v2_2020.txt").
// Prefix claims a data file only when its name equals the table name or
// starts with it followed by '_', '-' or '.', and treats a file claimed by
// two specs as a configuration error.
package match

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"fwimport/internal/errs"
	"fwimport/internal/fieldspec"
)

// Mode selects how spec names are matched against data file names.
type Mode int

const (
	Substring Mode = iota
	Prefix
)

func (m Mode) String() string {
	switch m {
	case Substring:
		return "substring"
	case Prefix:
		return "prefix"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a config value to a Mode. The empty string is Substring.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "substring":
		return Substring, nil
	case "prefix":
		return Prefix, nil
	default:
		return Substring, fmt.Errorf("unknown match mode %q (want substring or prefix)", s)
	}
}

// Pairing is one spec file and the data files it claims, in listing order.
type Pairing struct {
	SpecPath  string
	Table     string
	DataPaths []string
}

// Result is the outcome of matching one directory listing.
type Result struct {
	Pairings []Pairing

	// Unclaimed lists data files no spec claimed.
	Unclaimed []string

	// Shared maps a data file claimed by more than one spec to those specs.
	// It can only be non-empty in Substring mode.
	Shared map[string][]string
}

// Claims reports whether a data file name claims the spec named table.
func (m Mode) Claims(table, dataPath string) bool {
	name := filepath.Base(dataPath)
	if m == Substring {
		return strings.Contains(name, table)
	}
	if !strings.HasPrefix(name, table) {
		return false
	}
	if len(name) == len(table) {
		return true
	}
	switch name[len(table)] {
	case '_', '-', '.':
		return true
	}
	return false
}

// Match builds one Pairing per spec file, in the order given. No specs yield
// an empty result. In Prefix mode a data file claimed by several specs is a
// KindConfiguration error.
func Match(specs, data []string, mode Mode) (Result, error) {
	res := Result{Shared: map[string][]string{}}
	claimedBy := map[string][]string{}

	for _, sp := range specs {
		p := Pairing{SpecPath: sp, Table: fieldspec.TableName(sp)}
		for _, d := range data {
			if mode.Claims(p.Table, d) {
				p.DataPaths = append(p.DataPaths, d)
				claimedBy[d] = append(claimedBy[d], sp)
			}
		}
		res.Pairings = append(res.Pairings, p)
	}

	var ambiguous []string
	for _, d := range data {
		switch owners := claimedBy[d]; {
		case len(owners) == 0:
			res.Unclaimed = append(res.Unclaimed, d)
		case len(owners) > 1:
			res.Shared[d] = owners
			ambiguous = append(ambiguous, fmt.Sprintf("%s claimed by %s", filepath.Base(d), baseNames(owners)))
		}
	}
	if mode == Prefix && len(ambiguous) > 0 {
		return Result{}, errs.E(errs.KindConfiguration, "match",
			fmt.Errorf("ambiguous data files: %s", strings.Join(ambiguous, "; ")))
	}
	return res, nil
}

// Exclusive checks that jobs built from res can run concurrently: no two
// specs target the same table and no data file is shared. Violations are
// KindConfiguration errors.
func Exclusive(res Result) error {
	var problems []string

	byTable := map[string][]string{}
	for _, p := range res.Pairings {
		key := strings.ToLower(p.Table)
		byTable[key] = append(byTable[key], p.SpecPath)
	}
	tables := make([]string, 0, len(byTable))
	for t := range byTable {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		if specs := byTable[t]; len(specs) > 1 {
			problems = append(problems, fmt.Sprintf("table %s targeted by %s", t, baseNames(specs)))
		}
	}

	shared := make([]string, 0, len(res.Shared))
	for d := range res.Shared {
		shared = append(shared, d)
	}
	sort.Strings(shared)
	for _, d := range shared {
		problems = append(problems, fmt.Sprintf("%s claimed by %s", filepath.Base(d), baseNames(res.Shared[d])))
	}

	if len(problems) == 0 {
		return nil
	}
	return errs.E(errs.KindConfiguration, "parallel jobs",
		fmt.Errorf("jobs are not independent: %s", strings.Join(problems, "; ")))
}

func baseNames(paths []string) string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return strings.Join(out, ", ")
}
