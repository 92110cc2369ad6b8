package importer

import (
	"context"
	"io"
	"strings"

	"fwimport/internal/datasource/file"
	"fwimport/internal/ddl"
	"fwimport/internal/errs"
	"fwimport/internal/fieldspec"
	"fwimport/internal/parser/fixedwidth"
	"fwimport/internal/transformer"
)

// Plan is the SQL a job would run, rendered without touching a database.
type Plan struct {
	Table     string
	SpecPath  string
	CreateSQL string
	Inserts   []string
	Rejected  []RowResult
	Blank     int64
}

// WriteTo writes the plan as a SQL script, one statement per line.
func (p Plan) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	sb.WriteString("-- ")
	sb.WriteString(p.SpecPath)
	sb.WriteByte('\n')
	sb.WriteString(p.CreateSQL)
	sb.WriteByte('\n')
	for _, s := range p.Inserts {
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// BuildPlan renders the CREATE TABLE statement for d and one literal INSERT
// per data line. Lines that fail to cast are returned in Plan.Rejected.
func (j *Job) BuildPlan(ctx context.Context, d ddl.Dialect) (Plan, error) {
	spec, err := fieldspec.Load(j.SpecPath)
	if err != nil {
		return Plan{}, err
	}
	create, err := ddl.BuildCreateTableSQL(d, ddl.FromSpec(spec, d))
	if err != nil {
		return Plan{}, errs.At(errs.KindProvision, "build ddl", j.SpecPath, 0, err)
	}
	parser, err := fixedwidth.New(spec.Widths(), fixedwidth.Options{Layout: j.opts.Layout, Encoding: j.opts.Encoding})
	if err != nil {
		return Plan{}, errs.At(errs.KindConfiguration, "parser", j.SpecPath, 0, err)
	}

	plan := Plan{Table: spec.Table, SpecPath: j.SpecPath, CreateSQL: create}
	columns, types := spec.Names(), spec.Types()

	for _, path := range j.DataPaths {
		rc, err := file.NewLocal(path).Open(ctx)
		if err != nil {
			return plan, errs.E(errs.KindIO, "open data file", err)
		}
		st, err := parser.Each(ctx, rc, func(line fixedwidth.Line) error {
			if line.Err != nil {
				plan.Rejected = append(plan.Rejected, RowResult{File: path, Line: line.Number, Raw: line.Raw,
					Err: errs.At(errs.KindCast, "decode", path, line.Number, line.Err)})
				return nil
			}
			lits, err := transformer.Literals(transformer.NewRecord(line.Values, types))
			if err != nil {
				plan.Rejected = append(plan.Rejected, RowResult{File: path, Line: line.Number, Raw: line.Raw,
					Err: errs.At(errs.KindCast, "cast", path, line.Number, err)})
				return nil
			}
			plan.Inserts = append(plan.Inserts, ddl.LiteralInsertSQL(spec.Table, columns, lits))
			return nil
		})
		_ = rc.Close()
		plan.Blank += int64(st.Blank)
		if err != nil {
			return plan, errs.At(errs.KindIO, "read data file", path, 0, err)
		}
	}
	return plan, nil
}
