// Package importer runs one import job: a specification file and the data
// files matched to it, imported as a single unit of work.
//
// A job is strictly ordered: load the spec, open a transaction, create the
// table if it is missing (before the transaction on backends whose DDL
// commits implicitly), parse and insert every line of every data file in
// the order given, move the data files into the archive directory, commit.
// A line that cannot be cast or inserted is rejected and recorded; its
// siblings continue. Any other failure aborts the job: the transaction is
// rolled back and files already archived are moved back.
package importer

import (
	"context"
	"log/slog"
	"time"

	"fwimport/internal/archive"
	"fwimport/internal/datasource/file"
	"fwimport/internal/ddl"
	"fwimport/internal/errs"
	"fwimport/internal/fieldspec"
	"fwimport/internal/metrics"
	"fwimport/internal/parser/fixedwidth"
	"fwimport/internal/rejects"
	"fwimport/internal/storage"
	"fwimport/internal/transformer"
)

// defaultProgressEvery is the row interval between progress log lines.
const defaultProgressEvery = 10000

// Options configures a Job.
type Options struct {
	Layout   fixedwidth.Layout
	Encoding string

	// Archiver moves consumed data files. nil leaves them in place.
	Archiver *archive.Archiver

	// Rejects receives every rejected line. nil discards them.
	Rejects *rejects.Log

	Logger *slog.Logger
	RunID  string

	// ProgressEvery logs insert progress every N rows; zero means 10000.
	ProgressEvery int
}

// Job imports one spec file and its data files.
type Job struct {
	SpecPath  string
	DataPaths []string
	opts      Options
}

// New returns a Job for the spec at specPath and the given data files.
func New(specPath string, dataPaths []string, opts Options) *Job {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = defaultProgressEvery
	}
	return &Job{SpecPath: specPath, DataPaths: dataPaths, opts: opts}
}

// Run executes the job against repo. It never panics on bad input and always
// returns a Result; job-level failures are reported in Result.Err.
func (j *Job) Run(ctx context.Context, repo storage.Repository) Result {
	start := time.Now()
	res := Result{
		Table:     fieldspec.TableName(j.SpecPath),
		SpecPath:  j.SpecPath,
		DataFiles: j.DataPaths,
	}
	log := j.opts.Logger.With("run_id", j.opts.RunID, "table", res.Table, "spec", j.SpecPath)

	res.Err = j.run(ctx, repo, log, &res)
	res.Duration = time.Since(start)

	metrics.RecordJob(res.Table, res.Err)
	metrics.RecordRow(res.Table, "parsed", res.Parsed)
	metrics.RecordRow(res.Table, "inserted", res.Inserted)
	metrics.RecordRow(res.Table, "blank", res.Blank)
	metrics.RecordRow(res.Table, "cast_rejected", int64(res.RejectedCount(errs.KindCast)))
	metrics.RecordRow(res.Table, "statement_rejected", int64(res.RejectedCount(errs.KindStatement)))

	if res.Err != nil {
		log.Error("job failed",
			"kind", errs.KindOf(res.Err).String(),
			"err", res.Err,
			"partial", res.Partial,
			"elapsed", res.Duration.Truncate(time.Millisecond))
	} else {
		log.Info("job committed",
			"created_table", res.CreatedTable,
			"parsed", res.Parsed,
			"inserted", res.Inserted,
			"rejected", len(res.Rejected),
			"blank", res.Blank,
			"files", len(res.DataFiles),
			"elapsed", res.Duration.Truncate(time.Millisecond))
	}
	return res
}

func (j *Job) run(ctx context.Context, repo storage.Repository, log *slog.Logger, res *Result) error {
	t0 := time.Now()
	spec, err := fieldspec.Load(j.SpecPath)
	metrics.RecordStep(res.Table, "load_spec", err, time.Since(t0))
	if err != nil {
		return err
	}

	parser, err := fixedwidth.New(spec.Widths(), fixedwidth.Options{Layout: j.opts.Layout, Encoding: j.opts.Encoding})
	if err != nil {
		return errs.At(errs.KindConfiguration, "parser", j.SpecPath, 0, err)
	}

	d := repo.Dialect()
	if d.DDLAutoCommits {
		t0 = time.Now()
		res.CreatedTable, err = storage.Provision(ctx, repo, spec)
		metrics.RecordStep(res.Table, "provision", err, time.Since(t0))
		if err != nil {
			return err
		}
	}

	tx, err := repo.Begin(ctx)
	if err != nil {
		return errs.E(errs.KindTransaction, "begin", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			log.Warn("rollback failed", "err", rbErr)
		}
	}()

	if !d.DDLAutoCommits {
		t0 = time.Now()
		res.CreatedTable, err = storage.EnsureTable(ctx, tx, d, spec)
		metrics.RecordStep(res.Table, "provision", err, time.Since(t0))
		if err != nil {
			return err
		}
	}
	if res.CreatedTable {
		log.Info("created table", "columns", len(spec.Columns))
	}

	t0 = time.Now()
	err = j.insertAll(ctx, tx, d, spec, parser, log, res)
	metrics.RecordStep(res.Table, "insert", err, time.Since(t0))
	if err != nil {
		return err
	}

	if j.opts.Archiver != nil {
		t0 = time.Now()
		moves, err := j.opts.Archiver.MoveAll(ctx, j.DataPaths)
		metrics.RecordStep(res.Table, "archive", err, time.Since(t0))
		if err != nil {
			// The deferred rollback discards the inserts.
			j.restore(moves, log, res)
			return err
		}
		res.Archived = moves
	}

	t0 = time.Now()
	err = tx.Commit(ctx)
	metrics.RecordStep(res.Table, "commit", err, time.Since(t0))
	if err != nil {
		committed = true // a failed commit cannot be rolled back
		j.restore(res.Archived, log, res)
		res.Archived = nil
		return errs.E(errs.KindTransaction, "commit", err)
	}
	committed = true
	return nil
}

// restore moves archived files back to the data directory after a failure.
func (j *Job) restore(moves []archive.Move, log *slog.Logger, res *Result) {
	if len(moves) == 0 {
		return
	}
	if err := j.opts.Archiver.Restore(moves); err != nil {
		res.Partial = true
		log.Error("restore of archived files failed", "err", err)
		return
	}
	log.Warn("archived files restored", "files", len(moves))
}

func (j *Job) insertAll(
	ctx context.Context,
	tx storage.Tx,
	d ddl.Dialect,
	spec fieldspec.Spec,
	parser *fixedwidth.Parser,
	log *slog.Logger,
	res *Result,
) error {
	columns := spec.Names()
	types := spec.Types()

	var (
		start     = time.Now()
		lastTS    = start
		lastCount int64
	)
	progress := func() {
		now := time.Now()
		since := now.Sub(lastTS)
		rps := float64(0)
		if since > 0 {
			rps = float64(res.Inserted-lastCount) / since.Seconds()
		}
		log.Info("insert progress",
			"inserted", res.Inserted,
			"rejected", len(res.Rejected),
			"rps", int64(rps),
			"elapsed", now.Sub(start).Truncate(time.Millisecond))
		lastTS, lastCount = now, res.Inserted
	}

	for _, path := range j.DataPaths {
		fr := FileResult{Path: path}

		reject := func(line fixedwidth.Line, rowErr error) error {
			fr.Rejected++
			res.Rejected = append(res.Rejected, RowResult{File: path, Line: line.Number, Raw: line.Raw, Err: rowErr})
			log.Debug("row rejected", "file", path, "line", line.Number, "err", rowErr)
			return j.opts.Rejects.Add(rejects.Entry{
				Table:  spec.Table,
				File:   path,
				Line:   line.Number,
				Kind:   errs.KindOf(rowErr).String(),
				Reason: rowErr.Error(),
				Raw:    line.Raw,
			})
		}

		rc, err := file.NewLocal(path).Open(ctx)
		if err != nil {
			return errs.E(errs.KindIO, "open data file", err)
		}

		st, err := parser.Each(ctx, rc, func(line fixedwidth.Line) error {
			fr.Parsed++
			if line.Err != nil {
				return reject(line, errs.At(errs.KindCast, "decode", path, line.Number, line.Err))
			}
			vals, err := transformer.Values(transformer.NewRecord(line.Values, types))
			if err != nil {
				return reject(line, errs.At(errs.KindCast, "cast", path, line.Number, err))
			}
			if err := storage.InsertRow(ctx, tx, d, spec.Table, columns, vals); err != nil {
				if errs.Is(err, errs.KindStatement) {
					return reject(line, errs.At(errs.KindStatement, "insert", path, line.Number, err))
				}
				return errs.At(errs.KindTransaction, "insert", path, line.Number, err)
			}
			fr.Inserted++
			res.Inserted++
			if res.Inserted%int64(j.opts.ProgressEvery) == 0 {
				progress()
			}
			return nil
		})
		_ = rc.Close()

		fr.Lines, fr.Blank = int64(st.Lines), int64(st.Blank)
		res.Files = append(res.Files, fr)
		res.Parsed += fr.Parsed
		res.Blank += fr.Blank

		if err != nil {
			if errs.KindOf(err) != errs.KindUnknown {
				return err
			}
			return errs.At(errs.KindIO, "read data file", path, 0, err)
		}
		log.Debug("data file parsed", "file", path, "lines", fr.Lines, "inserted", fr.Inserted, "rejected", fr.Rejected, "blank", fr.Blank)
	}
	return nil
}
