// Package pipeline runs one pass over the intake directories: it lists the
// specification and data files, pairs them, runs an import job per pairing
// and reports per-table counts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fwimport/internal/datasource/file"
	"fwimport/internal/errs"
	"fwimport/internal/importer"
	"fwimport/internal/match"
	"fwimport/internal/rejects"
	"fwimport/internal/storage"
)

// ErrClaimedEarlier marks a failed job whose data file was archived by an
// earlier job of the same run. Only substring matching shares files.
var ErrClaimedEarlier = errors.New("data file archived by an earlier job")

// Runner discovers spec/data pairings and imports them.
type Runner struct {
	Repo     storage.Repository
	SpecsDir string
	DataDir  string
	Mode     match.Mode

	// Workers is the number of jobs run at once. Values above 1 require
	// every job to be independent (see match.Exclusive).
	Workers int

	// Job is the template for every job's options. RunID is filled in per run.
	Job importer.Options

	// RejectsDir, when set, receives one rejected-row log per run.
	RejectsDir string

	Logger *slog.Logger
}

// Run performs one pass. The returned error is a run-level failure
// (listing, matching, independence); job failures are reported in
// Report.Results and never stop sibling jobs.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	rep := Report{RunID: uuid.NewString(), Started: time.Now()}
	log = log.With("run_id", rep.RunID)

	specs, err := file.ListFiles(r.SpecsDir)
	if err != nil {
		return rep, errs.At(errs.KindConfiguration, "list specs", r.SpecsDir, 0, err)
	}
	if len(specs) == 0 {
		log.Info("no specification files; nothing to do", "dir", r.SpecsDir)
		rep.Duration = time.Since(rep.Started)
		return rep, nil
	}
	data, err := file.ListFiles(r.DataDir)
	if err != nil {
		return rep, errs.At(errs.KindConfiguration, "list data", r.DataDir, 0, err)
	}

	m, err := match.Match(specs, data, r.Mode)
	if err != nil {
		return rep, err
	}
	workers := max(r.Workers, 1)
	if workers > 1 {
		if err := match.Exclusive(m); err != nil {
			return rep, err
		}
	}
	for d, owners := range m.Shared {
		log.Warn("data file claimed by several specs", "file", d, "specs", len(owners))
	}
	rep.Unclaimed = m.Unclaimed
	if len(m.Unclaimed) > 0 {
		log.Info("data files without a spec", "count", len(m.Unclaimed))
	}

	log.Info("run started",
		"specs", len(specs),
		"data_files", len(data),
		"mode", r.Mode.String(),
		"workers", workers)

	opts := r.Job
	opts.RunID = rep.RunID
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if r.RejectsDir != "" {
		rl, err := rejects.Open(r.RejectsDir, rep.RunID)
		if err != nil {
			return rep, errs.At(errs.KindIO, "open rejects log", r.RejectsDir, 0, err)
		}
		defer func() {
			if err := rl.Close(); err != nil {
				log.Warn("close rejects log", "err", err)
			}
		}()
		opts.Rejects = rl
		rep.RejectsPath = rl.Path()
	}

	rep.Results = make([]importer.Result, len(m.Pairings))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, p := range m.Pairings {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				rep.Results[i] = importer.Result{Table: p.Table, SpecPath: p.SpecPath, DataFiles: p.DataPaths, Err: err}
				return nil
			}
			rep.Results[i] = importer.New(p.SpecPath, p.DataPaths, opts).Run(ctx, r.Repo)
			return nil
		})
	}
	_ = g.Wait()
	flagClaimedEarlier(log, rep.Results, m.Shared)

	rep.Tables = r.tableCounts(ctx, log, rep.Results)
	rep.Duration = time.Since(rep.Started)
	log.Info("run finished",
		"jobs", len(rep.Results),
		"failed", rep.Failed(),
		"elapsed", rep.Duration.Truncate(time.Millisecond))
	return rep, nil
}

// tableCounts reports, per table in job order, the rows imported this run
// and the table's total after the run.
func (r *Runner) tableCounts(ctx context.Context, log *slog.Logger, results []importer.Result) []TableReport {
	out := make([]TableReport, 0, len(results))
	for _, res := range results {
		tr := TableReport{
			Table:    res.Table,
			Files:    len(res.DataFiles),
			Imported: res.Inserted,
			Rejected: len(res.Rejected),
			Err:      res.Err,
		}
		var ce *claimedError
		if errors.As(res.Err, &ce) {
			tr.ClaimedBy = ce.by
		}
		if res.Err != nil {
			tr.Imported = 0
		}
		n, err := r.Repo.CountRows(ctx, res.Table)
		if err != nil {
			tr.Total = -1
			log.Debug("count rows failed", "table", res.Table, "err", err)
		} else {
			tr.Total = n
		}
		out = append(out, tr)
	}
	return out
}

// claimedError wraps the failure of a job that found a shared data file
// already archived by the job importing table by.
type claimedError struct {
	by  string
	err error
}

func (e *claimedError) Error() string {
	return fmt.Sprintf("%v (%s): %v", ErrClaimedEarlier, e.by, e.err)
}

func (e *claimedError) Unwrap() []error { return []error{ErrClaimedEarlier, e.err} }

// flagClaimedEarlier rewrites the io failures of jobs whose shared data files
// an earlier job in results archived. results is in execution order, which
// holds because shared files rule out parallel runs.
func flagClaimedEarlier(log *slog.Logger, results []importer.Result, shared map[string][]string) {
	if len(shared) == 0 {
		return
	}
	archivedBy := map[string]string{}
	for i := range results {
		res := &results[i]
		if errs.Is(res.Err, errs.KindIO) {
			for _, d := range res.DataFiles {
				if by, ok := archivedBy[d]; ok {
					res.Err = &claimedError{by: by, err: res.Err}
					log.Warn("data file was archived by an earlier job", "table", res.Table, "file", d, "archived_by", by)
					break
				}
			}
		}
		for _, mv := range res.Archived {
			if _, ok := shared[mv.From]; ok {
				archivedBy[mv.From] = res.Table
			}
		}
	}
}
