package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fwimport/internal/datasource/file"
	"fwimport/internal/errs"
	"fwimport/internal/fieldspec"
	"fwimport/internal/importer"
	"fwimport/internal/match"
	"fwimport/internal/storage"
	"fwimport/internal/watch"
)

func (a *app) openRepo(ctx context.Context) (storage.Repository, error) {
	repo, err := storage.New(ctx, storage.Config{
		Kind:     a.cfg.Storage.Kind,
		DSN:      a.cfg.Storage.DSN,
		MaxConns: a.cfg.Storage.MaxConns,
	})
	if err != nil {
		return nil, errs.E(errs.KindConfiguration, "open storage", err)
	}
	return repo, nil
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Import every spec/data pairing once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.validate(true); err != nil {
				return err
			}
			ctx := cmd.Context()
			flush := a.setupMetrics()
			defer flush()

			repo, err := a.openRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			r, err := a.runner(repo)
			if err != nil {
				return err
			}
			rep, err := r.Run(ctx)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rep)
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	var debounce = watch.DefaultDebounce
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Import once, then again whenever files arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.validate(true); err != nil {
				return err
			}
			ctx := cmd.Context()
			flush := a.setupMetrics()
			defer flush()

			repo, err := a.openRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			r, err := a.runner(repo)
			if err != nil {
				return err
			}
			w := &watch.Watcher{
				Dirs:     []string{a.cfg.SpecsDir(), a.cfg.DataDir()},
				Debounce: debounce,
				Logger:   a.log,
				Pass: func(ctx context.Context) error {
					rep, err := r.Run(ctx)
					if err != nil {
						return err
					}
					if len(rep.Results) == 0 {
						return nil
					}
					perr := printReport(cmd.OutOrStdout(), rep)
					flush()
					return perr
				},
			}
			return w.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", debounce, "quiet period after the last file event")
	return cmd
}

func newPlanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the SQL a run would execute, without a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.validate(false, "storage.dsn", "storage.max_conns"); err != nil {
				return err
			}
			ctx := cmd.Context()
			d, err := storage.DialectFor(a.cfg.Storage.Kind)
			if err != nil {
				return errs.E(errs.KindConfiguration, "dialect", err)
			}
			pairings, err := a.pairings()
			if err != nil {
				return err
			}
			opts, err := a.jobOptions(false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, p := range pairings {
				plan, err := importer.New(p.SpecPath, p.DataPaths, opts).BuildPlan(ctx, d)
				if err != nil {
					a.log.Error("plan failed", "spec", p.SpecPath, "kind", errs.KindOf(err).String(), "err", err)
					failed++
					continue
				}
				if _, err := plan.WriteTo(out); err != nil {
					return err
				}
				for _, rr := range plan.Rejected {
					a.log.Warn("row would be rejected", "file", rr.File, "line", rr.Line, "err", rr.Err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errJobsFailed, failed, len(pairings))
			}
			return nil
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and every specification file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.validate(true); err != nil {
				return err
			}
			specs, err := file.ListFiles(a.cfg.SpecsDir())
			if err != nil {
				return errs.At(errs.KindConfiguration, "list specs", a.cfg.SpecsDir(), 0, err)
			}
			out := cmd.OutOrStdout()
			bad := 0
			for _, sp := range specs {
				spec, err := fieldspec.Load(sp)
				if err != nil {
					fmt.Fprintf(out, "FAIL %s: %v\n", sp, err)
					bad++
					continue
				}
				fmt.Fprintf(out, "ok   %s: table %s, %d columns\n", sp, spec.Table, len(spec.Columns))
			}
			if _, err := a.pairings(); err != nil {
				return err
			}
			if bad > 0 {
				return errs.E(errs.KindSchemaParse, "validate", fmt.Errorf("%d of %d specification files are invalid", bad, len(specs)))
			}
			fmt.Fprintln(out, "configuration is valid")
			return nil
		},
	}
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the registered storage kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, k := range storage.ListKinds() {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

// pairings lists and matches the configured directories.
func (a *app) pairings() ([]match.Pairing, error) {
	mode, err := match.ParseMode(a.cfg.Match.Mode)
	if err != nil {
		return nil, errs.E(errs.KindConfiguration, "match mode", err)
	}
	specs, err := file.ListFiles(a.cfg.SpecsDir())
	if err != nil {
		return nil, errs.At(errs.KindConfiguration, "list specs", a.cfg.SpecsDir(), 0, err)
	}
	data, err := file.ListFiles(a.cfg.DataDir())
	if err != nil {
		return nil, errs.At(errs.KindConfiguration, "list data", a.cfg.DataDir(), 0, err)
	}
	m, err := match.Match(specs, data, mode)
	if err != nil {
		return nil, err
	}
	if a.cfg.Runtime.Workers > 1 {
		if err := match.Exclusive(m); err != nil {
			return nil, err
		}
	}
	return m.Pairings, nil
}
