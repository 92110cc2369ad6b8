package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"fwimport/internal/archive"
	"fwimport/internal/config"
	"fwimport/internal/importer"
	"fwimport/internal/match"
	"fwimport/internal/metrics"
	"fwimport/internal/metrics/datadog"
	"fwimport/internal/metrics/prompush"
	"fwimport/internal/parser/fixedwidth"
	"fwimport/internal/pipeline"
	"fwimport/internal/storage"
)

// errJobsFailed is returned when the run completed but at least one job did
// not commit. main turns it into exit status 1.
var errJobsFailed = errors.New("one or more import jobs failed")

// app carries the state shared by every subcommand.
type app struct {
	cfgFile string
	cfg     config.Config
	log     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "fwimport",
		Short: "Import fixed-width data files into a database",
		Long: `fwimport pairs specification files (column name, width, type) with the
fixed-width data files named after them, creates each destination table when
missing, inserts every line and moves consumed data files to the archive
directory.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = newLogger(cmd.ErrOrStderr(), cfg.Log)
			slog.SetDefault(a.log)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "YAML config file")
	pf.BoolP("verbose", "v", false, "debug logging")
	config.BindFlags(pf)

	root.AddCommand(
		newRunCmd(a),
		newWatchCmd(a),
		newPlanCmd(a),
		newValidateCmd(a),
		newBackendsCmd(),
	)
	return root
}

func newLogger(w io.Writer, c config.Log) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// validate checks the configuration and logs every issue. Warnings are
// logged and do not fail. Issues at the skip paths are dropped.
func (a *app) validate(checkArchive bool, skip ...string) error {
	var issues []config.Issue
	for _, iss := range config.Validate(a.cfg, storage.ListKinds(), checkArchive) {
		if !slices.Contains(skip, iss.Path) {
			issues = append(issues, iss)
		}
	}
	for _, iss := range issues {
		if iss.Severity == config.SeverityError {
			a.log.Error("config", "path", iss.Path, "issue", iss.Message)
		} else {
			a.log.Warn("config", "path", iss.Path, "issue", iss.Message)
		}
	}
	return config.Err(issues)
}

// jobOptions builds the per-job template from the configuration.
func (a *app) jobOptions(withArchive bool) (importer.Options, error) {
	layout, err := fixedwidth.ParseLayout(a.cfg.Parse.Layout)
	if err != nil {
		return importer.Options{}, err
	}
	opts := importer.Options{
		Layout:   layout,
		Encoding: a.cfg.Parse.Encoding,
		Logger:   a.log,
	}
	if withArchive {
		opts.Archiver = archive.New(a.cfg.ArchiveDir())
	}
	return opts, nil
}

func (a *app) runner(repo storage.Repository) (*pipeline.Runner, error) {
	mode, err := match.ParseMode(a.cfg.Match.Mode)
	if err != nil {
		return nil, err
	}
	opts, err := a.jobOptions(true)
	if err != nil {
		return nil, err
	}
	return &pipeline.Runner{
		Repo:       repo,
		SpecsDir:   a.cfg.SpecsDir(),
		DataDir:    a.cfg.DataDir(),
		Mode:       mode,
		Workers:    a.cfg.Runtime.Workers,
		Job:        opts,
		RejectsDir: a.cfg.Rejects.Dir,
		Logger:     a.log,
	}, nil
}

// setupMetrics installs the configured metrics backend and returns the
// function that flushes it.
func (a *app) setupMetrics() func() {
	m := a.cfg.Metrics
	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case "pushgateway":
		b, err = prompush.NewBackend(m.Job, m.URL)
	case "datadog":
		addr := m.URL
		if addr == "" {
			addr = "localhost:8125"
		}
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "fwimport.",
			GlobalTags: []string{"job:" + m.Job},
		})
	case "", "none":
		a.log.Debug("metrics disabled")
		return func() {}
	default:
		a.log.Warn("unknown metrics backend; metrics disabled", "backend", m.Backend)
		return func() {}
	}
	if err != nil {
		a.log.Warn("metrics backend init failed; using nop", "backend", m.Backend, "err", err)
		return func() {}
	}
	a.log.Info("metrics enabled", "backend", m.Backend, "url", m.URL, "job", m.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			a.log.Warn("metrics flush failed", "err", err)
		}
	}
}

func printReport(w io.Writer, rep pipeline.Report) error {
	rep.Render(w)
	if rep.RejectsPath != "" {
		fmt.Fprintf(w, "rejected rows: %s\n", rep.RejectsPath)
	}
	if !rep.OK() {
		return fmt.Errorf("%w: %d of %d", errJobsFailed, rep.Failed(), len(rep.Results))
	}
	return nil
}
