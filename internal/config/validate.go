package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"fwimport/internal/errs"
	"fwimport/internal/match"
	"fwimport/internal/parser/fixedwidth"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a problem worth surfacing that does not block
	// execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is the dotted configuration key (e.g. "storage.kind",
// "paths.archive"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static checks over cfg. kinds lists the registered
// storage kinds. Directories are checked on disk; checkArchive is false for
// commands that never move files.
func Validate(cfg Config, kinds []string, checkArchive bool) []Issue {
	var issues []Issue
	issues = append(issues, validateTarget(cfg.Target)...)
	issues = append(issues, validateStorage(cfg.Storage, kinds)...)
	issues = append(issues, validatePaths(cfg, checkArchive)...)
	issues = append(issues, validateParse(cfg.Parse)...)
	issues = append(issues, validateRuntime(cfg)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	issues = append(issues, validateLog(cfg.Log)...)
	return issues
}

// Err folds the error-severity issues into a single configuration error.
// It returns nil when there are none.
func Err(issues []Issue) error {
	var list []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			list = append(list, iss)
		}
	}
	if len(list) == 0 {
		return nil
	}
	return errs.E(errs.KindConfiguration, "validate", errors.Join(list...))
}

func validateTarget(target string) []Issue {
	switch target {
	case "", "development", "testing":
		return nil
	}
	return []Issue{{
		Severity: SeverityError,
		Path:     "target",
		Message:  fmt.Sprintf("unknown target %q; want development or testing", target),
	}}
}

func validateStorage(s Storage, kinds []string) []Issue {
	var issues []Issue

	kind := strings.TrimSpace(s.Kind)
	switch {
	case kind == "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
	case !slices.Contains(kinds, kind):
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unsupported storage kind %q; registered: %s", kind, strings.Join(kinds, ", ")),
		})
	}

	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "no DSN given; set storage.dsn or the RDS_* variables",
		})
	}
	if s.MaxConns < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.max_conns",
			Message:  "max_conns must be >= 0",
		})
	}
	return issues
}

func validatePaths(cfg Config, checkArchive bool) []Issue {
	var issues []Issue
	dirs := []struct {
		path  string
		value string
	}{
		{"paths.specs", cfg.SpecsDir()},
		{"paths.data", cfg.DataDir()},
	}
	if checkArchive {
		dirs = append(dirs, struct {
			path  string
			value string
		}{"paths.archive", cfg.ArchiveDir()})
	}
	for _, d := range dirs {
		if d.value == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     d.path,
				Message:  d.path + " must not be empty",
			})
			continue
		}
		fi, err := os.Stat(d.value)
		switch {
		case err != nil:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     d.path,
				Message:  fmt.Sprintf("directory %s: %v", d.value, err),
			})
		case !fi.IsDir():
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     d.path,
				Message:  fmt.Sprintf("%s is not a directory", d.value),
			})
		}
	}
	return issues
}

func validateParse(p Parse) []Issue {
	var issues []Issue
	if _, err := fixedwidth.ParseLayout(p.Layout); err != nil {
		issues = append(issues, Issue{Severity: SeverityError, Path: "parse.layout", Message: err.Error()})
	}
	if _, err := fixedwidth.LookupEncoding(p.Encoding); err != nil {
		issues = append(issues, Issue{Severity: SeverityError, Path: "parse.encoding", Message: err.Error()})
	}
	return issues
}

func validateRuntime(cfg Config) []Issue {
	var issues []Issue

	mode, err := match.ParseMode(cfg.Match.Mode)
	if err != nil {
		issues = append(issues, Issue{Severity: SeverityError, Path: "match.mode", Message: err.Error()})
	}
	if cfg.Runtime.Workers < 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.workers",
			Message:  fmt.Sprintf("workers must be >= 1, got %d", cfg.Runtime.Workers),
		})
	}
	if err == nil && cfg.Runtime.Workers > 1 && mode != match.Prefix {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.workers",
			Message:  "parallel workers require match.mode=prefix so no data file is claimed twice",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none", "datadog":
		return nil
	case "pushgateway":
		if strings.TrimSpace(m.URL) == "" {
			return []Issue{{Severity: SeverityError, Path: "metrics.url", Message: "pushgateway backend requires metrics.url"}}
		}
		return nil
	default:
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics are disabled", m.Backend),
		}}
	}
}

func validateLog(l Log) []Issue {
	var issues []Issue
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, Issue{Severity: SeverityWarning, Path: "log.level", Message: fmt.Sprintf("unknown log level %q; using info", l.Level)})
	}
	switch strings.ToLower(l.Format) {
	case "", "text", "json":
	default:
		issues = append(issues, Issue{Severity: SeverityWarning, Path: "log.format", Message: fmt.Sprintf("unknown log format %q; using text", l.Format)})
	}
	return issues
}
