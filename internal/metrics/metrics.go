// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from import runs.
//
// It exposes a narrow interface (Backend) for counters and timings and a
// global, pluggable backend that defaults to a no-op implementation, so
// metrics are always safe to call even when no real backend is configured.
// Concrete systems live in subpackages (prompush, datadog).
package metrics

import "time"

// Metric names emitted by the importer.
const (
	StepTotal           = "fwimport_step_total"
	StepDurationSeconds = "fwimport_step_duration_seconds"
	RecordsTotal        = "fwimport_records_total"
	JobsTotal           = "fwimport_jobs_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
// Call it before any job starts.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordStep records latency and outcome of one job step (load_spec,
// provision, insert, archive, commit) for a table.
func RecordStep(table, step string, err error, d time.Duration) {
	lbls := Labels{
		"table":  table,
		"step":   step,
		"status": status(err),
	}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given table and kind.
//
// Kinds mirror the job result fields:
//   - "parsed"
//   - "inserted"
//   - "blank"
//   - "cast_rejected"
//   - "statement_rejected"
func RecordRow(table, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"table": table,
		"kind":  kind,
	})
}

// RecordJob counts one finished job.
func RecordJob(table string, err error) {
	backend.IncCounter(JobsTotal, 1, Labels{
		"table":  table,
		"status": status(err),
	})
}
