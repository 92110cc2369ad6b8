package importer

import (
	"time"

	"fwimport/internal/archive"
	"fwimport/internal/errs"
)

// RowResult describes one data line that was read but not inserted.
type RowResult struct {
	File string
	Line int // 1-based physical line
	Raw  string
	Err  error // KindCast or KindStatement
}

// FileResult counts the lines of one data file.
type FileResult struct {
	Path     string
	Lines    int64
	Blank    int64
	Parsed   int64
	Inserted int64
	Rejected int64
}

// Result is the typed outcome of one import job.
type Result struct {
	Table        string
	SpecPath     string
	DataFiles    []string
	CreatedTable bool

	Files    []FileResult
	Parsed   int64
	Inserted int64
	Blank    int64
	Rejected []RowResult

	// Archived lists the moves that are in effect after the job.
	Archived []archive.Move

	// Err is the job-level failure, nil when the job committed. Rejected rows
	// alone never set Err.
	Err error

	// Partial reports that undoing a failed job left files out of place: some
	// archive moves could not be reverted.
	Partial bool

	Duration time.Duration
}

// OK reports whether the job committed.
func (r Result) OK() bool { return r.Err == nil }

// RejectedCount returns the number of rejected rows of the given kind.
func (r Result) RejectedCount(kind errs.Kind) int {
	n := 0
	for _, rr := range r.Rejected {
		if errs.Is(rr.Err, kind) {
			n++
		}
	}
	return n
}
