// Package errs classifies failures raised while importing fixed-width files.
//
// Every error that crosses a job boundary carries a Kind so the runner, the
// report and the CLI can tell a bad configuration from a bad spec line, a bad
// row or a failed archive move without string matching.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the class of an import failure.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors that were never classified.
	KindUnknown Kind = iota
	// KindConfiguration is a missing or invalid setting; fatal at startup.
	KindConfiguration
	// KindSchemaParse is a malformed specification file; fatal to one job.
	KindSchemaParse
	// KindCast is a raw value that cannot be coerced to its declared type.
	KindCast
	// KindStatement is a failed INSERT for a single row.
	KindStatement
	// KindProvision is a failed catalog lookup or CREATE TABLE; fatal to one job.
	KindProvision
	// KindArchive is a failed move of a data file into the archive directory.
	KindArchive
	// KindIO is a data file that could not be read.
	KindIO
	// KindTransaction is a failed begin, savepoint or commit; fatal to one job.
	KindTransaction
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindSchemaParse:
		return "schema_parse"
	case KindCast:
		return "cast"
	case KindStatement:
		return "statement"
	case KindProvision:
		return "provision"
	case KindArchive:
		return "archive"
	case KindIO:
		return "io"
	case KindTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Path and Line are optional and locate the
// offending file and 1-based line when known.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Line int
	Err  error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Op != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Op)
	}
	if e.Path != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Path)
		if e.Line > 0 {
			fmt.Fprintf(&sb, ":%d", e.Line)
		}
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a classified error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// At builds a classified error located at path:line.
func At(kind Kind, op, path string, line int, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Line: line, Err: err}
}

// KindOf returns the Kind of the outermost *Error in err's chain, or
// KindUnknown when none is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
