package transformer

import (
	"errors"
	"fmt"
	"strconv"

	"fwimport/internal/errs"
	"fwimport/internal/fieldspec"
)

// Cast converts v into a native Go value for a parameterized statement:
//
//	TEXT     -> string
//	BOOLEAN  -> bool, from the truthiness of the value parsed as an integer
//	INTEGER  -> int64, base-10
//	other    -> the raw string, left for the database to interpret
//
// Failures are KindCast errors.
func Cast(v FieldValue) (any, error) {
	switch v.Type.Canonical() {
	case fieldspec.Text:
		return v.Raw, nil
	case fieldspec.Boolean:
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				// Out of int64 range is still a non-zero integer.
				return true, nil
			}
			return nil, errs.E(errs.KindCast, "boolean", fmt.Errorf("%q is not an integer", v.Raw))
		}
		return n != 0, nil
	case fieldspec.Integer:
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return nil, errs.E(errs.KindCast, "integer", fmt.Errorf("%q is not a base-10 integer", v.Raw))
		}
		return n, nil
	default:
		return v.Raw, nil
	}
}

// Values casts every field of rec. The error names the failing column by
// its 0-based position.
func Values(rec Record) ([]any, error) {
	out := make([]any, len(rec))
	for i, f := range rec {
		v, err := Cast(f)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Literal renders v the way the original text-built statements did:
// TEXT single-quoted without escaping, BOOLEAN as true/false and everything
// else verbatim. It is used for printing plans only; the import path binds
// values from Cast instead.
func Literal(v FieldValue) (string, error) {
	switch v.Type.Canonical() {
	case fieldspec.Text:
		return "'" + v.Raw + "'", nil
	case fieldspec.Boolean:
		b, err := Cast(v)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b.(bool)), nil
	default:
		return v.Raw, nil
	}
}

// Literals renders every field of rec with Literal.
func Literals(rec Record) ([]string, error) {
	out := make([]string, len(rec))
	for i, f := range rec {
		s, err := Literal(f)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}
