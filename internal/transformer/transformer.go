// Package transformer turns raw fixed-width values into values the storage
// layer can bind, according to each column's declared type.
package transformer

import "fwimport/internal/fieldspec"

// FieldValue is one parsed cell: the trimmed raw text and the declared type
// of its column.
type FieldValue struct {
	Raw  string
	Type fieldspec.DeclaredType
}

// Record is one parsed line, holding exactly one FieldValue per column.
type Record []FieldValue

// NewRecord pairs raw values with the spec's declared types. values and
// types must have equal length.
func NewRecord(values []string, types []fieldspec.DeclaredType) Record {
	rec := make(Record, len(values))
	for i, v := range values {
		rec[i] = FieldValue{Raw: v, Type: types[i]}
	}
	return rec
}

// Raw returns the raw values of r in column order.
func (r Record) Raw() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Raw
	}
	return out
}
