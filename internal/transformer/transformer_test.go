package transformer

import (
	"reflect"
	"testing"

	"fwimport/internal/fieldspec"
)

func TestNewRecordPairsValuesWithTypes(t *testing.T) {
	t.Parallel()

	types := []fieldspec.DeclaredType{fieldspec.Text, fieldspec.Boolean, "DATE"}
	rec := NewRecord([]string{"Foonyor", "1", "2021-01-01"}, types)

	if len(rec) != 3 {
		t.Fatalf("len(rec) = %d, want 3", len(rec))
	}
	if rec[1] != (FieldValue{Raw: "1", Type: fieldspec.Boolean}) {
		t.Fatalf("rec[1] = %+v, want 1/BOOLEAN", rec[1])
	}
	if got, want := rec.Raw(), []string{"Foonyor", "1", "2021-01-01"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Raw() = %q, want %q", got, want)
	}
}

func TestNewRecordEmpty(t *testing.T) {
	t.Parallel()

	rec := NewRecord(nil, nil)
	if len(rec) != 0 || len(rec.Raw()) != 0 {
		t.Fatalf("NewRecord(nil) = %v, want empty", rec)
	}
}
