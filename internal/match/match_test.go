package match

import (
	"reflect"
	"strings"
	"testing"

	"fwimport/internal/errs"
)

func TestMatchSubstringLetsBothSpecsClaim(t *testing.T) {
	t.Parallel()

	specs := []string{"/s/a.spec", "/s/ab.spec"}
	data := []string{"/d/ab_2020.txt"}

	res, err := Match(specs, data, Substring)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	for _, p := range res.Pairings {
		if !reflect.DeepEqual(p.DataPaths, data) {
			t.Errorf("pairing %s DataPaths = %v, want %v", p.Table, p.DataPaths, data)
		}
	}
	if got := res.Shared["/d/ab_2020.txt"]; !reflect.DeepEqual(got, specs) {
		t.Fatalf("Shared = %v, want %v", got, specs)
	}
}

func TestMatchPrefixRejectsAmbiguity(t *testing.T) {
	t.Parallel()

	// "ab_2020" starts with neither "a_" nor equals "a", so only ab claims it.
	res, err := Match([]string{"/s/a.spec", "/s/ab.spec"}, []string{"/d/ab_2020.txt"}, Prefix)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(res.Pairings[0].DataPaths) != 0 || len(res.Pairings[1].DataPaths) != 1 {
		t.Fatalf("Pairings = %+v, want only ab to claim the file", res.Pairings)
	}

	_, err = Match([]string{"/s/report.csv", "/s/report.txt"}, []string{"/d/report_2020.txt"}, Prefix)
	if !errs.Is(err, errs.KindConfiguration) {
		t.Fatalf("Match(ambiguous) kind = %v, want configuration", errs.KindOf(err))
	}
	if !strings.Contains(err.Error(), "report_2020.txt") {
		t.Fatalf("error %q does not name the file", err)
	}
}

func TestModeClaims(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode  Mode
		table string
		data  string
		want  bool
	}{
		{Substring, "testformat1", "/data/testformat1_2015-06-28.txt", true},
		{Substring, "format", "/data/testformat1.txt", true},
		{Substring, "data", "/data/other.txt", false}, // directory is not part of the name
		{Prefix, "testformat1", "/data/testformat1_2015-06-28.txt", true},
		{Prefix, "testformat1", "/data/testformat1.txt", true},
		{Prefix, "testformat1", "/data/testformat1", true},
		{Prefix, "testformat1", "/data/testformat1-b.txt", true},
		{Prefix, "testformat", "/data/testformat1.txt", false},
		{Prefix, "format1", "/data/testformat1.txt", false},
	}
	for _, tt := range tests {
		if got := tt.mode.Claims(tt.table, tt.data); got != tt.want {
			t.Errorf("%v.Claims(%q, %q) = %v, want %v", tt.mode, tt.table, tt.data, got, tt.want)
		}
	}
}

func TestMatchNoSpecs(t *testing.T) {
	t.Parallel()

	res, err := Match(nil, []string{"/d/x.txt"}, Substring)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(res.Pairings) != 0 {
		t.Fatalf("Pairings = %v, want none", res.Pairings)
	}
	if !reflect.DeepEqual(res.Unclaimed, []string{"/d/x.txt"}) {
		t.Fatalf("Unclaimed = %v", res.Unclaimed)
	}
}

func TestExclusive(t *testing.T) {
	t.Parallel()

	ok := Result{Pairings: []Pairing{{SpecPath: "a.csv", Table: "a"}, {SpecPath: "b.csv", Table: "b"}}}
	if err := Exclusive(ok); err != nil {
		t.Fatalf("Exclusive(ok) error = %v", err)
	}

	dup := Result{Pairings: []Pairing{{SpecPath: "s1/a.csv", Table: "a"}, {SpecPath: "s2/A.txt", Table: "A"}}}
	err := Exclusive(dup)
	if !errs.Is(err, errs.KindConfiguration) || !strings.Contains(err.Error(), "table a") {
		t.Fatalf("Exclusive(dup) = %v, want configuration error naming table a", err)
	}

	shared := Result{Shared: map[string][]string{"/d/x.txt": {"x.csv", "x2.csv"}}}
	if err := Exclusive(shared); !errs.Is(err, errs.KindConfiguration) {
		t.Fatalf("Exclusive(shared) = %v, want configuration error", err)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Mode{"": Substring, "SUBSTRING": Substring, "prefix": Prefix} {
		if got, err := ParseMode(in); err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMode("regex"); err == nil {
		t.Errorf("ParseMode(regex) error = nil, want error")
	}
}
