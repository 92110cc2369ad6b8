package rejects

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

// TestOpen_CreatesDirFileAndHeader verifies that Open creates missing parent
// directories and writes the header row immediately.
func TestOpen_CreatesDirFileAndHeader(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "rejects", "nested")
	l, err := Open(dir, "run-1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	rows := readAll(t, filepath.Join(dir, "rejects-run-1.csv"))
	if len(rows) != 1 {
		t.Fatalf("expected exactly 1 row (header), got %d: %#v", len(rows), rows)
	}
	if !reflect.DeepEqual(rows[0], Header) {
		t.Fatalf("header mismatch\ngot : %#v\nwant: %#v", rows[0], Header)
	}
}

// TestAdd_WritesRowsAndCounts checks rows, quoting of raw lines and per-kind
// counts under concurrent writers.
func TestAdd_WritesRowsAndCounts(t *testing.T) {
	t.Parallel()

	l, err := Open(t.TempDir(), "run-2")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := "cast"
			if i%2 == 0 {
				kind = "statement"
			}
			_ = l.Add(Entry{Table: "t", File: "d.txt", Line: i + 1, Kind: kind, Reason: "bad", Raw: `a,"b"`})
		}(i)
	}
	wg.Wait()

	if got := l.Counts(); got["cast"] != 5 || got["statement"] != 5 {
		t.Fatalf("Counts() = %v, want 5 cast and 5 statement", got)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	rows := readAll(t, l.Path())
	if len(rows) != 11 {
		t.Fatalf("rows = %d, want 11", len(rows))
	}
	if rows[1][5] != `a,"b"` {
		t.Fatalf("raw_line = %q, want a,\"b\"", rows[1][5])
	}
}

func TestNilLogDiscards(t *testing.T) {
	t.Parallel()

	var l *Log
	if err := l.Add(Entry{Kind: "cast"}); err != nil {
		t.Fatalf("nil Add() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("nil Close() error = %v", err)
	}
}

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open for read: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("readall: %v", err)
	}
	return rows
}
