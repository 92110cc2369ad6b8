// Package rejects writes rows that could not be imported to a CSV file so
// they can be fixed and replayed.
package rejects

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Header is the first row of every rejects file.
var Header = []string{"table", "file", "line_number", "kind", "reason", "raw_line"}

// Entry is one rejected line.
type Entry struct {
	Table  string
	File   string
	Line   int
	Kind   string
	Reason string
	Raw    string
}

// Log is a CSV rejects file. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	f       *os.File
	w       *csv.Writer
	path    string
	reasons map[string]int
}

// FileName returns the rejects file name for a run.
func FileName(runID string) string { return "rejects-" + runID + ".csv" }

// Open creates dir if needed and a fresh rejects file for runID inside it,
// writing the header immediately.
func Open(dir, runID string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName(runID))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Log{f: f, w: w, path: path, reasons: map[string]int{}}, nil
}

// Path returns the file being written.
func (l *Log) Path() string { return l.path }

// Add appends one entry. A nil Log discards entries.
func (l *Log) Add(e Entry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reasons[e.Kind]++
	return l.w.Write([]string{e.Table, e.File, strconv.Itoa(e.Line), e.Kind, e.Reason, e.Raw})
}

// Counts returns the number of entries per kind.
func (l *Log) Counts() map[string]int {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.reasons))
	for k, v := range l.reasons {
		out[k] = v
	}
	return out
}

// Close flushes and closes the file.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		_ = l.f.Close()
		return err
	}
	return l.f.Close()
}
