package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitPass(t *testing.T, passes <-chan struct{}) {
	t.Helper()
	select {
	case <-passes:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for a pass")
	}
}

func TestWatcherRunsOnStartupAndAfterNewFiles(t *testing.T) {
	dir := t.TempDir()
	passes := make(chan struct{}, 8)

	w := &Watcher{
		Dirs:     []string{dir},
		Debounce: 150 * time.Millisecond,
		Pass: func(context.Context) error {
			passes <- struct{}{}
			return errors.New("failures are logged, not fatal")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitPass(t, passes)

	// A burst of files produces a single debounced pass.
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644))
	}
	waitPass(t, passes)

	select {
	case <-passes:
		t.Fatalf("burst triggered more than one pass")
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestWatcherMissingDir(t *testing.T) {
	w := &Watcher{Dirs: []string{filepath.Join(t.TempDir(), "missing")}, Pass: func(context.Context) error { return nil }}
	assert.Error(t, w.Run(context.Background()))
}

func TestRelevant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/d/a.txt", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/d/a.txt", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/d/a.txt", Op: fsnotify.Remove}, false},
		{fsnotify.Event{Name: "/d/a.txt", Op: fsnotify.Rename}, false},
		{fsnotify.Event{Name: "/d/.a.txt.tmp", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		if got := relevant(tt.ev); got != tt.want {
			t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
}
