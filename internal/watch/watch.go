// Package watch re-runs an import pass whenever files land in the watched
// directories.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a pass runs.
const DefaultDebounce = 2 * time.Second

// Watcher calls Pass once at start and again after every burst of file
// creations or writes in Dirs. Passes never overlap.
type Watcher struct {
	Dirs     []string
	Debounce time.Duration
	Pass     func(ctx context.Context) error
	Logger   *slog.Logger
}

// Run blocks until ctx is cancelled, returning nil in that case. A failing
// pass is logged and does not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.Logger
	if log == nil {
		log = slog.Default()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fw.Close()
	for _, dir := range w.Dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}
	log.Info("watching", "dirs", w.Dirs, "debounce", debounce)

	w.pass(ctx, log, "startup")

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("watch stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			log.Debug("file event", "op", ev.Op.String(), "file", ev.Name)
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(debounce)
			pending = true

		case <-timer.C:
			pending = false
			w.pass(ctx, log, "change")

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) pass(ctx context.Context, log *slog.Logger, reason string) {
	if err := w.Pass(ctx); err != nil {
		log.Error("pass failed", "reason", reason, "err", err)
	}
}

// relevant reports whether ev announces a new or changed visible file.
// Removals and renames away are what archiving produces and are ignored.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	return !strings.HasPrefix(filepath.Base(ev.Name), ".")
}
