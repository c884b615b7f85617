// Package watch rebuilds the index when the record file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"resumerag/internal/logger"
)

// ReloadFunc reloads the record and rebuilds the index.
type ReloadFunc func(ctx context.Context) error

// Watcher calls a ReloadFunc after the watched file is written or replaced.
// Bursts of events within the debounce window trigger a single reload.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   ReloadFunc
}

// New creates a watcher for path.
func New(path string, debounce time.Duration, reload ReloadFunc) *Watcher {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{path: path, debounce: debounce, reload: reload}
}

// Run watches until ctx is done. The parent directory is watched so that
// editors that save by renaming a temp file over the target are seen.
func (w *Watcher) Run(ctx context.Context) error {
	target, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	logger.Debug("watching record", "path", target)

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !Relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(w.debounce)
			}
		case <-fire:
			if err := w.reload(ctx); err != nil {
				logger.Error("reload failed, keeping previous index", err, "path", target)
				continue
			}
			logger.Info("record reloaded", "path", target)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// Relevant reports whether ev may have changed the file's contents.
func Relevant(ev fsnotify.Event) bool {
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
