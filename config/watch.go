package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last file event.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a config file when it changes.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for path. The parent directory is watched
// so editors that replace the file are seen.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{path: path, debounce: DefaultDebounce, logger: logger, watcher: w}, nil
}

// SetDebounce overrides DefaultDebounce. Must be called before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run delivers each successfully reloaded config to fn until ctx is done.
// Parse failures are logged and the previous config stays in effect.
func (w *Watcher) Run(ctx context.Context, fn func(*Config)) error {
	defer w.watcher.Close()

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain the timer

	target := filepath.Clean(w.path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !relevant(event) {
				continue
			}
			w.logger.Debug("config: file change detected", "file", event.Name, "op", event.Op.String())
			debounceTimer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config: watcher error", "err", err)

		case <-debounceTimer.C:
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn("config: reload failed", "path", w.path, "err", err)
				continue
			}
			w.logger.Info("config: reloaded", "path", w.path)
			fn(cfg)

		case <-ctx.Done():
			debounceTimer.Stop()
			return ctx.Err()
		}
	}
}

// Watch is NewWatcher followed by Run.
func Watch(ctx context.Context, path string, logger *slog.Logger, fn func(*Config)) error {
	w, err := NewWatcher(path, logger)
	if err != nil {
		return err
	}
	return w.Run(ctx, fn)
}

func relevant(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}
