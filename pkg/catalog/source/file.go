package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"matchbook-hq/matchbook/pkg/catalog"
)

// DefaultDebounce is how long the watcher waits after a change event before
// reloading, so editors that write in several steps trigger one reload.
const DefaultDebounce = 100 * time.Millisecond

// FileSource loads catalog snapshots from a yaml file or directory and can
// hot-reload them on change.
type FileSource struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	current  atomic.Pointer[catalog.Catalog]
}

// NewFileSource loads the initial snapshot from path.
func NewFileSource(path string, logger *slog.Logger) (*FileSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileSource{
		path:     path,
		debounce: DefaultDebounce,
		logger:   logger.With("component", "catalog.file"),
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	s.current.Store(cat)
	s.logger.Info("catalog loaded", "path", path, "version", cat.Version)
	return s, nil
}

// Snapshot returns the current immutable catalog.
func (s *FileSource) Snapshot() *catalog.Catalog {
	return s.current.Load()
}

// Reload re-reads the catalog from disk and swaps the snapshot. On failure
// the previous snapshot stays active.
func (s *FileSource) Reload() error {
	cat, err := catalog.LoadFile(s.path)
	if err != nil {
		return fmt.Errorf("reloading catalog: %w", err)
	}
	prev := s.current.Swap(cat)
	s.logger.Info("catalog reloaded",
		"version", cat.Version, "previous", prev.Version)
	return nil
}

// Watch blocks watching the catalog path for changes, reloading after the
// debounce interval, until the context is cancelled. Reload failures are
// logged and the last good snapshot stays active.
func (s *FileSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.path); err != nil {
		return fmt.Errorf("watching %s: %w", s.path, err)
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			if ext := filepath.Ext(event.Name); ext != ".yaml" && ext != ".yml" {
				continue
			}
			// Debounce: restart the timer on every event in the burst.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			if err := s.Reload(); err != nil {
				s.logger.Error("catalog reload failed, keeping previous snapshot", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("catalog watcher error", "error", err)
		}
	}
}
