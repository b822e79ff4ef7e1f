// Package watcher invalidates the semantic index when the csv row file
// is changed by another process.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/handbook/internal/logger"
)

// DefaultDebounce coalesces bursts of events from one save.
const DefaultDebounce = 500 * time.Millisecond

// Invalidator is notified when the watched file changes.
type Invalidator interface {
	Invalidate()
}

// FileWatcher watches a single file through its parent directory, so that
// atomic replace-by-rename is observed.
type FileWatcher struct {
	path     string
	target   Invalidator
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
	done    chan struct{}
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *FileWatcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for path. It does nothing until Start.
func New(path string, target Invalidator, opts ...Option) *FileWatcher {
	w := &FileWatcher{
		path:     filepath.Clean(path),
		target:   target,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching until ctx is cancelled or Close is called.
func (w *FileWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("watcher: closed")
	}
	if w.watcher != nil {
		return errors.New("watcher: already started")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watcher: watch %s: %w", filepath.Dir(w.path), err)
	}
	w.watcher = fw

	go w.loop(ctx, fw)
	logger.Info("watching %s for changes", w.path)
	return nil
}

// Done is closed when the watch loop exits.
func (w *FileWatcher) Done() <-chan struct{} {
	return w.done
}

// Close stops watching. It is safe to call more than once.
func (w *FileWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher == nil {
		close(w.done)
		return nil
	}
	return w.watcher.Close()
}

func (w *FileWatcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fw.Close()
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("watcher: %s %s", event.Op, event.Name)
			if w.debounce == 0 {
				w.target.Invalidate()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			logger.Info("%s changed on disk, index invalidated", w.path)
			w.target.Invalidate()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher: %v", err)
		}
	}
}

func (w *FileWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
