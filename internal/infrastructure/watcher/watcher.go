// Package watcher notifies when the persisted coverage file changes, driving
// watch mode's report regeneration.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the accumulated coverage file for rewrites.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	target   string
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce duration for change events. Combine saves
// arrive in bursts, one per completed spec.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New creates a watcher for the given coverage file. The containing
// directory is watched so the file may not exist yet.
func New(storePath string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		debounce: 500 * time.Millisecond,
		target:   filepath.Clean(storePath),
	}
	for _, opt := range opts {
		opt(w)
	}

	dir := filepath.Dir(w.target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events returns a channel that emits when the coverage file is rewritten.
// The channel is debounced to avoid a report per combine call.
func (w *Watcher) Events(ctx context.Context) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		var timer *time.Timer
		var timerCh <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !isWriteEvent(event.Op) {
					continue
				}
				if filepath.Clean(event.Name) != w.target {
					continue
				}

				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C

			case <-timerCh:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
				timerCh = nil

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				_ = err
			}
		}
	}()

	return out
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func isWriteEvent(op fsnotify.Op) bool {
	return op&fsnotify.Write == fsnotify.Write ||
		op&fsnotify.Create == fsnotify.Create
}
