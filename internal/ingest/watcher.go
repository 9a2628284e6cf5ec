package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"pickwire/pkg/logger"
)

// Default watcher configuration constants.
const (
	defaultDebounce = 500 * time.Millisecond
)

// Watcher observes the feed drop file and invokes a callback after each
// replacement. The nightly fetch collaborator swaps the file in with an
// atomic rename, which fsnotify reports as Create/Rename on the parent
// directory, so the watch is on the directory and filtered by name.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context)

	fw  *fsnotify.Watcher
	log logger.Logger
}

// WatcherOption applies a configuration option to the Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period collapsing bursts of fs events into a
// single refresh.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for path. onChange runs on the watcher
// goroutine after each debounced change.
func NewWatcher(path string, onChange func(ctx context.Context), opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		path:     path,
		debounce: defaultDebounce,
		onChange: onChange,
		fw:       fw,
		log:      logger.Get().Named("feed-watcher"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run consumes fs events until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time

	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn(ctx, "fs watch error", logger.Error(err))
		case <-fire:
			fire = nil
			w.log.Info(ctx, "feed file changed", logger.String("path", w.path))
			w.onChange(ctx)
		}
	}
}

// Close releases the underlying fs watcher.
func (w *Watcher) Close() error {
	if err := w.fw.Close(); err != nil {
		return fmt.Errorf("close fs watcher: %w", err)
	}
	return nil
}
