// Package watcher reports, debounced, when one file changes. It watches
// the file's directory rather than the file itself so saves that replace
// the file (editor swap files, write-then-rename) are still seen.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/tourscout/internal/log"
)

// Config holds watcher configuration options.
type Config struct {
	Path string
	// DebounceDur is how long the file must stay quiet before a change
	// is reported.
	DebounceDur time.Duration
}

// DefaultConfig returns the defaults for watching path.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		DebounceDur: 250 * time.Millisecond,
	}
}

// Watcher monitors one file for changes.
type Watcher struct {
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration

	changes  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error
}

// New creates a watcher. Nothing is watched until Start.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		fs:       fsw,
		path:     filepath.Clean(cfg.Path),
		debounce: cfg.DebounceDur,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives one value per
// quiet period following a burst of changes. Unread values do not queue
// up: at most one change is pending at a time.
func (w *Watcher) Start() (<-chan struct{}, error) {
	dir := filepath.Dir(w.path)
	if err := w.fs.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}
	go w.run()
	return w.changes, nil
}

// Stop ends watching. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
		w.stopErr = w.fs.Close()
	})
	return w.stopErr
}

func (w *Watcher) run() {
	var (
		timer  *time.Timer
		fire   <-chan time.Time // nil while no change is pending
		events int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.touches(ev) {
				continue
			}
			events++
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			log.Debug(log.CatConfig, "file changed", "path", w.path, "events", events)
			events = 0
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.WarnErr(log.CatConfig, "file watcher error", err, "path", w.path)
		}
	}
}

// touches reports whether ev writes or (re)creates the watched file.
func (w *Watcher) touches(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	return filepath.Clean(ev.Name) == w.path
}
