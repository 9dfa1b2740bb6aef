// Package watch observes a single directory for filesystem changes.
package watch

import (
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fsnotify/fsnotify"

	"github.com/warungdata/katalog/internal/obs"
)

const maxRewatchInterval = 30 * time.Second

// Watcher monitors one directory, non-recursively. Every raw filesystem event
// under it invokes onChange with no arguments; which file changed and how is
// deliberately not part of the contract. Coalescing bursts is the caller's
// concern.
type Watcher struct {
	dir      string
	onChange func()

	mu      sync.Mutex
	done    chan struct{}
	stopped bool
}

// New returns a watcher for dir. Nothing happens until Start.
func New(dir string, onChange func()) *Watcher {
	return &Watcher{dir: dir, onChange: onChange, done: make(chan struct{})}
}

// Start launches the watch loop in the background. A directory that is
// missing at start, or vanishes later, is retried with exponential backoff
// until it can be watched again or the watcher is stopped.
func (w *Watcher) Start() {
	go w.run()
}

// Stop ends monitoring. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	close(w.done)
}

func (w *Watcher) run() {
	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.MaxInterval = maxRewatchInterval

	for {
		select {
		case <-w.done:
			return
		default:
		}

		err := w.watchOnce(backoffCfg)
		if err == nil {
			return
		}

		sleep := backoffCfg.NextBackOff()
		if sleep == backoff.Stop {
			sleep = maxRewatchInterval
		}
		obs.Logger.Warn("watch_restart", "dir", w.dir, "error", err, "retry_in", sleep.String())
		select {
		case <-w.done:
			return
		case <-time.After(sleep):
		}
	}
}

// watchOnce holds one fsnotify session. It returns nil only when the watcher
// was stopped; any other exit is an error the run loop retries.
func (w *Watcher) watchOnce(backoffCfg *backoff.ExponentialBackOff) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	backoffCfg.Reset()
	obs.Logger.Info("watch_started", "dir", w.dir)

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return errors.New("event channel closed")
			}
			w.onChange()
			// Deleting or renaming the watched root kills the watch
			// silently; bail out so the run loop re-establishes it.
			if event.Name == w.dir && (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				return errors.New("watched directory removed")
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("error channel closed")
			}
			obs.Logger.Warn("watch_error", "dir", w.dir, "error", err)
		case <-w.done:
			return nil
		}
	}
}
