package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

// Watcher monitors the settings file for changes using fsnotify with a
// polling fallback.
//
// The watcher is a wake-up mechanism only: the scheduler re-reads the
// settings file at the top of every tick regardless, the watcher just lets a
// GUI edit take effect immediately instead of on the next interval. It
// watches the file's parent directory rather than the file itself because
// the GUI saves via rename, which replaces the watched inode.
type Watcher struct {
	// path is the absolute path to the settings file being monitored.
	path string
	// events delivers a signal each time the settings file changes.
	// The channel is buffered to 1 so back-to-back saves coalesce.
	events chan struct{}
	// done is closed by [Watcher.Close] to signal goroutines to exit.
	done chan struct{}
	// fsw is the underlying fsnotify watcher; nil when polling.
	fsw *fsnotify.Watcher
	// once ensures [Watcher.Close] is idempotent.
	once sync.Once
	// polling is true when the watcher has fallen back to stat-based polling.
	polling atomic.Bool
	// pollInterval is the duration between stat calls in polling mode.
	pollInterval time.Duration
}

// NewWatcher creates a Watcher for the settings file at configPath.
// It uses fsnotify as the primary change detection mechanism and falls back
// to stat polling if fsnotify is unavailable.
func NewWatcher(configPath string) (*Watcher, error) {
	w := &Watcher{
		path:         configPath,
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: 2 * time.Second,
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Info("fsnotify unavailable, falling back to polling", "error", err)
		w.polling.Store(true)
		go w.poll()
		return w, nil
	}

	w.fsw = fsw
	if err := fsw.Add(filepath.Dir(configPath)); err != nil {
		slog.Info("cannot watch settings dir, falling back to polling", "path", configPath, "error", err)
		fsw.Close()
		w.fsw = nil
		w.polling.Store(true)
		go w.poll()
		return w, nil
	}

	go w.watch()
	return w, nil
}

// Polling reports whether the watcher is using polling instead of fsnotify.
func (w *Watcher) Polling() bool {
	return w.polling.Load()
}

// Events returns a channel that receives a signal when the settings file changes.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		if w.fsw != nil {
			if closeErr := w.fsw.Close(); closeErr != nil {
				err = fmt.Errorf("closing fsnotify watcher: %w", closeErr)
			}
		}
	})
	return err
}

// notify performs a non-blocking send on the events channel. A pending,
// undelivered event already represents the change, so drops are safe.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}

// watch loops over fsnotify events on the settings directory, forwarding
// write/create/rename notifications for the settings file to the events
// channel. If fsnotify errors, watch closes the native watcher and falls
// back to [Watcher.poll].
func (w *Watcher) watch() {
	base := filepath.Base(w.path)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			changed := event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
			if changed && filepath.Base(event.Name) == base {
				w.notify()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Info("fsnotify error, switching to polling", "error", err)
			w.fsw.Close()
			w.fsw = nil
			w.polling.Store(true)
			go w.poll()
			return
		}
	}
}

// poll periodically stats the settings file and sends a notification when
// the modification time advances.
func (w *Watcher) poll() {
	var lastMod time.Time
	if info, err := os.Stat(w.path); err == nil {
		lastMod = info.ModTime()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				w.notify()
			}
		}
	}
}
