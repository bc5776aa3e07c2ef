package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig contains configuration for the profile file watcher.
type WatcherConfig struct {
	// Path is the file or directory to watch.
	Path string

	// DebounceInterval is the quiet period required after a change
	// before a reload fires. Default: 100ms.
	DebounceInterval time.Duration
}

// Watcher watches profile files and triggers re-syncs on change.
// Rapid edit bursts are debounced into a single reload.
type Watcher struct {
	watcher  *fsnotify.Watcher
	config   *WatcherConfig
	logger   *slog.Logger
	debounce *debouncer

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a profile file watcher.
func NewWatcher(config *WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if config == nil || config.Path == "" {
		return nil, fmt.Errorf("watcher path not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	interval := config.DebounceInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fsw,
		config:   config,
		logger:   logger.With("component", "profile.watcher"),
		debounce: newDebouncer(interval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks processing file events until the context is canceled
// or Stop is called. onChange is invoked after each debounced change;
// its error is logged, not fatal.
func (w *Watcher) Watch(ctx context.Context, onChange func() error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.watcher.Add(w.config.Path); err != nil {
		return fmt.Errorf("watch %q: %w", w.config.Path, err)
	}

	w.logger.Info("profile watcher started", "path", w.config.Path)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("profile watcher stopped")
			return nil

		case <-w.stopCh:
			w.logger.Info("profile watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !shouldProcess(event) {
				continue
			}

			w.logger.Debug("profile file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			w.debounce.trigger(func() {
				if err := onChange(); err != nil {
					w.logger.Error("profile reload failed", "error", err)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("profile watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.debounce.stop()
	return w.watcher.Close()
}

func shouldProcess(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	return ext == ".yaml" || ext == ".yml"
}

// debouncer collapses rapid events into a single callback after a
// quiet period.
type debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		cb := d.callback
		stopped := d.stopped
		d.mu.Unlock()

		if cb != nil && !stopped {
			cb()
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
