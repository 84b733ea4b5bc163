package pages

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/logfields"
)

// DefaultDebounce collapses editor save bursts into a single reload.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reloads a Repository when files in its directory change.
type Watcher struct {
	dir      string
	repo     *Repository
	watcher  *fsnotify.Watcher
	clock    clockwork.Clock
	debounce time.Duration
	onReload func(error)

	mu       sync.Mutex
	timer    clockwork.Timer
	stopChan chan struct{}
	stopped  bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherClock replaces the clock driving the debounce timer.
func WithWatcherClock(c clockwork.Clock) WatcherOption {
	return func(w *Watcher) { w.clock = c }
}

// OnReload registers a callback run after every reload attempt.
func OnReload(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher creates a watcher for dir feeding repo.
func NewWatcher(dir string, repo *Repository, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create file watcher").Build()
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		_ = fw.Close()
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve pages directory").
			WithContext("path", dir).
			Build()
	}

	w := &Watcher{
		dir:      absDir,
		repo:     repo,
		watcher:  fw,
		clock:    clockwork.NewRealClock(),
		debounce: DefaultDebounce,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. It returns once the directory is registered.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "watch pages directory").
			WithContext("path", w.dir).
			Build()
	}

	slog.Info("Watching pages directory", logfields.Path(w.dir))
	go w.watchLoop(ctx)
	return nil
}

// Stop ends watching and cancels a pending reload.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !IsPageFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("Page change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Pages watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = w.clock.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	w.timer = nil
	w.mu.Unlock()

	err := w.repo.Reload()
	if err != nil {
		slog.Error("Failed to reload pages", logfields.Path(w.dir), logfields.Error(err))
	} else {
		slog.Info("Pages reloaded", logfields.Path(w.dir), slog.Int("count", w.repo.Len()))
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}
