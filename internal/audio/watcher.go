package audio

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Invalidator drops cached sounds for a changed file.
type Invalidator interface {
	InvalidatePath(path string)
}

// Watcher watches sound directories and invalidates cached buffers when
// files in them change, so edited sounds are picked up without a restart.
type Watcher struct {
	mu      sync.Mutex
	logger  *slog.Logger
	target  Invalidator
	watcher *fsnotify.Watcher

	dirs    map[string]bool
	running bool
	doneCh  chan struct{}
}

// NewWatcher creates a watcher that invalidates entries in target.
func NewWatcher(target Invalidator, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		target:  target,
		watcher: fw,
		dirs:    make(map[string]bool),
		doneCh:  make(chan struct{}),
	}, nil
}

// WatchDir adds a directory to the watch list.
func (w *Watcher) WatchDir(dir string) error {
	if dir == "" {
		return nil
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dirs[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.dirs[dir] = true
	w.logger.Debug("watching sound directory", "dir", dir)
	return nil
}

// WatchFile watches the directory containing path. Watching the directory
// is more reliable than the file itself when editors replace files on save.
func (w *Watcher) WatchFile(path string) error {
	if path == "" {
		return nil
	}
	return w.WatchDir(filepath.Dir(path))
}

// Start begins processing file events.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	go w.watchLoop(ctx)

	w.logger.Debug("sound watcher started")
	return nil
}

// Stop stops the watcher and releases its file descriptors.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	err := w.watcher.Close()
	if running {
		<-w.doneCh
	}
	w.logger.Debug("sound watcher stopped")
	return err
}

// watchLoop is the main event loop.
func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Debug("sound file changed, invalidating cache", "path", event.Name, "op", event.Op.String())
				w.target.InvalidatePath(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("sound watcher error", "error", err)
		}
	}
}
