package daemon

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jmylchreest/chime/internal/config"
)

// ConfigWatcher polls the config file's mtime and reloads it when it moves
// forward. A file that fails to load never replaces the current config.
type ConfigWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	configPath   string
	pollInterval time.Duration
	lastModTime  time.Time
	current      *config.Config

	onReload func(*config.Config)
	onError  func(error)

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewConfigWatcher creates a new ConfigWatcher for the config file at path.
// An empty path watches the default config location.
func NewConfigWatcher(path string, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = config.ConfigPath()
	}

	return &ConfigWatcher{
		logger:       logger,
		configPath:   path,
		pollInterval: config.DefaultPollInterval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *ConfigWatcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if interval > 0 {
		w.pollInterval = interval
	}
}

// SetReloadCallback registers fn to receive each successfully loaded config.
func (w *ConfigWatcher) SetReloadCallback(fn func(*config.Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// SetErrorCallback registers fn to receive load errors for a changed file.
func (w *ConfigWatcher) SetErrorCallback(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Start begins watching the config file for changes.
func (w *ConfigWatcher) Start(ctx context.Context, initialConfig *config.Config) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.current = initialConfig
	w.lastModTime, _ = w.modTime()

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	w.mu.Unlock()

	go w.watchLoop(ctx, interval)

	w.logger.Debug("config watcher started", "path", w.configPath, "interval", interval)
	return nil
}

// Stop stops watching the config file.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
	w.logger.Debug("config watcher stopped")
}

// GetCurrentConfig returns the current valid configuration.
func (w *ConfigWatcher) GetCurrentConfig() *config.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Path returns the watched config file path.
func (w *ConfigWatcher) Path() string {
	return w.configPath
}

func (w *ConfigWatcher) watchLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		close(w.doneCh)
	}()

	for {
		select {
		case <-ticker.C:
			w.poll()
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// modTime stats the config file. A missing file is not logged.
func (w *ConfigWatcher) modTime() (time.Time, bool) {
	info, err := os.Stat(w.configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Debug("failed to stat config file", "path", w.configPath, "error", err)
		}
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func (w *ConfigWatcher) poll() {
	mod, ok := w.modTime()
	if !ok {
		return
	}

	w.mu.Lock()
	if !mod.After(w.lastModTime) {
		w.mu.Unlock()
		return
	}
	w.lastModTime = mod
	onReload, onError := w.onReload, w.onError
	w.mu.Unlock()

	w.logger.Debug("config file changed", "path", w.configPath, "modTime", mod)

	cfg, err := config.LoadConfig(w.configPath)
	if err != nil {
		w.logger.Warn("ignoring invalid config", "path", w.configPath, "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.configPath)
	if onReload != nil {
		onReload(cfg)
	}
}
