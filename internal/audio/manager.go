package audio

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/chime/internal/bundle"
	"github.com/jmylchreest/chime/internal/config"
	"github.com/jmylchreest/chime/internal/sound"
)

// Manager owns the sound player and the audio plumbing behind it, and keeps
// both in step with the configuration.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	config  *config.Config
	bundle  *bundle.Bundle
	backend *Backend
	session *Session
	player  *sound.Player
	watcher *Watcher

	otherAudio bool
}

// NewManager creates a manager for cfg. detect reports whether another
// application is playing audio; it is only consulted when the config asks
// for detection, and only once.
func NewManager(cfg *config.Config, detect func() bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	backend := NewBackend(cfg.Audio.SampleRate, logger)
	backend.SetVolume(cfg.Volume())

	m := &Manager{
		logger:  logger,
		config:  cfg,
		backend: backend,
		session: NewSession(backend, alertTone(cfg), logger),
	}

	switch cfg.Session.OtherAudio {
	case config.OtherAudioAssume:
		m.otherAudio = true
	case config.OtherAudioDetect:
		if detect != nil {
			m.otherAudio = detect()
		}
	}

	watcher, err := NewWatcher(backend, logger)
	if err != nil {
		logger.Warn("sound file watching disabled", "error", err)
	} else {
		m.watcher = watcher
	}

	m.buildPlayer()
	return m
}

// buildPlayer creates the bundle and player from the current config.
func (m *Manager) buildPlayer() {
	m.bundle = bundle.New(m.config.Audio.AssetsDir)

	otherAudio := m.otherAudio
	m.player = sound.NewPlayer(m.bundle, m.backend, m.session,
		sound.WithLogger(m.logger),
		sound.WithEnabled(m.config.Audio.Enabled),
		sound.WithOtherAudioDetector(func() bool { return otherAudio }),
	)
}

// Start preloads the configured sounds and starts the file watcher.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	loaded := m.preloadLocked()

	if m.watcher != nil {
		if err := m.watcher.Start(ctx); err != nil {
			return err
		}
	}

	m.logger.Info("audio manager started", "sounds", loaded, "other_audio", m.otherAudio)
	return nil
}

// preloadLocked decodes every category's sound and watches its directory.
func (m *Manager) preloadLocked() int {
	loaded := 0
	for _, c := range sound.Categories() {
		ref := m.config.SoundOverride(c.Title())
		if ref == "" {
			ref = c.DefaultAsset()
		}

		asset, err := m.bundle.Resolve(ref)
		if err != nil {
			m.logger.Warn("sound file not found", "category", c.String(), "ref", ref, "error", err)
			continue
		}
		if err := m.backend.Preload(asset); err != nil {
			m.logger.Warn("failed to preload sound", "category", c.String(), "asset", asset.Key, "error", err)
			continue
		}
		loaded++

		if m.watcher != nil && asset.Key == ref {
			if err := m.watcher.WatchFile(ref); err != nil {
				m.logger.Debug("not watching sound", "path", ref, "error", err)
			}
		}
	}

	if dir := m.bundle.Dir(); dir != "" && m.watcher != nil {
		if err := m.watcher.WatchDir(dir); err != nil {
			m.logger.Debug("not watching assets directory", "dir", dir, "error", err)
		}
	}
	return loaded
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watcher != nil {
		if err := m.watcher.Stop(); err != nil {
			m.logger.Debug("failed to stop sound watcher", "error", err)
		}
	}
	if err := m.player.Close(); err != nil {
		m.logger.Warn("failed to close player", "error", err)
	}
	m.session.Close()
	m.logger.Debug("audio manager stopped")
}

// Play plays the sound for category. An empty override falls back to the
// override configured for the category, then to the bundled default.
func (m *Manager) Play(ctx context.Context, category sound.Category, override string) sound.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if override == "" {
		override = m.config.SoundOverride(category.Title())
	}
	return m.player.Play(ctx, sound.NewRequest(category, override))
}

// Pause pauses the active sound.
func (m *Manager) Pause() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.player.Pause()
}

// Resume resumes a paused sound.
func (m *Manager) Resume() sound.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.player.Resume()
}

// StopSound stops the active sound.
func (m *Manager) StopSound() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.player.Stop()
}

// State returns the player state.
func (m *Manager) State() sound.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.player.State()
}

// Active returns the request behind the active sound, if any.
func (m *Manager) Active() (sound.Request, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, req, ok := m.player.Active()
	return req, ok
}

// Info reports the settings playback currently runs under.
func (m *Manager) Info() sound.Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := m.player.Info()
	info.Volume = m.backend.GetVolume()
	session := m.session.State()
	info.SessionActive = session.Active
	info.OutputPort = session.Port
	return info
}

// UpdateConfig applies a new configuration. The active sound is stopped and
// the player rebuilt; the other-audio flag captured at startup is kept.
// This is called when the config file is hot-reloaded.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg.Audio.SampleRate != m.config.Audio.SampleRate {
		m.logger.Warn("sample_rate change takes effect after restart",
			"current", m.config.Audio.SampleRate, "configured", cfg.Audio.SampleRate)
	}

	m.player.Stop()
	m.config = cfg
	m.backend.SetVolume(cfg.Volume())
	m.session.SetAlertTone(alertTone(cfg))
	m.backend.ClearCache()
	m.buildPlayer()
	m.preloadLocked()

	m.logger.Debug("audio manager config updated")
}

func alertTone(cfg *config.Config) AlertTone {
	return AlertTone{
		Frequency: cfg.Alert.Frequency,
		Duration:  cfg.Alert.Duration.Duration(),
	}
}
