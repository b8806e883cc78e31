package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/chime/internal/audio"
	"github.com/jmylchreest/chime/internal/config"
	"github.com/jmylchreest/chime/internal/dbus"
	"github.com/jmylchreest/chime/internal/sound"
)

// SoundManager is the audio side of the daemon. *audio.Manager satisfies it.
type SoundManager interface {
	dbus.Controller
	Start(ctx context.Context) error
	Stop()
	UpdateConfig(cfg *config.Config)
}

// Daemon ties the sound manager to the session bus and the config file.
type Daemon struct {
	mu     sync.Mutex
	logger *slog.Logger
	cfg    *config.Config
	ctx    context.Context

	manager  SoundManager
	server   *dbus.ControlServer
	monitor  *dbus.Monitor
	watcher  *ConfigWatcher
	notifier *InternalNotifier

	monitoring   bool
	forceMonitor bool
}

// New creates a daemon for cfg, which was loaded from configPath.
func New(cfg *config.Config, configPath string, logger *slog.Logger) *Daemon {
	manager := audio.NewManager(cfg, dbus.DetectOtherAudio(logger), logger)
	return newDaemon(cfg, configPath, manager, sendToSessionBus, logger)
}

func newDaemon(
	cfg *config.Config,
	configPath string,
	manager SoundManager,
	send func(*dbus.DBusNotification) error,
	logger *slog.Logger,
) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Daemon{
		logger:   logger,
		cfg:      cfg,
		ctx:      context.Background(),
		manager:  manager,
		server:   dbus.NewControlServer(manager, logger),
		monitor:  dbus.NewMonitor(logger),
		watcher:  NewConfigWatcher(configPath, logger),
		notifier: NewInternalNotifier(send, logger),
	}

	d.monitor.SetNotifyHandler(d.handleNotification)
	d.watcher.SetPollInterval(cfg.Daemon.PollInterval.Duration())
	d.watcher.SetReloadCallback(d.applyConfig)
	d.watcher.SetErrorCallback(d.notifier.NotifyConfigError)
	d.notifier.SetEnabled(cfg.Daemon.NotifyErrors)
	return d
}

// Run starts every component and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	d.ctx = ctx
	cfg := d.cfg
	d.mu.Unlock()

	if err := d.manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start audio: %w", err)
	}

	if err := d.server.Start(); err != nil {
		d.manager.Stop()
		return fmt.Errorf("failed to start D-Bus server: %w", err)
	}

	d.setMonitoring(d.wantMonitor(cfg))

	if err := d.watcher.Start(ctx, cfg); err != nil {
		d.logger.Warn("config hot reload disabled", "error", err)
	}

	d.logger.Info("chimed ready", "config", d.watcher.Path(), "monitor", d.wantMonitor(cfg))

	<-ctx.Done()
	d.shutdown()
	return nil
}

func (d *Daemon) shutdown() {
	d.watcher.Stop()
	d.setMonitoring(false)
	if err := d.server.Stop(); err != nil {
		d.logger.Warn("error stopping D-Bus server", "error", err)
	}
	d.manager.Stop()
	d.logger.Info("chimed stopped")
}

// setMonitoring starts or stops the notification monitor.
func (d *Daemon) setMonitoring(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if enabled == d.monitoring {
		return
	}

	if !enabled {
		if err := d.monitor.Stop(); err != nil {
			d.logger.Warn("error stopping monitor", "error", err)
		}
		d.monitoring = false
		return
	}

	if err := d.monitor.Start(); err != nil {
		d.logger.Warn("notification monitor unavailable", "error", err)
		return
	}
	d.monitoring = true
}

// applyConfig is called by the config watcher with a validated config.
func (d *Daemon) applyConfig(cfg *config.Config) {
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()

	d.manager.UpdateConfig(cfg)
	d.notifier.SetEnabled(cfg.Daemon.NotifyErrors)
	d.setMonitoring(d.wantMonitor(cfg))
}

// ForceMonitor keeps the notification monitor running whatever the config says.
func (d *Daemon) ForceMonitor(force bool) {
	d.mu.Lock()
	d.forceMonitor = force
	d.mu.Unlock()
}

func (d *Daemon) wantMonitor(cfg *config.Config) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.forceMonitor || cfg.Monitor.Enabled
}

// handleNotification plays the sound for a chat notification observed on the bus.
func (d *Daemon) handleNotification(n *dbus.DBusNotification) {
	if n.SuppressSound() {
		d.logger.Debug("notification suppresses sound", "app", n.AppName, "desktop_entry", n.DesktopEntry())
		return
	}

	category, ok := n.SoundCategory()
	if !ok {
		return
	}
	log := d.logger.With("app", n.AppName, "desktop_entry", n.DesktopEntry(), "category", category.String())

	d.mu.Lock()
	ctx := d.ctx
	d.mu.Unlock()

	result := d.manager.Play(ctx, category, n.SoundOverride())
	if result.OK() {
		log.Debug("played notification sound", "result", result.String())
		return
	}
	log.Debug("notification sound not played", "error", result.Err)
	if !errors.Is(result.Err, sound.ErrDisabled) {
		d.notifier.NotifyAudioError(result.Err)
	}
}

func sendToSessionBus(n *dbus.DBusNotification) error {
	conn, err := godbus.SessionBus()
	if err != nil {
		return err
	}
	_, err = dbus.SendNotification(conn, n)
	return err
}
