// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultVolume         = 80
	DefaultSampleRate     = 44100
	DefaultAlertFrequency = 1200.0
	DefaultAlertDuration  = 120 * time.Millisecond
	DefaultPollInterval   = time.Second
)

// OtherAudioMode controls how the player decides whether another
// application is producing audio.
type OtherAudioMode string

const (
	// OtherAudioDetect probes running media players once at startup.
	OtherAudioDetect OtherAudioMode = "detect"
	// OtherAudioIgnore always plays message sounds in full.
	OtherAudioIgnore OtherAudioMode = "ignore"
	// OtherAudioAssume always substitutes the alert tone for message sounds.
	OtherAudioAssume OtherAudioMode = "assume"
)

// ValidOtherAudioModes returns all valid other_audio values.
func ValidOtherAudioModes() []OtherAudioMode {
	return []OtherAudioMode{OtherAudioDetect, OtherAudioIgnore, OtherAudioAssume}
}

// Config represents the chime configuration.
// Loaded from ~/.config/chime/config.toml
type Config struct {
	Audio   AudioConfig   `toml:"audio"`
	Sounds  SoundsConfig  `toml:"sounds"`
	Alert   AlertConfig   `toml:"alert"`
	Session SessionConfig `toml:"session"`
	Monitor MonitorConfig `toml:"monitor"`
	Daemon  DaemonConfig  `toml:"daemon"`
}

// AudioConfig contains playback settings.
type AudioConfig struct {
	Enabled    bool   `toml:"enabled"`
	Volume     int    `toml:"volume"`      // 0-100
	SampleRate int    `toml:"sample_rate"` // Speaker sample rate in Hz
	AssetsDir  string `toml:"assets_dir"`  // Shadows the bundled sounds, empty = bundled only
}

// SoundsConfig contains per-category override files. Empty means the bundled default.
type SoundsConfig struct {
	IncomingCall             string `toml:"incoming_call"`
	IncomingMessage          string `toml:"incoming_message"`
	IncomingMessageFromOther string `toml:"incoming_message_from_other"`
	OutgoingCall             string `toml:"outgoing_call"`
	OutgoingMessage          string `toml:"outgoing_message"`
}

// AlertConfig describes the short tone played in place of message sounds
// while other audio is playing.
type AlertConfig struct {
	Frequency float64  `toml:"frequency"` // Hz
	Duration  Duration `toml:"duration"`  // e.g. "120ms"
}

// SessionConfig contains audio session settings.
type SessionConfig struct {
	OtherAudio OtherAudioMode `toml:"other_audio"`
}

// MonitorConfig controls the desktop notification monitor.
type MonitorConfig struct {
	Enabled bool `toml:"enabled"` // Play sounds for chat notifications seen on D-Bus
}

// DaemonConfig contains chimed settings.
type DaemonConfig struct {
	PollInterval Duration `toml:"poll_interval"` // Config file check interval
	NotifyErrors bool     `toml:"notify_errors"` // Show a desktop notification when a reload fails
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			Enabled:    true,
			Volume:     DefaultVolume,
			SampleRate: DefaultSampleRate,
		},
		Alert: AlertConfig{
			Frequency: DefaultAlertFrequency,
			Duration:  Duration(DefaultAlertDuration),
		},
		Session: SessionConfig{
			OtherAudio: OtherAudioDetect,
		},
		Monitor: MonitorConfig{
			Enabled: false,
		},
		Daemon: DaemonConfig{
			PollInterval: Duration(DefaultPollInterval),
			NotifyErrors: true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "chime", "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically so a watching daemon never sees a partial file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return fmt.Errorf("sample_rate must be between 8000 and 192000, got %d", c.Audio.SampleRate)
	}

	if c.Alert.Frequency < 20 || c.Alert.Frequency > 20000 {
		return fmt.Errorf("alert frequency must be between 20 and 20000 Hz, got %g", c.Alert.Frequency)
	}
	if d := c.Alert.Duration.Duration(); d <= 0 || d > 2*time.Second {
		return fmt.Errorf("alert duration must be between 0 and 2s, got %s", d)
	}

	if d := c.Daemon.PollInterval.Duration(); d < 100*time.Millisecond {
		return fmt.Errorf("poll_interval must be at least 100ms, got %s", d)
	}

	validMode := false
	for _, m := range ValidOtherAudioModes() {
		if c.Session.OtherAudio == m {
			validMode = true
			break
		}
	}
	if !validMode {
		return fmt.Errorf("invalid other_audio %q, must be one of: %v", c.Session.OtherAudio, ValidOtherAudioModes())
	}

	return nil
}

// SoundOverride returns the override configured for the category with the
// given CamelCase or kebab-case name, with ~ expanded. Empty means none.
func (c *Config) SoundOverride(category string) string {
	var path string
	switch normalizeKey(category) {
	case "incomingcall":
		path = c.Sounds.IncomingCall
	case "incomingmessage":
		path = c.Sounds.IncomingMessage
	case "incomingmessagefromother":
		path = c.Sounds.IncomingMessageFromOther
	case "outgoingcall":
		path = c.Sounds.OutgoingCall
	case "outgoingmessage":
		path = c.Sounds.OutgoingMessage
	}
	return ExpandPath(path)
}

// Volume returns the configured volume as a fraction between 0 and 1.
func (c *Config) Volume() float64 {
	return float64(c.Audio.Volume) / 100.0
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

func normalizeKey(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, "_", "")
}
