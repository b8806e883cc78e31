package audio

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/jmylchreest/chime/internal/sound"
)

// Backend decodes assets into beep buffers and hands out playback resources.
// Decoded buffers are cached by asset key.
type Backend struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Volume control (0.0 to 1.0)
	volume float64

	// Sample rate the speaker runs at
	sampleRate beep.SampleRate

	cache      map[string]*beep.Buffer
	cacheMutex sync.RWMutex
}

// NewBackend creates a backend for a speaker running at sampleRate Hz.
func NewBackend(sampleRate int, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}

	return &Backend{
		logger:     logger,
		volume:     1.0,
		sampleRate: beep.SampleRate(sampleRate),
		cache:      make(map[string]*beep.Buffer),
	}
}

// SampleRate returns the speaker sample rate.
func (b *Backend) SampleRate() beep.SampleRate {
	return b.sampleRate
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (b *Backend) SetVolume(volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	b.volume = volume
	b.logger.Debug("volume set", "volume", volume)
}

// GetVolume returns the current volume.
func (b *Backend) GetVolume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

// Load implements sound.Backend.
func (b *Backend) Load(asset sound.Asset) (sound.Resource, error) {
	buffer, err := b.buffer(asset)
	if err != nil {
		return nil, err
	}
	return &resource{backend: b, buffer: buffer}, nil
}

// Preload decodes an asset into the cache ahead of its first use.
func (b *Backend) Preload(asset sound.Asset) error {
	_, err := b.buffer(asset)
	return err
}

func (b *Backend) buffer(asset sound.Asset) (*beep.Buffer, error) {
	b.cacheMutex.RLock()
	cached, ok := b.cache[asset.Key]
	b.cacheMutex.RUnlock()
	if ok {
		return cached, nil
	}

	buffer, err := decode(asset)
	if err != nil {
		return nil, err
	}

	b.cacheMutex.Lock()
	b.cache[asset.Key] = buffer
	b.cacheMutex.Unlock()

	b.logger.Debug("decoded sound", "asset", asset.Key, "samples", buffer.Len())
	return buffer, nil
}

// decode reads and decodes an asset into a buffer.
func decode(asset sound.Asset) (*beep.Buffer, error) {
	if asset.Open == nil {
		return nil, fmt.Errorf("asset %s has no content", asset.Key)
	}

	f, err := asset.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext := strings.ToLower(filepath.Ext(asset.Name)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}

	return buffer, nil
}

// ClearCache clears the decoded sound cache.
func (b *Backend) ClearCache() {
	b.cacheMutex.Lock()
	defer b.cacheMutex.Unlock()
	b.cache = make(map[string]*beep.Buffer)
	b.logger.Debug("sound cache cleared")
}

// InvalidatePath drops the cached buffer for a file, whether it was loaded
// as an override path or through a directory bundle.
func (b *Backend) InvalidatePath(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	b.cacheMutex.Lock()
	defer b.cacheMutex.Unlock()
	delete(b.cache, path)
	delete(b.cache, filepath.Dir(path)+":"+filepath.Base(path))
}

// cached reports whether an asset key is in the cache.
func (b *Backend) cached(key string) bool {
	b.cacheMutex.RLock()
	defer b.cacheMutex.RUnlock()
	_, ok := b.cache[key]
	return ok
}

// output wraps s with resampling and volume for the speaker.
func (b *Backend) output(s beep.Streamer, format beep.Format) beep.Streamer {
	b.mu.Lock()
	volume := b.volume
	sampleRate := b.sampleRate
	b.mu.Unlock()

	if format.SampleRate != sampleRate {
		s = beep.Resample(4, format.SampleRate, sampleRate, s)
	}

	if volume < 1.0 {
		s = &effects.Volume{
			Streamer: s,
			Base:     2,
			Volume:   math.Log2(volume),
			Silent:   volume == 0,
		}
	}
	return s
}
