package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/jmylchreest/chime/internal/sound"
)

// speakerBufferDuration keeps latency low for short notification sounds.
const speakerBufferDuration = 100 * time.Millisecond

// SessionState is a snapshot of the session configuration.
type SessionState struct {
	Category sound.SessionCategory
	Mode     sound.SessionMode
	Port     sound.OutputPort
	Active   bool
}

// Session is the speaker-backed audio session. The speaker is initialized
// the first time the session is activated and stays open until Close.
type Session struct {
	mu      sync.Mutex
	logger  *slog.Logger
	backend *Backend

	alert *beep.Buffer
	state SessionState

	initialized bool

	// speakerInit is swapped out in tests to avoid touching audio hardware.
	speakerInit func(sampleRate beep.SampleRate, bufferSize int) error
	play        func(s ...beep.Streamer)
	clear       func()
	close       func()
}

// NewSession creates a session that plays through backend's speaker.
func NewSession(backend *Backend, tone AlertTone, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if tone.Frequency <= 0 || tone.Duration <= 0 {
		tone = DefaultAlertTone
	}

	return &Session{
		logger:  logger,
		backend: backend,
		alert:   tone.Buffer(backend.SampleRate()),
		state: SessionState{
			Category: sound.SessionPlayback,
			Mode:     sound.ModeDefault,
			Port:     sound.PortNone,
		},
		speakerInit: speaker.Init,
		play:        speaker.Play,
		clear:       speaker.Clear,
		close:       speaker.Close,
	}
}

// SetCategory implements sound.Session.
func (s *Session) SetCategory(category sound.SessionCategory, mode sound.SessionMode) error {
	switch category {
	case sound.SessionPlayback, sound.SessionPlayAndRecord:
	default:
		return fmt.Errorf("unsupported session category %q", category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Category != category {
		s.logger.Debug("session category changed", "from", s.state.Category, "to", category, "mode", mode)
	}
	s.state.Category = category
	s.state.Mode = mode
	return nil
}

// OverrideOutputPort implements sound.Session. Output always goes to the
// default sink; forcing the speaker is recorded but has no routing effect.
func (s *Session) OverrideOutputPort(port sound.OutputPort) error {
	switch port {
	case sound.PortNone, sound.PortSpeaker:
	default:
		return fmt.Errorf("unsupported output port %q", port)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Port = port
	return nil
}

// SetActive implements sound.Session. Activating opens the speaker on first
// use; deactivating clears everything queued on it.
func (s *Session) SetActive(active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setActiveLocked(active)
}

func (s *Session) setActiveLocked(active bool) error {
	if !active {
		if s.initialized {
			s.clear()
		}
		s.state.Active = false
		return nil
	}

	if !s.initialized {
		sampleRate := s.backend.SampleRate()
		bufferSize := sampleRate.N(speakerBufferDuration)
		if err := s.speakerInit(sampleRate, bufferSize); err != nil {
			return fmt.Errorf("failed to initialize speaker: %w", err)
		}
		s.initialized = true
		s.logger.Debug("speaker initialized", "sample_rate", sampleRate)
	}
	s.state.Active = true
	return nil
}

// PlayAlert implements sound.Session.
func (s *Session) PlayAlert() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setActiveLocked(true); err != nil {
		return err
	}

	streamer := s.backend.output(s.alert.Streamer(0, s.alert.Len()), s.alert.Format())
	s.play(streamer)
	return nil
}

// SetAlertTone replaces the tone played by PlayAlert.
func (s *Session) SetAlertTone(tone AlertTone) {
	if tone.Frequency <= 0 || tone.Duration <= 0 {
		tone = DefaultAlertTone
	}
	buf := tone.Buffer(s.backend.SampleRate())

	s.mu.Lock()
	s.alert = buf
	s.mu.Unlock()
}

// State returns a snapshot of the session configuration.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close releases the speaker.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		s.close()
		s.initialized = false
	}
	s.state.Active = false
	s.logger.Debug("audio session closed")
}
