package audio

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/chime/internal/bundle"
	"github.com/jmylchreest/chime/internal/config"
	"github.com/jmylchreest/chime/internal/sound"
)

// fakeSpeaker replaces the speaker hooks of a session.
type fakeSpeaker struct {
	inits   int
	played  int
	cleared int
	failErr error
}

func (f *fakeSpeaker) install(s *Session) {
	s.speakerInit = func(beep.SampleRate, int) error {
		if f.failErr != nil {
			return f.failErr
		}
		f.inits++
		return nil
	}
	s.play = func(...beep.Streamer) { f.played++ }
	s.clear = func() { f.cleared++ }
	s.close = func() {}
}

func embeddedAsset(t *testing.T, c sound.Category) sound.Asset {
	t.Helper()
	asset, err := bundle.Embedded().Resolve(c.DefaultAsset())
	require.NoError(t, err)
	return asset
}

// drain streams s until it is exhausted or limit samples have been produced.
func drain(s beep.Streamer, limit int) (int, bool) {
	buf := make([][2]float64, 512)
	total := 0
	for total < limit {
		n, ok := s.Stream(buf)
		total += n
		if !ok {
			return total, true
		}
	}
	return total, false
}

func TestBackend_DecodesEmbeddedSounds(t *testing.T) {
	b := NewBackend(44100, nil)

	for _, c := range sound.Categories() {
		t.Run(c.String(), func(t *testing.T) {
			asset := embeddedAsset(t, c)
			res, err := b.Load(asset)
			require.NoError(t, err)

			r := res.(*resource)
			assert.Positive(t, r.buffer.Len())
			assert.Equal(t, beep.SampleRate(22050), r.buffer.Format().SampleRate)
			assert.True(t, b.cached(asset.Key))
		})
	}
}

func TestBackend_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sound.flac")
	require.NoError(t, os.WriteFile(path, []byte("fLaC"), 0644))

	asset, err := bundle.Embedded().Resolve(path)
	require.NoError(t, err)

	_, err = NewBackend(44100, nil).Load(asset)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audio format")
}

func TestBackend_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wave file at all"), 0644))

	asset, err := bundle.Embedded().Resolve(path)
	require.NoError(t, err)

	_, err = NewBackend(44100, nil).Load(asset)
	assert.Error(t, err)
}

func TestBackend_OpenFailure(t *testing.T) {
	asset := sound.Asset{
		Key:  "broken",
		Name: "broken.wav",
		Open: func() (io.ReadSeekCloser, error) { return nil, errors.New("gone") },
	}
	_, err := NewBackend(44100, nil).Load(asset)
	assert.ErrorContains(t, err, "gone")
}

func TestBackend_InvalidatePath(t *testing.T) {
	src, err := bundle.EmbeddedSounds.ReadFile("sounds/OutgoingMessage.wav")
	require.NoError(t, err)

	tests := []struct {
		name   string
		bundle func(dir string) string
		ref    func(path string) string
	}{
		{"clean paths", func(dir string) string { return dir }, func(path string) string { return path }},
		{"trailing slash", func(dir string) string { return dir + "/" }, func(path string) string { return path }},
		{"dotted dir", func(dir string) string { return filepath.Join(dir, "sub") + "/../" }, func(path string) string { return path }},
		{"file url", func(dir string) string { return dir }, func(path string) string { return "file://" + filepath.Dir(path) + "/./" + filepath.Base(path) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
			path := filepath.Join(dir, "OutgoingMessage.wav")
			require.NoError(t, os.WriteFile(path, src, 0644))

			b := NewBackend(44100, nil)

			// Loaded through a directory bundle
			viaDir, err := bundle.NewDir(tt.bundle(dir), nil).Resolve("OutgoingMessage.wav")
			require.NoError(t, err)
			require.NoError(t, b.Preload(viaDir))

			// Loaded as an override path
			viaPath, err := bundle.Embedded().Resolve(tt.ref(path))
			require.NoError(t, err)
			require.NoError(t, b.Preload(viaPath))

			assert.True(t, b.cached(viaDir.Key))
			assert.True(t, b.cached(viaPath.Key))

			// fsnotify reports clean names under the watched directory.
			b.InvalidatePath(path)
			assert.False(t, b.cached(viaDir.Key), viaDir.Key)
			assert.False(t, b.cached(viaPath.Key), viaPath.Key)
		})
	}
}

func TestBackend_InvalidateRelativeOverride(t *testing.T) {
	src, err := bundle.EmbeddedSounds.ReadFile("sounds/OutgoingMessage.wav")
	require.NoError(t, err)

	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("OutgoingMessage.wav", src, 0644))

	asset, err := bundle.Embedded().Resolve("./OutgoingMessage.wav")
	require.NoError(t, err)

	b := NewBackend(44100, nil)
	require.NoError(t, b.Preload(asset))

	abs, err := filepath.Abs("OutgoingMessage.wav")
	require.NoError(t, err)
	b.InvalidatePath(abs)
	assert.False(t, b.cached(asset.Key))
}

func TestBackend_Volume(t *testing.T) {
	b := NewBackend(44100, nil)
	assert.Equal(t, 1.0, b.GetVolume())

	b.SetVolume(1.5)
	assert.Equal(t, 1.0, b.GetVolume())
	b.SetVolume(-1)
	assert.Equal(t, 0.0, b.GetVolume())
	b.SetVolume(0.25)
	assert.Equal(t, 0.25, b.GetVolume())
}

func TestResource_OneShotFinishes(t *testing.T) {
	b := NewBackend(22050, nil)
	res, err := b.Load(embeddedAsset(t, sound.OutgoingMessage))
	require.NoError(t, err)
	r := res.(*resource)

	r.SetLoops(0)
	require.NoError(t, r.Prepare())
	r.ctrl.Paused = false

	n, exhausted := drain(r.ctrl, 10*r.buffer.Len())
	assert.True(t, exhausted)
	assert.Equal(t, r.buffer.Len(), n)
	assert.True(t, r.Done())
}

func TestResource_InfiniteLoopNeverFinishes(t *testing.T) {
	b := NewBackend(22050, nil)
	res, err := b.Load(embeddedAsset(t, sound.OutgoingMessage))
	require.NoError(t, err)
	r := res.(*resource)

	r.SetLoops(-1)
	require.NoError(t, r.Prepare())
	r.ctrl.Paused = false

	_, exhausted := drain(r.ctrl, 5*r.buffer.Len())
	assert.False(t, exhausted)
	assert.False(t, r.Done())
}

func TestResource_FiniteLoops(t *testing.T) {
	b := NewBackend(22050, nil)
	res, err := b.Load(embeddedAsset(t, sound.OutgoingMessage))
	require.NoError(t, err)
	r := res.(*resource)

	r.SetLoops(2)
	require.NoError(t, r.Prepare())
	r.ctrl.Paused = false

	n, exhausted := drain(r.ctrl, 10*r.buffer.Len())
	assert.True(t, exhausted)
	assert.Equal(t, 3*r.buffer.Len(), n)
}

func TestResource_Lifecycle(t *testing.T) {
	b := NewBackend(22050, nil)
	res, err := b.Load(embeddedAsset(t, sound.IncomingCall))
	require.NoError(t, err)

	res.SetLoops(-1)
	require.NoError(t, res.Prepare())
	assert.False(t, res.IsPlaying(), "prepared but not started")

	require.NoError(t, res.Play())
	assert.True(t, res.IsPlaying())

	res.Pause()
	assert.False(t, res.IsPlaying())

	res.Resume()
	assert.True(t, res.IsPlaying())

	res.Release()
	assert.False(t, res.IsPlaying())
	assert.Nil(t, res.(*resource).ctrl.Streamer)
	assert.Error(t, res.Play())

	// Releasing twice is harmless.
	res.Release()
}

func TestAlertTone(t *testing.T) {
	tone := AlertTone{Frequency: 1000, Duration: 50 * time.Millisecond}
	buf := tone.Buffer(44100)

	assert.Equal(t, beep.SampleRate(44100).N(50*time.Millisecond), buf.Len())

	peak := 0.0
	samples := make([][2]float64, buf.Len())
	n, _ := buf.Streamer(0, buf.Len()).Stream(samples)
	for _, s := range samples[:n] {
		if s[0] > peak {
			peak = s[0]
		}
		assert.Equal(t, s[0], s[1])
	}
	assert.Greater(t, peak, 0.1)
	assert.LessOrEqual(t, peak, 0.5)
}

func TestSession_ActivatesSpeakerOnce(t *testing.T) {
	fs := &fakeSpeaker{}
	s := NewSession(NewBackend(44100, nil), DefaultAlertTone, nil)
	fs.install(s)

	require.NoError(t, s.SetActive(true))
	require.NoError(t, s.SetActive(true))
	assert.Equal(t, 1, fs.inits)
	assert.True(t, s.State().Active)

	require.NoError(t, s.SetActive(false))
	assert.Equal(t, 1, fs.cleared)
	assert.False(t, s.State().Active)
}

func TestSession_ActivationFailure(t *testing.T) {
	fs := &fakeSpeaker{failErr: errors.New("no audio device")}
	s := NewSession(NewBackend(44100, nil), DefaultAlertTone, nil)
	fs.install(s)

	err := s.SetActive(true)
	assert.ErrorContains(t, err, "no audio device")
	assert.False(t, s.State().Active)
}

func TestSession_Configuration(t *testing.T) {
	s := NewSession(NewBackend(44100, nil), DefaultAlertTone, nil)

	state := s.State()
	assert.Equal(t, sound.SessionPlayback, state.Category)
	assert.Equal(t, sound.PortNone, state.Port)

	require.NoError(t, s.SetCategory(sound.SessionPlayAndRecord, sound.ModeDefault))
	require.NoError(t, s.OverrideOutputPort(sound.PortSpeaker))
	state = s.State()
	assert.Equal(t, sound.SessionPlayAndRecord, state.Category)
	assert.Equal(t, sound.PortSpeaker, state.Port)

	assert.Error(t, s.SetCategory("ambient", sound.ModeDefault))
	assert.Error(t, s.OverrideOutputPort("headphones"))
}

func TestSession_PlayAlert(t *testing.T) {
	fs := &fakeSpeaker{}
	s := NewSession(NewBackend(44100, nil), DefaultAlertTone, nil)
	fs.install(s)

	require.NoError(t, s.PlayAlert())
	assert.Equal(t, 1, fs.inits)
	assert.Equal(t, 1, fs.played)
}

func TestSession_SetAlertTone(t *testing.T) {
	s := NewSession(NewBackend(44100, nil), DefaultAlertTone, nil)

	s.SetAlertTone(AlertTone{Frequency: 440, Duration: 200 * time.Millisecond})
	assert.Equal(t, beep.SampleRate(44100).N(200*time.Millisecond), s.alert.Len())

	// Invalid tones fall back to the default
	s.SetAlertTone(AlertTone{})
	assert.Equal(t, beep.SampleRate(44100).N(DefaultAlertTone.Duration), s.alert.Len())
}

func newTestManager(t *testing.T, cfg *config.Config, detect func() bool) (*Manager, *fakeSpeaker) {
	t.Helper()
	m := NewManager(cfg, detect, nil)
	fs := &fakeSpeaker{}
	fs.install(m.session)
	t.Cleanup(func() {
		m.StopSound()
		if m.watcher != nil {
			_ = m.watcher.Stop()
		}
	})
	return m, fs
}

func TestManager_PlayPauseResume(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Session.OtherAudio = config.OtherAudioIgnore
	m, fs := newTestManager(t, cfg, nil)

	res := m.Play(context.Background(), sound.IncomingCall, "")
	require.NoError(t, res.Err)
	assert.Equal(t, "embedded:IncomingCall.wav", res.Asset)
	assert.Equal(t, sound.StatePlaying, m.State())
	assert.Equal(t, 1, fs.inits)

	m.Pause()
	assert.Equal(t, sound.StatePaused, m.State())

	require.True(t, m.Resume().OK())
	assert.Equal(t, sound.StatePlaying, m.State())

	req, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, sound.IncomingCall, req.Category)

	m.StopSound()
	assert.Equal(t, sound.StateIdle, m.State())
}

func TestManager_ConfiguredOverride(t *testing.T) {
	dir := t.TempDir()
	src, err := bundle.EmbeddedSounds.ReadFile("sounds/IncomingCall.wav")
	require.NoError(t, err)
	path := filepath.Join(dir, "ring.wav")
	require.NoError(t, os.WriteFile(path, src, 0644))

	cfg := config.DefaultConfig()
	cfg.Sounds.OutgoingMessage = path
	m, _ := newTestManager(t, cfg, nil)

	res := m.Play(context.Background(), sound.OutgoingMessage, "")
	require.NoError(t, res.Err)
	assert.Equal(t, path, res.Asset)

	// An explicit override beats the configured one.
	res = m.Play(context.Background(), sound.OutgoingMessage, "IncomingMessage.wav")
	require.NoError(t, res.Err)
	assert.Equal(t, "embedded:IncomingMessage.wav", res.Asset)
}

func TestManager_OtherAudioModes(t *testing.T) {
	tests := []struct {
		name       string
		mode       config.OtherAudioMode
		detect     bool
		want       sound.Outcome
		detections int
	}{
		{"detect busy", config.OtherAudioDetect, true, sound.OutcomeAlerted, 1},
		{"detect quiet", config.OtherAudioDetect, false, sound.OutcomePlayed, 1},
		{"ignore busy", config.OtherAudioIgnore, true, sound.OutcomePlayed, 0},
		{"assume quiet", config.OtherAudioAssume, false, sound.OutcomeAlerted, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Session.OtherAudio = tt.mode

			detections := 0
			m, _ := newTestManager(t, cfg, func() bool {
				detections++
				return tt.detect
			})

			res := m.Play(context.Background(), sound.IncomingMessage, "")
			require.NoError(t, res.Err)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Equal(t, tt.detections, detections)
		})
	}
}

func TestManager_Disabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = false
	m, fs := newTestManager(t, cfg, nil)

	res := m.Play(context.Background(), sound.IncomingCall, "")
	assert.ErrorIs(t, res.Err, sound.ErrDisabled)
	assert.Zero(t, fs.inits)
}

func TestManager_UpdateConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Session.OtherAudio = config.OtherAudioAssume
	m, _ := newTestManager(t, cfg, nil)

	require.True(t, m.Play(context.Background(), sound.IncomingCall, "").OK())

	newCfg := config.DefaultConfig()
	newCfg.Audio.Volume = 20
	newCfg.Audio.Enabled = false
	m.UpdateConfig(newCfg)

	assert.Equal(t, sound.StateIdle, m.State())
	info := m.Info()
	assert.InDelta(t, 0.2, info.Volume, 1e-9)
	assert.False(t, info.Enabled)
	assert.True(t, info.OtherAudio, "startup detection survives reloads")
}
