package audio

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

var errReleased = errors.New("resource already released")

// resource is a decoded sound wired into the speaker through a beep.Ctrl.
type resource struct {
	mu      sync.Mutex
	backend *Backend
	buffer  *beep.Buffer

	loops    int
	ctrl     *beep.Ctrl
	started  bool
	paused   bool
	released bool

	done atomic.Bool
}

// SetLoops sets how many extra times the sound repeats; negative loops forever.
// It must be called before Prepare.
func (r *resource) SetLoops(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loops = n
}

// Prepare builds the streamer chain. The sound starts paused.
func (r *resource) Prepare() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prepareLocked()
}

func (r *resource) prepareLocked() error {
	if r.released {
		return errReleased
	}
	if r.ctrl != nil {
		return nil
	}

	seeker := r.buffer.Streamer(0, r.buffer.Len())

	var s beep.Streamer = seeker
	switch {
	case r.loops < 0:
		s = beep.Loop(-1, seeker)
	case r.loops > 0:
		s = beep.Loop(r.loops+1, seeker)
	}

	s = r.backend.output(s, r.buffer.Format())
	s = beep.Seq(s, beep.Callback(func() {
		r.done.Store(true)
	}))

	r.ctrl = &beep.Ctrl{Streamer: s, Paused: true}
	return nil
}

// Play hands the sound to the speaker, or resumes it if it was paused.
func (r *resource) Play() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.prepareLocked(); err != nil {
		return err
	}

	speaker.Lock()
	r.ctrl.Paused = false
	speaker.Unlock()
	r.paused = false

	if !r.started {
		r.started = true
		speaker.Play(r.ctrl)
	}
	return nil
}

// Pause silences the sound, keeping its position.
func (r *resource) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctrl == nil || r.released {
		return
	}
	speaker.Lock()
	r.ctrl.Paused = true
	speaker.Unlock()
	r.paused = true
}

// Resume continues a paused sound.
func (r *resource) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctrl == nil || r.released || !r.started {
		return
	}
	speaker.Lock()
	r.ctrl.Paused = false
	speaker.Unlock()
	r.paused = false
}

// IsPlaying reports whether the sound is audible right now.
func (r *resource) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started && !r.paused && !r.released && !r.done.Load()
}

// Done reports whether the sound has played to the end.
func (r *resource) Done() bool {
	return r.done.Load()
}

// Release detaches the sound from the speaker. A nil streamer makes the
// Ctrl report exhaustion, so the mixer drops it on its next pass.
func (r *resource) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true
	if r.ctrl != nil {
		speaker.Lock()
		r.ctrl.Streamer = nil
		speaker.Unlock()
	}
}
