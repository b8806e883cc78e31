package sound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// State is the lifecycle state of the player's active resource.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// ParseState parses a name returned by State.String. Unknown names are idle.
func ParseState(s string) State {
	for _, st := range []State{StateLoading, StatePlaying, StatePaused} {
		if st.String() == s {
			return st
		}
	}
	return StateIdle
}

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger used by the player.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithOtherAudioDetector sets the function used to decide whether another
// application is producing audio. It is called once, when the player is created.
func WithOtherAudioDetector(detect func() bool) Option {
	return func(p *Player) {
		p.detect = detect
	}
}

// WithEnabled enables or disables playback. A disabled player fails every
// Play with ErrDisabled without touching the session.
func WithEnabled(enabled bool) Option {
	return func(p *Player) {
		p.enabled = enabled
	}
}

// Player plays notification sounds, keeping at most one resource active.
// It is safe for concurrent use; overlapping Play calls are serialized and
// each one replaces the resource started by the previous one.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger

	bundle  Bundle
	backend Backend
	session Session

	detect     func() bool
	otherAudio bool
	enabled    bool

	active      Resource
	activeReq   Request
	activeAsset string
	state       State
}

// NewPlayer creates a player over the given bundle, backend and session.
func NewPlayer(bundle Bundle, backend Backend, session Session, opts ...Option) *Player {
	p := &Player{
		logger:  slog.Default(),
		bundle:  bundle,
		backend: backend,
		session: session,
		enabled: true,
	}
	for _, opt := range opts {
		opt(p)
	}

	// Sampled once; a player created while music is playing keeps using the
	// alert tone for messages until it is recreated.
	if p.detect != nil {
		p.otherAudio = p.detect()
	}

	p.logger.Debug("sound player created", "other_audio", p.otherAudio, "enabled", p.enabled)
	return p
}

// Play plays the sound for req, replacing any resource that is currently loaded.
//
// Message categories play the short alert tone instead of their asset when
// other audio was playing at construction time; the alert does not disturb
// the active resource. Every other path releases the previous resource first.
func (p *Player) Play(ctx context.Context, req Request) Result {
	if req.ID == "" {
		req.ID = newRequestID()
	}
	if !req.Category.Valid() {
		return failed(req, "", fmt.Errorf("%w: %d", ErrUnknownCategory, int(req.Category)))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return failed(req, "", ErrDisabled)
	}

	if req.Category.IsMessage() && p.otherAudio {
		return p.alertLocked(req)
	}

	p.releaseLocked()
	p.state = StateLoading

	res, asset, err := p.startLocked(ctx, req)
	if err != nil {
		if res != nil {
			res.Release()
		}
		p.state = StateIdle
		p.logger.Warn("failed to play sound",
			"request", req.ID,
			"category", req.Category.String(),
			"asset", asset,
			"error", err,
		)
		return failed(req, asset, err)
	}

	p.active = res
	p.activeReq = req
	p.activeAsset = asset
	p.state = StatePlaying

	p.logger.Debug("playing sound",
		"request", req.ID,
		"category", req.Category.String(),
		"asset", asset,
		"looping", req.Category.IsCall(),
	)

	return Result{
		RequestID: req.ID,
		Category:  req.Category,
		Asset:     asset,
		Outcome:   OutcomePlayed,
	}
}

// startLocked resolves, loads and starts the resource for req.
// On error it returns whatever resource was already created so the caller can release it.
func (p *Player) startLocked(ctx context.Context, req Request) (Resource, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	if err := p.session.SetCategory(SessionPlayback, ModeDefault); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrSessionRejected, err)
	}

	ref := req.AssetRef()
	asset, err := p.bundle.Resolve(ref)
	if err != nil {
		if !errors.Is(err, ErrAssetNotFound) {
			err = fmt.Errorf("%w: %w", ErrAssetNotFound, err)
		}
		return nil, ref, err
	}

	res, err := p.backend.Load(asset)
	if err != nil {
		return nil, asset.Key, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	switch req.Category {
	case IncomingCall:
		res.SetLoops(-1)
	case OutgoingCall:
		res.SetLoops(-1)
		if err := p.session.SetCategory(SessionPlayAndRecord, ModeDefault); err != nil {
			return res, asset.Key, fmt.Errorf("%w: %w", ErrSessionRejected, err)
		}
		if err := p.session.OverrideOutputPort(PortNone); err != nil {
			return res, asset.Key, fmt.Errorf("%w: %w", ErrSessionRejected, err)
		}
	default:
		res.SetLoops(0)
	}

	if err := p.session.SetActive(true); err != nil {
		return res, asset.Key, fmt.Errorf("%w: %w", ErrSessionRejected, err)
	}

	if err := res.Prepare(); err != nil {
		return res, asset.Key, fmt.Errorf("%w: %w", ErrPlaybackFailed, err)
	}
	if err := res.Play(); err != nil {
		return res, asset.Key, fmt.Errorf("%w: %w", ErrPlaybackFailed, err)
	}

	return res, asset.Key, nil
}

// alertLocked plays the short alert tone in place of a message sound.
func (p *Player) alertLocked(req Request) Result {
	if err := p.session.SetCategory(SessionPlayback, ModeDefault); err != nil {
		err = fmt.Errorf("%w: %w", ErrSessionRejected, err)
		p.logger.Warn("failed to play alert", "request", req.ID, "error", err)
		return failed(req, "", err)
	}
	if err := p.session.PlayAlert(); err != nil {
		err = fmt.Errorf("%w: %w", ErrPlaybackFailed, err)
		p.logger.Warn("failed to play alert", "request", req.ID, "error", err)
		return failed(req, "", err)
	}

	p.logger.Debug("other audio playing, played alert instead",
		"request", req.ID,
		"category", req.Category.String(),
	)
	return Result{
		RequestID: req.ID,
		Category:  req.Category,
		Outcome:   OutcomeAlerted,
	}
}

// Pause pauses the active resource if it is playing. It is a no-op otherwise.
// It returns the player so calls can be chained.
func (p *Player) Pause() *Player {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reapLocked()
	if p.active != nil && p.active.IsPlaying() {
		p.active.Pause()
		p.state = StatePaused
		p.logger.Debug("sound paused", "request", p.activeReq.ID)
	}
	return p
}

// Resume continues a paused resource from where it stopped. With nothing
// paused it is a no-op reporting OutcomeNone.
func (p *Player) Resume() Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePaused || p.active == nil {
		return Result{Outcome: OutcomeNone}
	}

	p.active.Resume()
	p.state = StatePlaying
	p.logger.Debug("sound resumed", "request", p.activeReq.ID)

	return Result{
		RequestID: p.activeReq.ID,
		Category:  p.activeReq.Category,
		Asset:     p.activeAsset,
		Outcome:   OutcomePlayed,
	}
}

// Stop releases the active resource.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
}

// Close stops playback and deactivates the session.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseLocked()
	if err := p.session.SetActive(false); err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	p.logger.Debug("sound player closed")
	return nil
}

// State returns the current state. A one-shot sound that has played to the
// end is reported as idle.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reapLocked()
	return p.state
}

// Active returns the active resource and the request that started it.
func (p *Player) Active() (Resource, Request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reapLocked()
	if p.active == nil {
		return nil, Request{}, false
	}
	return p.active, p.activeReq, true
}

// Info is a snapshot of the settings playback runs under.
type Info struct {
	Enabled       bool       `json:"enabled" yaml:"enabled"`
	OtherAudio    bool       `json:"other_audio" yaml:"other_audio"`
	Volume        float64    `json:"volume" yaml:"volume"`
	SessionActive bool       `json:"session_active" yaml:"session_active"`
	OutputPort    OutputPort `json:"output_port" yaml:"output_port"`
}

// Info reports whether the player is enabled and the other-audio flag it
// captured at creation. Audio fields are left for the caller to fill in.
func (p *Player) Info() Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Info{Enabled: p.enabled, OtherAudio: p.otherAudio}
}

// reapLocked drops a resource that finished on its own.
func (p *Player) reapLocked() {
	if p.active != nil && p.state == StatePlaying && p.active.Done() {
		p.releaseLocked()
	}
}

func (p *Player) releaseLocked() {
	if p.active != nil {
		p.active.Release()
		p.logger.Debug("released sound", "request", p.activeReq.ID)
	}
	p.active = nil
	p.activeReq = Request{}
	p.activeAsset = ""
	p.state = StateIdle
}
