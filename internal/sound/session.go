package sound

import "io"

// SessionCategory is the output category the audio session is configured for.
type SessionCategory string

const (
	// SessionPlayback is plain output, used for alerts and ringtones.
	SessionPlayback SessionCategory = "playback"
	// SessionPlayAndRecord is used while an outgoing call is ringing so the
	// microphone path is ready when the call connects.
	SessionPlayAndRecord SessionCategory = "play-and-record"
)

// SessionMode refines the session category.
type SessionMode string

// ModeDefault is the only mode chime uses.
const ModeDefault SessionMode = "default"

// OutputPort overrides where audio is routed.
type OutputPort string

const (
	// PortNone leaves routing to the platform default.
	PortNone OutputPort = "none"
	// PortSpeaker forces output to the built-in speaker.
	PortSpeaker OutputPort = "speaker"
)

// Session is the shared audio output configuration.
type Session interface {
	SetCategory(category SessionCategory, mode SessionMode) error
	OverrideOutputPort(port OutputPort) error
	SetActive(active bool) error
	// PlayAlert plays the short system alert tone used in place of message
	// sounds while other audio is playing.
	PlayAlert() error
}

// Asset is a resolved, readable audio asset.
type Asset struct {
	// Key uniquely identifies the asset, e.g. "embedded:IncomingCall.wav"
	// or an absolute file path.
	Key string
	// Name is the file name, used to pick a decoder by extension.
	Name string
	// Open returns a fresh reader over the asset contents.
	Open func() (io.ReadSeekCloser, error)
	// Size is the asset size in bytes, or -1 if unknown.
	Size int64
}

// Bundle resolves asset references to readable assets.
type Bundle interface {
	Resolve(ref string) (Asset, error)
}

// Backend turns assets into playback resources.
type Backend interface {
	Load(asset Asset) (Resource, error)
}

// Resource is a loaded, ready-to-play audio asset.
type Resource interface {
	// SetLoops sets how many extra times the sound repeats; negative loops forever.
	SetLoops(n int)
	Prepare() error
	Play() error
	Pause()
	Resume()
	IsPlaying() bool
	// Done reports whether a non-looping resource has played to the end.
	Done() bool
	Release()
}
