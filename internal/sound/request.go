package sound

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Sentinel errors carried by a failed Result.
var (
	ErrAssetNotFound   = errors.New("asset not found")
	ErrSessionRejected = errors.New("audio session rejected configuration")
	ErrLoadFailed      = errors.New("failed to load asset")
	ErrPlaybackFailed  = errors.New("failed to start playback")
	ErrDisabled        = errors.New("sound playback disabled")
)

// Request asks the player to play the sound for a category.
// A non-empty Override takes precedence over the category's default asset.
type Request struct {
	ID       string
	Category Category
	Override string
}

// NewRequest creates a Request with a freshly generated ULID.
func NewRequest(category Category, override string) Request {
	return Request{
		ID:       newRequestID(),
		Category: category,
		Override: override,
	}
}

// AssetRef returns the reference the request resolves against:
// the override when set, otherwise the category default.
func (r Request) AssetRef() string {
	if r.Override != "" {
		return r.Override
	}
	return r.Category.DefaultAsset()
}

func newRequestID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		// crypto/rand does not fail on supported platforms
		return ulid.Make().String()
	}
	return id.String()
}

// Outcome describes what a Play call ended up doing.
type Outcome string

const (
	// OutcomePlayed means the resolved asset started playing.
	OutcomePlayed Outcome = "played"
	// OutcomeAlerted means the short alert tone was played instead of the asset
	// because another application was producing audio.
	OutcomeAlerted Outcome = "alerted"
	// OutcomeFailed means nothing was played; Err says why.
	OutcomeFailed Outcome = "failed"
	// OutcomeNone means the call had nothing to act on, such as Resume
	// with no paused sound.
	OutcomeNone Outcome = "none"
)

// Result reports the outcome of a Play or Resume call.
type Result struct {
	RequestID string
	Category  Category
	Asset     string
	Outcome   Outcome
	Err       error
}

// OK reports whether something audible was started.
func (r Result) OK() bool {
	return r.Outcome == OutcomePlayed || r.Outcome == OutcomeAlerted
}

// String returns a short human-readable summary.
func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s %s: %v", r.Category, r.Outcome, r.Err)
	}
	if r.Asset != "" {
		return fmt.Sprintf("%s %s (%s)", r.Category, r.Outcome, r.Asset)
	}
	return fmt.Sprintf("%s %s", r.Category, r.Outcome)
}

func failed(req Request, asset string, err error) Result {
	return Result{
		RequestID: req.ID,
		Category:  req.Category,
		Asset:     asset,
		Outcome:   OutcomeFailed,
		Err:       err,
	}
}
