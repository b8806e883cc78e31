package sound

import (
	"errors"
	"fmt"
	"strings"
)

// Category identifies the chat event a sound is played for.
type Category int

const (
	IncomingCall Category = iota
	IncomingMessage
	IncomingMessageFromOther
	OutgoingCall
	OutgoingMessage
)

// ErrUnknownCategory is returned when a category name cannot be parsed.
var ErrUnknownCategory = errors.New("unknown sound category")

// categoryInfo holds the static data for a category.
type categoryInfo struct {
	name  string // CLI and D-Bus name
	title string // CamelCase form, also the asset basename
	asset string // default bundled asset
}

var categories = [...]categoryInfo{
	IncomingCall:             {"incoming-call", "IncomingCall", "IncomingCall.wav"},
	IncomingMessage:          {"incoming-message", "IncomingMessage", "IncomingMessage.wav"},
	IncomingMessageFromOther: {"incoming-message-from-other", "IncomingMessageFromOther", "IncomingMessageFromOther.wav"},
	OutgoingCall:             {"outgoing-call", "OutgoingCall", "OutgoingCall.wav"},
	OutgoingMessage:          {"outgoing-message", "OutgoingMessage", "OutgoingMessage.wav"},
}

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{
		IncomingCall,
		IncomingMessage,
		IncomingMessageFromOther,
		OutgoingCall,
		OutgoingMessage,
	}
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	return c >= IncomingCall && c <= OutgoingMessage
}

// String returns the kebab-case name used on the command line and over D-Bus.
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categories[c].name
}

// Title returns the CamelCase name of the category.
func (c Category) Title() string {
	if !c.Valid() {
		return c.String()
	}
	return categories[c].title
}

// DefaultAsset returns the name of the bundled asset played for c
// when no override is given.
func (c Category) DefaultAsset() string {
	if !c.Valid() {
		return ""
	}
	return categories[c].asset
}

// IsCall reports whether c is one of the looping call categories.
func (c Category) IsCall() bool {
	return c == IncomingCall || c == OutgoingCall
}

// IsMessage reports whether c is one of the one-shot message categories.
func (c Category) IsMessage() bool {
	return c == IncomingMessage || c == IncomingMessageFromOther || c == OutgoingMessage
}

// ParseCategory parses a category from its kebab-case or CamelCase name.
// Matching is case-insensitive; underscores are treated as dashes.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "_", "-")

	for i, info := range categories {
		if norm == info.name || norm == strings.ToLower(info.title) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
