package dbus

import (
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/chime/internal/sound"
)

// CategoryHint is a vendor hint naming the chime category directly.
const CategoryHint = "x-chime-category"

// notificationCategories maps freedesktop category hints to sound categories.
var notificationCategories = map[string]sound.Category{
	"call.incoming":         sound.IncomingCall,
	"call.outgoing":         sound.OutgoingCall,
	"im.received":           sound.IncomingMessage,
	"im.received.other":     sound.IncomingMessageFromOther,
	"im.sent":               sound.OutgoingMessage,
	"x-chime.call.incoming": sound.IncomingCall,
	"x-chime.call.outgoing": sound.OutgoingCall,
}

// notificationSounds maps freedesktop sound theme names to sound categories.
var notificationSounds = map[string]sound.Category{
	"phone-incoming-call":    sound.IncomingCall,
	"phone-outgoing-calling": sound.OutgoingCall,
	"message-new-instant":    sound.IncomingMessage,
	"message-sent-instant":   sound.OutgoingMessage,
}

// DBusNotification represents an observed org.freedesktop.Notifications.Notify call.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Category extracts the category hint from the notification.
// Returns empty string if not specified.
func (n *DBusNotification) Category() string {
	return n.stringHint("category")
}

// SoundFile extracts the sound-file hint.
func (n *DBusNotification) SoundFile() string {
	return n.stringHint("sound-file")
}

// SoundName extracts the sound-name hint.
func (n *DBusNotification) SoundName() string {
	return n.stringHint("sound-name")
}

// DesktopEntry extracts the desktop-entry hint.
func (n *DBusNotification) DesktopEntry() string {
	return n.stringHint("desktop-entry")
}

// SuppressSound returns true if the suppress-sound hint is set.
func (n *DBusNotification) SuppressSound() bool {
	if v, ok := n.Hints["suppress-sound"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// SoundCategory returns the sound category this notification should play,
// if any. The x-chime-category hint wins over the freedesktop category,
// which wins over the sound-name hint.
func (n *DBusNotification) SoundCategory() (sound.Category, bool) {
	if name := n.stringHint(CategoryHint); name != "" {
		if c, err := sound.ParseCategory(name); err == nil {
			return c, true
		}
	}

	if c, ok := notificationCategories[strings.ToLower(n.Category())]; ok {
		return c, true
	}
	c, ok := notificationSounds[strings.ToLower(n.SoundName())]
	return c, ok
}

// SoundOverride returns the sound-file hint as a playback override,
// accepting both plain paths and file:// URLs.
func (n *DBusNotification) SoundOverride() string {
	return n.SoundFile()
}

func (n *DBusNotification) stringHint(name string) string {
	if v, ok := n.Hints[name]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}
