package dbus

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPrefix         = "org.mpris.MediaPlayer2."
	mprisPath           = "/org/mpris/MediaPlayer2"
	mprisPlayerIface    = "org.mpris.MediaPlayer2.Player"
	mprisStatusPlaying  = "Playing"
	mprisPlaybackStatus = mprisPlayerIface + ".PlaybackStatus"
)

// OtherAudioPlaying reports whether any MPRIS media player on conn is
// currently playing. Players that fail to answer are skipped.
func OtherAudioPlaying(conn *dbus.Conn) (bool, error) {
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return false, fmt.Errorf("failed to list bus names: %w", err)
	}

	for _, name := range mediaPlayers(names) {
		status, err := conn.Object(name, mprisPath).GetProperty(mprisPlaybackStatus)
		if err != nil {
			continue
		}
		if isPlaying(status) {
			return true, nil
		}
	}
	return false, nil
}

// DetectOtherAudio returns a detector suitable for the sound player. It
// connects to the session bus when called and reports false if the bus
// is unavailable.
func DetectOtherAudio(logger *slog.Logger) func() bool {
	if logger == nil {
		logger = slog.Default()
	}
	return func() bool {
		conn, err := dbus.SessionBus()
		if err != nil {
			logger.Debug("other audio detection unavailable", "error", err)
			return false
		}
		playing, err := OtherAudioPlaying(conn)
		if err != nil {
			logger.Debug("other audio detection failed", "error", err)
			return false
		}
		logger.Debug("other audio detected", "playing", playing)
		return playing
	}
}

// mediaPlayers filters bus names down to MPRIS players.
func mediaPlayers(names []string) []string {
	var players []string
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) && len(name) > len(mprisPrefix) {
			players = append(players, name)
		}
	}
	return players
}

func isPlaying(status dbus.Variant) bool {
	s, ok := status.Value().(string)
	return ok && s == mprisStatusPlaying
}
