// Package sound implements the notification sound player used by chime.
//
// A Player owns at most one playback resource at a time. Each Play call
// resolves an asset for a SoundCategory (or a caller-supplied override),
// configures the shared audio Session for that category, and starts
// playback, replacing whatever was playing before. Failures are reported
// through a Result rather than being discarded.
//
// The platform pieces (asset lookup, audio session, decoded resources) are
// consumed through the Bundle, Session and Backend interfaces so the state
// machine can be exercised without audio hardware.
package sound
