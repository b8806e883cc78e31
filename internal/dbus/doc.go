// Package dbus connects chime to the session bus. It exports the
// io.github.jmylchreest.Chime control interface used by the chime CLI,
// provides a client for it, passively monitors org.freedesktop.Notifications
// traffic for chat notifications, and probes MPRIS players to find out
// whether other audio is playing.
package dbus
