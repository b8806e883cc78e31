// Package daemon provides the main orchestration for chimed.
// It coordinates the audio manager, the D-Bus control server, the
// notification monitor and configuration hot-reload.
package daemon
