// Package audio provides notification sound playback on top of the beep library.
// It decodes WAV, OGG and MP3 assets, plays them through the speaker with
// looping, pause and volume control, and synthesizes the short alert tone.
package audio
