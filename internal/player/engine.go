// Package player wraps the audio decoding and output engine behind the
// capability set the rest of the application relies on.
package player

import "errors"

// ErrUnsupportedFormat is returned by Load for extensions the engine cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Engine is the playback capability set. Implementations are driven from the
// control loop only, but must tolerate their own output goroutines.
type Engine interface {
	Load(path string) error
	Unload()

	Play() error
	Pause()
	Stop()

	HasMedia() bool
	IsPlaying() bool

	// PositionMs returns -1 when nothing is loaded.
	PositionMs() int
	DurationMs() int
	SetPositionMs(ms int) error

	// SetVolume takes a percentage in [0, 100]; out of range values are clamped.
	SetVolume(percent int)
	Volume() int

	Close() error
}

// ClampVolume bounds a volume percentage to [0, 100].
func ClampVolume(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
