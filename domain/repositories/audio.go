package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMicrophoneDenied means microphone access was refused or the capture
// device could not be opened. Fatal for the attempt; the user must retry.
var ErrMicrophoneDenied = errors.New("microphone access denied")

// Recorder captures microphone audio as 16 kHz mono little-endian PCM16.
// Recording ends when stop is signalled, maxDuration elapses, or ctx is
// cancelled, whichever comes first.
type Recorder interface {
	Record(ctx context.Context, stop <-chan struct{}, maxDuration time.Duration) ([]byte, error)
}

// Player plays synthesized or streamed audio through the device's output.
// Playback is exclusive: implementations must serialize concurrent calls.
type Player interface {
	PlayBytes(ctx context.Context, audio []byte) error
	PlayURL(ctx context.Context, url string) error
	Stop()
}

// PlaybackError means decoding or output failed. The controller falls back
// to a fixed-duration text display instead of audio.
type PlaybackError struct {
	Reason string
	Err    error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("audio playback failed: %s: %v", e.Reason, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }
