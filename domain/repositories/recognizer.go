package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/careloop/kiosk/domain/entities"
)

// Recognition is the outcome of one listen attempt.
type Recognition struct {
	Transcript string
	Intent     entities.SpeechIntent
}

var (
	// ErrRecognitionUnavailable means the platform has no speech
	// recognition capability. Not a hard error: the device falls back to
	// manual buttons.
	ErrRecognitionUnavailable = errors.New("speech recognition unavailable")

	// ErrListenTimeout means no result arrived within the listen window.
	ErrListenTimeout = errors.New("listen timed out")

	// ErrNoSpeech means the engine ended without producing a result.
	ErrNoSpeech = errors.New("no speech detected")
)

// IntentRecognizer performs a single-shot "listen and resolve one intent"
// operation: single-utterance, non-interim recognition with multiple
// alternative hypotheses. When several alternatives are returned, the first
// one whose classified intent is conclusive is preferred over the literal
// top-ranked hypothesis. Cancelling ctx aborts the listen without error
// leaking into the caller's continuation.
type IntentRecognizer interface {
	ListenOnce(ctx context.Context, timeout time.Duration) (Recognition, error)
}
