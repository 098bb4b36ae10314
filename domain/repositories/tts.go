package repositories

import (
	"context"
	"fmt"
)

// SpeechSynthesizer converts text into playable audio bytes (MP3).
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// SynthesisError is returned on a non-success response from the voice
// backend.
type SynthesisError struct {
	Status int
	Body   string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed with status %d: %s", e.Status, e.Body)
}
