package repositories

import (
	"context"
	"fmt"
)

// Transcriber abstracts the remote speech-to-text service used by the
// record-then-transcribe flow. The clip is uploaded whole; streaming
// recognition is the IntentRecognizer's concern.
type Transcriber interface {
	// Transcribe uploads a recorded audio clip and returns plain text.
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// TranscriptionError carries the backend's status code and body on any
// non-success response. The transcriber itself never retries; the state
// machine decides whether to.
type TranscriptionError struct {
	Status int
	Body   string
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed with status %d: %s", e.Status, e.Body)
}
