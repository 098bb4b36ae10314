package audio

import (
	"context"

	"github.com/careloop/kiosk/domain/repositories"
)

// WAVTranscriber wraps raw PCM16 capture output in a WAV container before
// handing it to the underlying transcriber. Endpoints that sniff the upload
// by content need the header, not just the extension.
type WAVTranscriber struct {
	next repositories.Transcriber
}

var _ repositories.Transcriber = (*WAVTranscriber)(nil)

// NewWAVTranscriber wraps next with WAV encoding.
func NewWAVTranscriber(next repositories.Transcriber) *WAVTranscriber {
	return &WAVTranscriber{next: next}
}

// Transcribe encodes pcm as WAV and delegates to the wrapped transcriber.
func (w *WAVTranscriber) Transcribe(ctx context.Context, pcm []byte, filename string) (string, error) {
	wavData, err := EncodeWAV(pcm)
	if err != nil {
		return "", err
	}
	return w.next.Transcribe(ctx, wavData, filename)
}
