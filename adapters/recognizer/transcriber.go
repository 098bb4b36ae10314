package recognizer

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/careloop/kiosk/adapters/audio"
	"github.com/careloop/kiosk/domain/repositories"
	"github.com/careloop/kiosk/internal/intent"
)

// TranscriberRecognizer records an utterance, wraps it in a WAV container
// and runs it through a remote Transcriber. Used when the kiosk has no
// Google credentials and relies on the backend's Whisper endpoint instead.
type TranscriberRecognizer struct {
	recorder    repositories.Recorder
	transcriber repositories.Transcriber
	logger      *zap.Logger
}

var _ repositories.IntentRecognizer = (*TranscriberRecognizer)(nil)

// NewTranscriberRecognizer creates a recognizer on top of a recorder and a
// remote transcriber.
func NewTranscriberRecognizer(recorder repositories.Recorder, transcriber repositories.Transcriber, logger *zap.Logger) *TranscriberRecognizer {
	return &TranscriberRecognizer{
		recorder:    recorder,
		transcriber: transcriber,
		logger:      logger,
	}
}

// ListenOnce records until timeout, uploads the audio and classifies the
// transcript. The remote endpoint returns a single transcript, so there is
// no alternative to fall back to.
func (t *TranscriberRecognizer) ListenOnce(ctx context.Context, timeout time.Duration) (repositories.Recognition, error) {
	var zero repositories.Recognition

	pcm, err := t.recorder.Record(ctx, nil, timeout)
	if err != nil {
		return zero, err
	}
	if len(pcm) == 0 {
		return zero, repositories.ErrNoSpeech
	}

	wavData, err := audio.EncodeWAV(pcm)
	if err != nil {
		return zero, err
	}

	transcript, err := t.transcriber.Transcribe(ctx, wavData, "recording.wav")
	if err != nil {
		return zero, err
	}
	if strings.TrimSpace(transcript) == "" {
		return zero, repositories.ErrNoSpeech
	}

	recognition := repositories.Recognition{
		Transcript: transcript,
		Intent:     intent.Classify(transcript),
	}
	t.logger.Debug("Utterance transcribed",
		zap.String("transcript", recognition.Transcript),
		zap.String("intent", string(recognition.Intent)),
	)
	return recognition, nil
}
