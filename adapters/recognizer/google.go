// Package recognizer implements one-shot intent recognition: capture a short
// utterance from the microphone, run it through Google Cloud Speech, and
// classify the best alternative into an intent.
package recognizer

import (
	"context"
	"fmt"
	"os"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/careloop/kiosk/domain/entities"
	"github.com/careloop/kiosk/domain/repositories"
	"github.com/careloop/kiosk/internal/intent"
)

const (
	defaultLanguage   = "en-US"
	maxAlternatives   = 3
	recognizeDeadline = 30 * time.Second
)

// GoogleConfig holds configuration for the Google recognizer.
// Optional fields with defaults:
// - Language: primary recognition language (default: "en-US")
// - AlternativeLanguages: extra languages the resident may answer in
type GoogleConfig struct {
	Language             string
	AlternativeLanguages []string
}

// NewGoogleConfigFromEnv creates a GoogleConfig from environment variables.
func NewGoogleConfigFromEnv() GoogleConfig {
	cfg := GoogleConfig{
		Language: os.Getenv("SPEECH_LANGUAGE"),
	}
	if os.Getenv("SPEECH_ALT_LANGUAGE") != "" {
		cfg.AlternativeLanguages = []string{os.Getenv("SPEECH_ALT_LANGUAGE")}
	}
	return cfg
}

// GoogleRecognizer records from the microphone and recognizes the utterance
// with Google Cloud Speech. Several alternatives are requested and the first
// one that classifies to a conclusive intent wins, so a mis-heard top
// hypothesis does not sink the whole attempt.
type GoogleRecognizer struct {
	client   *speech.Client
	recorder repositories.Recorder
	language string
	altLangs []string
	logger   *zap.Logger
}

var _ repositories.IntentRecognizer = (*GoogleRecognizer)(nil)

// NewGoogleRecognizer creates a recognizer backed by Google Cloud Speech.
// Credentials come from the usual GOOGLE_APPLICATION_CREDENTIALS lookup.
func NewGoogleRecognizer(ctx context.Context, cfg GoogleConfig, recorder repositories.Recorder, logger *zap.Logger) (*GoogleRecognizer, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	language := cfg.Language
	if language == "" {
		language = defaultLanguage
		logger.Info("Using default recognition language", zap.String("language", language))
	}

	return &GoogleRecognizer{
		client:   client,
		recorder: recorder,
		language: language,
		altLangs: cfg.AlternativeLanguages,
		logger:   logger,
	}, nil
}

// Close releases the underlying speech client.
func (g *GoogleRecognizer) Close() error {
	return g.client.Close()
}

// ListenOnce records one utterance and returns its transcript and intent.
// A recognition result whose alternatives are all inconclusive still
// returns the top transcript with IntentUnknown; no speech at all returns
// ErrNoSpeech.
func (g *GoogleRecognizer) ListenOnce(ctx context.Context, timeout time.Duration) (repositories.Recognition, error) {
	var zero repositories.Recognition

	pcm, err := g.recorder.Record(ctx, nil, timeout)
	if err != nil {
		return zero, err
	}
	if len(pcm) == 0 {
		return zero, repositories.ErrNoSpeech
	}

	recognizeCtx, cancel := context.WithTimeout(ctx, recognizeDeadline)
	defer cancel()

	resp, err := g.client.Recognize(recognizeCtx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                 speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:          16000,
			LanguageCode:             g.language,
			AlternativeLanguageCodes: g.altLangs,
			MaxAlternatives:          maxAlternatives,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	})
	if err != nil {
		if recognizeCtx.Err() != nil {
			return zero, repositories.ErrListenTimeout
		}
		return zero, fmt.Errorf("%w: %v", repositories.ErrRecognitionUnavailable, err)
	}

	if len(resp.Results) == 0 || len(resp.Results[0].Alternatives) == 0 {
		return zero, repositories.ErrNoSpeech
	}

	alternatives := resp.Results[0].Alternatives
	transcripts := make([]string, len(alternatives))
	for i, alt := range alternatives {
		transcripts[i] = alt.Transcript
	}
	best := classifyAlternatives(transcripts)

	g.logger.Debug("Utterance recognized",
		zap.String("transcript", best.Transcript),
		zap.String("intent", string(best.Intent)),
		zap.Int("alternatives", len(alternatives)),
	)
	return best, nil
}

// classifyAlternatives picks the first alternative with a conclusive
// intent, falling back to the top transcript marked unknown.
func classifyAlternatives(transcripts []string) repositories.Recognition {
	if len(transcripts) == 0 {
		return repositories.Recognition{Intent: entities.IntentUnknown}
	}
	best := repositories.Recognition{
		Transcript: transcripts[0],
		Intent:     intent.Classify(transcripts[0]),
	}
	if !best.Intent.Conclusive() {
		for _, tr := range transcripts[1:] {
			if i := intent.Classify(tr); i.Conclusive() {
				return repositories.Recognition{Transcript: tr, Intent: i}
			}
		}
	}
	return best
}
