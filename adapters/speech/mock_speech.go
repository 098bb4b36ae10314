// Package speech holds offline stand-ins for the audio pipeline, used when
// the kiosk runs without a microphone, speaker or speech credentials.
package speech

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/careloop/kiosk/domain/repositories"
	"github.com/careloop/kiosk/internal/intent"
)

// MockRecognizer is a placeholder implementation for intent recognition.
// It replays a scripted list of utterances, one per ListenOnce call.
type MockRecognizer struct {
	logger  *zap.Logger
	script  []string
	nextIdx int
}

var _ repositories.IntentRecognizer = (*MockRecognizer)(nil)

// NewMockRecognizer creates a recognizer that replays the given utterances.
// An empty script answers "yes" forever.
func NewMockRecognizer(script []string, logger *zap.Logger) *MockRecognizer {
	if len(script) == 0 {
		script = []string{"yes"}
	}
	return &MockRecognizer{logger: logger, script: script}
}

// ListenOnce implements repositories.IntentRecognizer
func (m *MockRecognizer) ListenOnce(ctx context.Context, timeout time.Duration) (repositories.Recognition, error) {
	transcript := m.script[m.nextIdx%len(m.script)]
	m.nextIdx++

	recognition := repositories.Recognition{
		Transcript: transcript,
		Intent:     intent.Classify(transcript),
	}
	m.logger.Info("Mock recognition",
		zap.String("transcript", recognition.Transcript),
		zap.String("intent", string(recognition.Intent)))
	return recognition, nil
}

// MockSynthesizer is a placeholder implementation for text-to-speech
type MockSynthesizer struct {
	logger *zap.Logger
}

var _ repositories.SpeechSynthesizer = (*MockSynthesizer)(nil)

// NewMockSynthesizer creates a new mock synthesizer
func NewMockSynthesizer(logger *zap.Logger) *MockSynthesizer {
	return &MockSynthesizer{logger: logger}
}

// Synthesize implements repositories.SpeechSynthesizer
func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.logger.Info("Mock synthesis", zap.String("text", text))

	// Mock audio data - generate based on text length
	mockAudio := make([]byte, len(text)*100)
	for i := range mockAudio {
		mockAudio[i] = byte(i % 256)
	}
	return mockAudio, nil
}

// MockPlayer is a placeholder implementation for audio playback. It sleeps
// briefly instead of producing sound so timing-sensitive flows still run.
type MockPlayer struct {
	logger *zap.Logger
	delay  time.Duration
}

var _ repositories.Player = (*MockPlayer)(nil)

// NewMockPlayer creates a new mock player
func NewMockPlayer(logger *zap.Logger) *MockPlayer {
	return &MockPlayer{logger: logger, delay: 50 * time.Millisecond}
}

// PlayBytes implements repositories.Player
func (m *MockPlayer) PlayBytes(ctx context.Context, audio []byte) error {
	m.logger.Info("Mock playback", zap.Int("audioBytes", len(audio)))
	select {
	case <-time.After(m.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PlayURL implements repositories.Player
func (m *MockPlayer) PlayURL(ctx context.Context, url string) error {
	m.logger.Info("Mock URL playback", zap.String("url", url))
	select {
	case <-time.After(m.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop implements repositories.Player
func (m *MockPlayer) Stop() {}
