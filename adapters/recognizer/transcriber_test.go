package recognizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/careloop/kiosk/domain/entities"
	"github.com/careloop/kiosk/domain/repositories"
)

type fakeRecorder struct {
	pcm []byte
	err error
}

func (f *fakeRecorder) Record(ctx context.Context, stop <-chan struct{}, maxDuration time.Duration) ([]byte, error) {
	return f.pcm, f.err
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	return f.text, f.err
}

func TestTranscriberRecognizerListenOnce(t *testing.T) {
	r := NewTranscriberRecognizer(
		&fakeRecorder{pcm: make([]byte, 3200)},
		&fakeTranscriber{text: "oui bien sûr"},
		zaptest.NewLogger(t),
	)

	got, err := r.ListenOnce(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("ListenOnce() error = %v", err)
	}
	if got.Intent != entities.IntentYes {
		t.Errorf("Intent = %q, want yes", got.Intent)
	}
	if got.Transcript != "oui bien sûr" {
		t.Errorf("Transcript = %q", got.Transcript)
	}
}

func TestTranscriberRecognizerEmptyTranscript(t *testing.T) {
	r := NewTranscriberRecognizer(
		&fakeRecorder{pcm: make([]byte, 3200)},
		&fakeTranscriber{text: "  "},
		zaptest.NewLogger(t),
	)

	_, err := r.ListenOnce(context.Background(), time.Second)
	if !errors.Is(err, repositories.ErrNoSpeech) {
		t.Errorf("error = %v, want ErrNoSpeech", err)
	}
}

func TestTranscriberRecognizerMicDenied(t *testing.T) {
	r := NewTranscriberRecognizer(
		&fakeRecorder{err: repositories.ErrMicrophoneDenied},
		&fakeTranscriber{},
		zaptest.NewLogger(t),
	)

	_, err := r.ListenOnce(context.Background(), time.Second)
	if !errors.Is(err, repositories.ErrMicrophoneDenied) {
		t.Errorf("error = %v, want ErrMicrophoneDenied", err)
	}
}

func TestTranscriberRecognizerNoAudio(t *testing.T) {
	r := NewTranscriberRecognizer(
		&fakeRecorder{},
		&fakeTranscriber{text: "yes"},
		zaptest.NewLogger(t),
	)

	_, err := r.ListenOnce(context.Background(), time.Second)
	if !errors.Is(err, repositories.ErrNoSpeech) {
		t.Errorf("error = %v, want ErrNoSpeech", err)
	}
}
