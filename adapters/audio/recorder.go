// Package audio implements microphone capture via PortAudio and speaker
// playback via beep.
package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"github.com/careloop/kiosk/domain/repositories"
)

const (
	captureSampleRate = 16000
	captureFrameSize  = 1024
)

var portaudioOnce sync.Once

func initPortaudio() error {
	var err error
	portaudioOnce.Do(func() {
		err = portaudio.Initialize()
	})
	return err
}

// MicRecorder captures mono 16 kHz PCM16 from the default input device.
type MicRecorder struct {
	logger *zap.Logger
}

var _ repositories.Recorder = (*MicRecorder)(nil)

// NewMicRecorder creates a recorder bound to the default input device.
// PortAudio is initialized on first use and kept initialized for the
// lifetime of the process.
func NewMicRecorder(logger *zap.Logger) *MicRecorder {
	return &MicRecorder{logger: logger}
}

// Record captures audio until stop fires, maxDuration elapses or ctx is
// cancelled. Failure to open the input device maps to ErrMicrophoneDenied.
func (r *MicRecorder) Record(ctx context.Context, stop <-chan struct{}, maxDuration time.Duration) ([]byte, error) {
	if err := initPortaudio(); err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrMicrophoneDenied, err)
	}
	if maxDuration <= 0 {
		maxDuration = 15 * time.Second
	}

	buf := make([]int16, captureFrameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(captureSampleRate), len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrMicrophoneDenied, err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrMicrophoneDenied, err)
	}
	defer stream.Stop()

	deadline := time.Now().Add(maxDuration)
	out := make([]int16, 0, captureSampleRate*int(math.Ceil(maxDuration.Seconds())))

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return encodePCM16(out), ctx.Err()
		case <-stop:
			r.logger.Debug("Recording stopped", zap.Int("samples", len(out)))
			return encodePCM16(out), nil
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("microphone read failed: %w", err)
		}
		out = append(out, buf...)
	}

	r.logger.Debug("Recording hit max duration", zap.Int("samples", len(out)))
	return encodePCM16(out), nil
}

func encodePCM16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
