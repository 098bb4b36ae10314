package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"go.uber.org/zap"

	"github.com/careloop/kiosk/domain/repositories"
)

// SpeakerPlayer plays MP3 clips through the default output device using
// beep. Playback is exclusive; a second call waits for the first to finish
// unless Stop is used.
type SpeakerPlayer struct {
	mu     sync.Mutex
	logger *zap.Logger
	http   *http.Client

	initOnce   sync.Once
	initErr    error
	sampleRate beep.SampleRate

	interruptMu sync.Mutex
	interrupt   chan struct{}
}

var _ repositories.Player = (*SpeakerPlayer)(nil)

// NewSpeakerPlayer creates a player for the default output device. The
// speaker is initialized lazily on first playback because beep fixes the
// sample rate at init time.
func NewSpeakerPlayer(logger *zap.Logger) *SpeakerPlayer {
	return &SpeakerPlayer{
		logger: logger,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

// PlayBytes decodes an MP3 clip and plays it to completion. It returns when
// the clip ends, ctx is cancelled, or Stop is called.
func (p *SpeakerPlayer) PlayBytes(ctx context.Context, audio []byte) error {
	return p.play(ctx, io.NopCloser(bytes.NewReader(audio)))
}

// PlayURL fetches an MP3 over HTTP and plays it. The whole body is read
// before playback starts; recorded family messages are short enough that
// buffering them is fine.
func (p *SpeakerPlayer) PlayURL(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &repositories.PlaybackError{Reason: "bad audio url", Err: err}
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return &repositories.PlaybackError{Reason: "fetch failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &repositories.PlaybackError{
			Reason: "fetch failed",
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &repositories.PlaybackError{Reason: "fetch failed", Err: err}
	}
	return p.play(ctx, io.NopCloser(bytes.NewReader(body)))
}

// Stop interrupts whatever is currently playing.
func (p *SpeakerPlayer) Stop() {
	p.interruptMu.Lock()
	if p.interrupt != nil {
		close(p.interrupt)
		p.interrupt = nil
	}
	p.interruptMu.Unlock()
	speaker.Clear()
}

func (p *SpeakerPlayer) play(ctx context.Context, rc io.ReadCloser) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	streamer, format, err := mp3.Decode(rc)
	if err != nil {
		return &repositories.PlaybackError{Reason: "decode failed", Err: err}
	}
	defer streamer.Close()

	p.initOnce.Do(func() {
		p.sampleRate = format.SampleRate
		p.initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if p.initErr != nil {
		return &repositories.PlaybackError{Reason: "speaker init failed", Err: p.initErr}
	}

	// The speaker runs at the first clip's rate; resample later clips
	// that differ.
	var stream beep.Streamer = streamer
	if format.SampleRate != p.sampleRate {
		stream = beep.Resample(4, format.SampleRate, p.sampleRate, streamer)
	}

	interrupt := make(chan struct{})
	p.interruptMu.Lock()
	p.interrupt = interrupt
	p.interruptMu.Unlock()
	defer func() {
		p.interruptMu.Lock()
		if p.interrupt == interrupt {
			p.interrupt = nil
		}
		p.interruptMu.Unlock()
	}()

	done := make(chan struct{})
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-interrupt:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
