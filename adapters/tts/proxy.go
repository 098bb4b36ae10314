package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/careloop/kiosk/domain/repositories"
)

const speakPath = "/api/tts/speak"

// ProxyTTS implements SpeechSynthesizer against the backend's /api/tts/speak
// endpoint, which fronts Eleven Labs server-side so the device never holds
// the API key.
type ProxyTTS struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

var _ repositories.SpeechSynthesizer = (*ProxyTTS)(nil)

// NewProxyTTS creates a synthesizer that delegates to the backend.
func NewProxyTTS(baseURL, token string, logger *zap.Logger) (*ProxyTTS, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("proxy TTS base URL is required")
	}
	return &ProxyTTS{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultTTSTimeout},
		logger:  logger,
	}, nil
}

// Synthesize sends the text to the backend and returns the audio bytes as-is.
func (p *ProxyTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	payload, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+speakPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	start := time.Now()
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &repositories.SynthesisError{Status: resp.StatusCode, Body: string(respBody)}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis returned no audio")
	}

	p.logger.Debug("Proxy synthesis complete",
		zap.Int("textLength", len(text)),
		zap.Int("audioBytes", len(audio)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return audio, nil
}
