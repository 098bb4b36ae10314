// Package stt contains speech-to-text adapters. The primary implementation
// uploads captured audio to the backend's Whisper transcription endpoint.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/careloop/kiosk/domain/repositories"
)

const (
	transcribePath    = "/api/stt/transcribe"
	defaultSTTTimeout = 30 * time.Second
)

// WhisperConfig holds configuration for the backend transcription client.
// Required fields:
// - BaseURL: the backend base URL
type WhisperConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// NewWhisperConfigFromEnv creates a WhisperConfig from environment variables.
func NewWhisperConfigFromEnv() WhisperConfig {
	return WhisperConfig{
		BaseURL: os.Getenv("CARELOOP_API_URL"),
		Token:   os.Getenv("CARELOOP_API_TOKEN"),
	}
}

// ValidateWhisperConfig checks that required fields are present.
func ValidateWhisperConfig(cfg WhisperConfig) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("transcription base URL is required")
	}
	return nil
}

// WhisperClient uploads audio to the backend, which runs it through a
// Whisper model and returns the transcript.
type WhisperClient struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

var _ repositories.Transcriber = (*WhisperClient)(nil)

// NewWhisperClient creates a transcription client for the backend endpoint.
func NewWhisperClient(cfg WhisperConfig, logger *zap.Logger) (*WhisperClient, error) {
	if err := ValidateWhisperConfig(cfg); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultSTTTimeout
	}
	return &WhisperClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Transcribe uploads the audio as a multipart form and returns the
// recognized text. An empty transcript is a valid result, not an error.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcribePath, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &repositories.TranscriptionError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	c.logger.Debug("Transcription complete",
		zap.Int("audioBytes", len(audio)),
		zap.Int("transcriptLength", len(out.Text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out.Text, nil
}
