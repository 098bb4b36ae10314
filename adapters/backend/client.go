// Package backend implements the REST client for the caregiver backend:
// the next-actions queue, response submissions, help escalation and the
// conversational reply endpoint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/careloop/kiosk/domain/entities"
	"github.com/careloop/kiosk/domain/repositories"
	"github.com/careloop/kiosk/internal/auth"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 10 * time.Second
)

// Config holds configuration for the backend client.
// Required fields:
// - BaseURL: the backend base URL
// One of:
// - Token: a static bearer token
// - DeviceID + DeviceSecret: credentials to self-mint a device JWT
type Config struct {
	BaseURL      string
	Token        string
	DeviceID     string
	DeviceSecret string
	Timeout      time.Duration
}

// NewConfigFromEnv creates a Config from environment variables.
func NewConfigFromEnv() Config {
	cfg := Config{
		BaseURL:      os.Getenv("CARELOOP_API_URL"),
		Token:        os.Getenv("CARELOOP_API_TOKEN"),
		DeviceID:     os.Getenv("CARELOOP_DEVICE_ID"),
		DeviceSecret: os.Getenv("CARELOOP_DEVICE_SECRET"),
	}
	return cfg
}

// Client talks to the caregiver backend. All calls carry a bearer token and
// a bounded timeout; none of them retry.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

var _ repositories.ActionService = (*Client)(nil)
var _ repositories.DialogueService = (*Client)(nil)

// NewClient creates a backend client. When no static token is configured a
// device JWT is minted from the device credentials.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
		logger.Info("Using default backend base URL", zap.String("baseURL", baseURL))
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	token := cfg.Token
	if token == "" {
		if cfg.DeviceID == "" || cfg.DeviceSecret == "" {
			return nil, fmt.Errorf("backend client needs a token or device credentials")
		}
		minted, err := auth.GenerateDeviceToken(cfg.DeviceID, []byte(cfg.DeviceSecret))
		if err != nil {
			return nil, fmt.Errorf("failed to mint device token: %w", err)
		}
		token = minted
		logger.Info("Minted device token", zap.String("deviceID", cfg.DeviceID))
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// NextActions returns the backend's current pending actions for the care
// receiver.
func (c *Client) NextActions(ctx context.Context, careReceiverID string) ([]entities.DeviceAction, error) {
	url := fmt.Sprintf("%s/api/chat/device/next-actions?care_receiver_id=%s", c.baseURL, careReceiverID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("next-actions request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &repositories.APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var actions []entities.DeviceAction
	if err := json.NewDecoder(resp.Body).Decode(&actions); err != nil {
		return nil, fmt.Errorf("failed to decode next-actions response: %w", err)
	}
	return actions, nil
}

// SubmitResponse acknowledges an action outcome to the backend.
func (c *Client) SubmitResponse(ctx context.Context, actionID string, response entities.ResponseChoice) error {
	payload := struct {
		ActionID string `json:"action_id"`
		Response string `json:"response"`
	}{ActionID: actionID, Response: string(response)}

	return c.postJSON(ctx, "/api/chat/device/response", payload, nil)
}

// SubmitHelpRequest asks the backend to notify the caregiver.
func (c *Client) SubmitHelpRequest(ctx context.Context, message string) error {
	payload := struct {
		Type    string `json:"type"`
		Message string `json:"message,omitempty"`
	}{Type: "notify_caregiver", Message: message}

	return c.postJSON(ctx, "/api/chat/device/help-request", payload, nil)
}

// Reply sends a transcript to the backend dialogue endpoint and returns the
// free-form reply, implementing the conversational variant.
func (c *Client) Reply(ctx context.Context, message string) (string, error) {
	payload := struct {
		Message string `json:"message"`
	}{Message: message}

	var out struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/chat/message", payload, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &repositories.APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
}
