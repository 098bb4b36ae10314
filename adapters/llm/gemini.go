// Package llm implements the conversational fallback on Google's Gemini
// API. It handles utterances that classify to no intent, so the resident
// always gets a spoken reply instead of silence.
package llm

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/careloop/kiosk/domain/repositories"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultTemperature    = 0.7
	defaultTopP           = 0.9
	defaultTopK           = 40
	defaultMaxTokens      = 256
	defaultTimeoutSeconds = 30
	maxHistoryTurns       = 20
)

const systemPrompt = `You are a gentle voice companion on a device that sits with an elderly
person at home. Reply in one or two short spoken sentences, warm and
concrete. Never give medical advice; if they sound unwell or distressed,
suggest pressing the help button so their caregiver is notified. Answer in
the language the person spoke.`

var fallbackReplies = []string{
	"I'm here with you. Could you say that again?",
	"Sorry, I didn't catch that. Tell me once more?",
	"I'm listening. What would you like to talk about?",
}

// GeminiConfig holds configuration for the Gemini dialogue adapter.
// Required fields:
// - APIKey: Google AI API key
// Optional fields with defaults:
// - Model: the model ID to use (default: "gemini-2.0-flash")
// - Temperature, TopP, TopK, MaxOutputTokens, TimeoutSeconds
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int
	TimeoutSeconds  int
}

// NewGeminiConfigFromEnv creates a GeminiConfig from environment variables.
func NewGeminiConfigFromEnv() GeminiConfig {
	cfg := GeminiConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  os.Getenv("GEMINI_MODEL"),
	}
	if v, err := strconv.Atoi(os.Getenv("GEMINI_TIMEOUT_SECONDS")); err == nil {
		cfg.TimeoutSeconds = v
	}
	return cfg
}

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Google AI API key is required")
	}

	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 1) {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", config.Temperature)
	}

	if config.TopP != 0 && (config.TopP < 0 || config.TopP > 1) {
		return fmt.Errorf("topP must be between 0 and 1, got %f", config.TopP)
	}

	if config.TopK < 0 {
		return fmt.Errorf("topK must be positive, got %f", config.TopK)
	}

	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}

	return nil
}

// GeminiDialogue implements DialogueService using Google's Gemini API. It
// keeps a rolling conversation history so consecutive exchanges stay
// coherent within a visit.
type GeminiDialogue struct {
	client          *genai.Client
	logger          *zap.Logger
	model           string
	temperature     float32
	topP            float32
	topK            float32
	maxOutputTokens int
	timeoutSeconds  int

	mu      sync.Mutex
	history []*genai.Content
}

var _ repositories.DialogueService = (*GeminiDialogue)(nil)

// NewGeminiDialogue creates a Gemini-backed dialogue service.
func NewGeminiDialogue(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiDialogue, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultModel
		logger.Info("Using default model", zap.String("model", model))
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = float32(defaultTemperature)
	}

	topP := config.TopP
	if topP == 0 {
		topP = float32(defaultTopP)
	}

	topK := config.TopK
	if topK == 0 {
		topK = float32(defaultTopK)
	}

	maxOutputTokens := config.MaxOutputTokens
	if maxOutputTokens == 0 {
		maxOutputTokens = defaultMaxTokens
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	return &GeminiDialogue{
		client:          client,
		logger:          logger,
		model:           model,
		temperature:     temperature,
		topP:            topP,
		topK:            topK,
		maxOutputTokens: maxOutputTokens,
		timeoutSeconds:  timeoutSeconds,
	}, nil
}

// Reply sends the resident's utterance to Gemini and returns a short spoken
// reply. API failures degrade to a fixed fallback phrase rather than an
// error, so the device always has something to say.
func (g *GeminiDialogue) Reply(ctx context.Context, message string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var contents []*genai.Content
	contents = append(contents, genai.NewContentFromText(systemPrompt, genai.RoleUser))
	contents = append(contents, g.history...)

	userContent := genai.NewContentFromText(message, genai.RoleUser)
	contents = append(contents, userContent)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		TopP:            genai.Ptr(g.topP),
		TopK:            genai.Ptr(g.topK),
		MaxOutputTokens: int32(g.maxOutputTokens),
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.timeoutSeconds)*time.Second)
	defer cancel()

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		response, err = g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			break
		}

		g.logger.Warn("Failed to generate content, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < 2 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}

	if err != nil {
		g.logger.Error("Gemini request failed, using fallback", zap.Error(err))
		return g.fallbackReply(), nil
	}

	var responseText string
	if len(response.Candidates) > 0 && response.Candidates[0].Content != nil {
		for _, part := range response.Candidates[0].Content.Parts {
			if part.Text != "" {
				responseText += part.Text
			}
		}
	}
	if responseText == "" {
		g.logger.Warn("No content generated, using fallback")
		return g.fallbackReply(), nil
	}

	g.history = append(g.history, userContent, genai.NewContentFromText(responseText, genai.RoleModel))
	if len(g.history) > maxHistoryTurns*2 {
		g.history = g.history[len(g.history)-maxHistoryTurns*2:]
	}

	g.logger.Debug("Dialogue reply generated",
		zap.Int("historyLength", len(g.history)),
		zap.Int("replyLength", len(responseText)))
	return responseText, nil
}

func (g *GeminiDialogue) fallbackReply() string {
	reply := fallbackReplies[int(time.Now().UnixNano())%len(fallbackReplies)]
	g.history = append(g.history, genai.NewContentFromText(reply, genai.RoleModel))
	return reply
}
