package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/careloop/kiosk/adapters/audio"
	"github.com/careloop/kiosk/adapters/backend"
	"github.com/careloop/kiosk/adapters/llm"
	"github.com/careloop/kiosk/adapters/recognizer"
	"github.com/careloop/kiosk/adapters/speech"
	"github.com/careloop/kiosk/adapters/stt"
	"github.com/careloop/kiosk/adapters/tts"
	"github.com/careloop/kiosk/domain/repositories"
	"github.com/careloop/kiosk/internal/api"
	"github.com/careloop/kiosk/internal/poller"
	"github.com/careloop/kiosk/internal/websocket"
	"github.com/careloop/kiosk/usecase"
)

func main() {
	addr := pflag.String("addr", ":8090", "local API listen address")
	envFile := pflag.String("env-file", "", "optional .env file to load")
	offline := pflag.Bool("offline", false, "run with mock audio and speech adapters")
	pflag.Parse()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			logger.Fatal("Failed to load env file", zap.String("path", *envFile), zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Backend client: action queue, responses, help requests, chat.
	client, err := backend.NewClient(backend.NewConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to create backend client", zap.Error(err))
	}

	careReceiverID := os.Getenv("CARELOOP_CARE_RECEIVER_ID")
	if careReceiverID == "" {
		logger.Fatal("CARELOOP_CARE_RECEIVER_ID is required")
	}

	actionPoller := poller.New(client, careReceiverID, 0, logger)

	deps := usecase.Deps{
		Actions: client,
		Source:  actionPoller,
	}

	if *offline {
		logger.Info("Running in offline mode with mock adapters")
		deps.Recognizer = speech.NewMockRecognizer(nil, logger)
		deps.Synthesizer = speech.NewMockSynthesizer(logger)
		deps.Player = speech.NewMockPlayer(logger)
	} else {
		deps.Recorder = audio.NewMicRecorder(logger)
		deps.Player = audio.NewSpeakerPlayer(logger)
		deps.Synthesizer = buildSynthesizer(client, logger)
		whisper := buildTranscriber(logger)
		// The controller hands raw PCM to its transcriber; the recognizer
		// path adds its own WAV container.
		deps.Transcriber = audio.NewWAVTranscriber(whisper)
		deps.Recognizer = buildRecognizer(ctx, deps.Recorder, whisper, logger)
	}

	deps.Dialogue = buildDialogue(ctx, client, logger)

	controller, err := usecase.NewController(usecase.Config{
		CareReceiverID: careReceiverID,
		CaregiverName:  os.Getenv("CARELOOP_CAREGIVER_NAME"),
	}, deps, logger)
	if err != nil {
		logger.Fatal("Failed to create controller", zap.Error(err))
	}

	// Display hub mirrors controller status over websocket.
	hub := websocket.NewHub(logger)
	go hub.Run()
	controller.SetOnChange(func(status usecase.Status) {
		payload, err := websocket.NewStatusUpdateMessage(status).Marshal()
		if err != nil {
			logger.Warn("Failed to marshal status update", zap.Error(err))
			return
		}
		hub.Broadcast(payload)
	})

	go actionPoller.Run(ctx)
	go controller.Run(ctx)

	// Local API
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	api.InitRoutes(e, controller, hub, logger)

	go func() {
		if err := e.Start(*addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Kiosk started",
		zap.String("addr", *addr),
		zap.String("careReceiverID", careReceiverID),
		zap.Bool("offline", *offline))

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Kiosk is shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Kiosk exited")
}

// buildSynthesizer prefers a direct Eleven Labs key and falls back to the
// backend's TTS proxy.
func buildSynthesizer(client *backend.Client, logger *zap.Logger) repositories.SpeechSynthesizer {
	cfg := tts.NewElevenLabsConfigFromEnv()
	if cfg.APIKey != "" {
		synth, err := tts.NewElevenLabsTTS(cfg, logger)
		if err == nil {
			return synth
		}
		logger.Warn("Eleven Labs setup failed, falling back to backend proxy", zap.Error(err))
	}

	proxy, err := tts.NewProxyTTS(os.Getenv("CARELOOP_API_URL"), os.Getenv("CARELOOP_API_TOKEN"), logger)
	if err != nil {
		logger.Fatal("No speech synthesizer available", zap.Error(err))
	}
	return proxy
}

func buildTranscriber(logger *zap.Logger) repositories.Transcriber {
	whisper, err := stt.NewWhisperClient(stt.NewWhisperConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("No transcription endpoint configured", zap.Error(err))
	}
	return whisper
}

// buildRecognizer prefers Google Cloud Speech when credentials are present
// and otherwise composes the recorder with the backend transcriber.
func buildRecognizer(ctx context.Context, recorder repositories.Recorder, transcriber repositories.Transcriber, logger *zap.Logger) repositories.IntentRecognizer {
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		google, err := recognizer.NewGoogleRecognizer(ctx, recognizer.NewGoogleConfigFromEnv(), recorder, logger)
		if err == nil {
			return google
		}
		logger.Warn("Google recognizer setup failed, using transcriber instead", zap.Error(err))
	}
	return recognizer.NewTranscriberRecognizer(recorder, transcriber, logger)
}

// buildDialogue prefers Gemini for free-form replies and falls back to the
// backend chat endpoint. Returning the backend client keeps the
// conversational tap flow alive without any AI credentials.
func buildDialogue(ctx context.Context, client *backend.Client, logger *zap.Logger) repositories.DialogueService {
	cfg := llm.NewGeminiConfigFromEnv()
	if cfg.APIKey != "" {
		dialogue, err := llm.NewGeminiDialogue(ctx, cfg, logger)
		if err == nil {
			return dialogue
		}
		logger.Warn("Gemini setup failed, using backend chat", zap.Error(err))
	}
	return client
}
