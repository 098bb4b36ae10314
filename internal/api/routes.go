// Package api is the kiosk's local control surface: status for displays,
// the tap and answer buttons, help escalation and a speak endpoint. It
// binds to the loopback or LAN; the caregiver backend is a separate,
// remote service.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/careloop/kiosk/domain/entities"
	"github.com/careloop/kiosk/internal/websocket"
	"github.com/careloop/kiosk/usecase"
)

// DeviceController is the slice of the controller the local API drives.
type DeviceController interface {
	Status() usecase.Status
	Session() entities.Session
	Tap(ctx context.Context)
	Respond(choice entities.ResponseChoice) bool
	Help(ctx context.Context)
	SpeakText(ctx context.Context, text string) error
}

// InitRoutes initializes all local API routes
func InitRoutes(e *echo.Echo, controller DeviceController, hub *websocket.Hub, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "careloop-kiosk",
		})
	})

	v1 := e.Group("/api/v1")

	v1.GET("/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, controller.Status())
	})

	v1.GET("/session", func(c echo.Context) error {
		return c.JSON(http.StatusOK, controller.Session())
	})

	v1.POST("/tap", func(c echo.Context) error {
		controller.Tap(c.Request().Context())
		return c.JSON(http.StatusAccepted, AckResponse{Accepted: true})
	})

	v1.POST("/respond", func(c echo.Context) error {
		return respond(c, controller, logger)
	})

	v1.POST("/help", func(c echo.Context) error {
		return help(c, controller, logger)
	})

	v1.POST("/speak", func(c echo.Context) error {
		return speak(c, controller, logger)
	})

	// WebSocket endpoint for attached displays
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c, logger)
	})
}

func help(c echo.Context, controller DeviceController, logger *zap.Logger) error {
	var req HelpRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn("Failed to bind help request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	// confirm=false is the "I'm fine" dismissal: nobody is notified.
	if !req.Confirm {
		return c.JSON(http.StatusOK, AckResponse{Accepted: true})
	}

	controller.Help(c.Request().Context())
	return c.JSON(http.StatusAccepted, AckResponse{Accepted: true})
}

func respond(c echo.Context, controller DeviceController, logger *zap.Logger) error {
	var req RespondRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn("Failed to bind respond request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	var choice entities.ResponseChoice
	switch req.Response {
	case "yes":
		choice = entities.ResponseYes
	case "no":
		choice = entities.ResponseNo
	case "later":
		choice = entities.ResponseLater
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_response",
			Message: "Response must be yes, no or later",
		})
	}

	if !controller.Respond(choice) {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "nothing_pending",
			Message: "No answer is currently awaited",
		})
	}
	return c.JSON(http.StatusOK, AckResponse{Accepted: true})
}

func speak(c echo.Context, controller DeviceController, logger *zap.Logger) error {
	var req SpeakRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn("Failed to bind speak request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_text",
			Message: "Text is required",
		})
	}

	if err := controller.SpeakText(c.Request().Context(), req.Text); err != nil {
		if errors.Is(err, usecase.ErrBusy) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "device_busy",
				Message: "The device is mid-interaction",
			})
		}
		logger.Error("Speak failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "synthesis_failed",
			Message: "Speech synthesis failed",
		})
	}
	return c.JSON(http.StatusOK, AckResponse{Accepted: true})
}
