package websocket

import (
	"encoding/json"
	"time"

	"github.com/careloop/kiosk/usecase"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeStatusUpdate MessageType = "status_update"
	MessageTypePing         MessageType = "ping"
	MessageTypePong         MessageType = "pong"
	MessageTypeError        MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
}

// StatusUpdateMessage mirrors the controller's status for displays.
type StatusUpdateMessage struct {
	BaseMessage
	Status usecase.Status `json:"status"`
}

// NewStatusUpdateMessage wraps a controller snapshot for broadcast.
func NewStatusUpdateMessage(status usecase.Status) StatusUpdateMessage {
	return StatusUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeStatusUpdate,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Status: status,
	}
}

// Marshal encodes the message for the wire.
func (m StatusUpdateMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}
