package websocket

import (
	"encoding/json"
	"testing"

	"github.com/careloop/kiosk/domain/entities"
	"github.com/careloop/kiosk/usecase"
)

func TestStatusUpdateMessageMarshal(t *testing.T) {
	msg := NewStatusUpdateMessage(usecase.Status{
		State:          entities.StateSpeaking,
		Message:        "Time for your walk",
		AwaitingAnswer: false,
	})

	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["type"] != "status_update" {
		t.Errorf("type = %v, want status_update", decoded["type"])
	}
	status, ok := decoded["status"].(map[string]any)
	if !ok {
		t.Fatalf("status field missing: %v", decoded)
	}
	if status["state"] != "speaking" {
		t.Errorf("state = %v, want speaking", status["state"])
	}
	if status["message"] != "Time for your walk" {
		t.Errorf("message = %v", status["message"])
	}
	if decoded["timestamp"] == "" {
		t.Error("timestamp is empty")
	}
}
