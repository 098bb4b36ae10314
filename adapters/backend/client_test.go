package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/careloop/kiosk/domain/entities"
	"github.com/careloop/kiosk/domain/repositories"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{BaseURL: baseURL, Token: "test-token"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNextActions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/device/next-actions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("care_receiver_id"); got != "cr-1" {
			t.Errorf("care_receiver_id = %q, want %q", got, "cr-1")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"a1","kind":"speak_reminder","text_to_speak":"Time for your medication"}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	actions, err := client.NextActions(context.Background(), "cr-1")
	if err != nil {
		t.Fatalf("NextActions() error = %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("len(actions) = %d, want 1", len(actions))
	}
	if actions[0].ID != "a1" || actions[0].Kind != entities.ActionSpeakReminder {
		t.Errorf("unexpected action: %+v", actions[0])
	}
}

func TestNextActionsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.NextActions(context.Background(), "cr-1")
	if err == nil {
		t.Fatal("NextActions() should fail on 500")
	}
	apiErr, ok := err.(*repositories.APIError)
	if !ok {
		t.Fatalf("error type = %T, want *repositories.APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", apiErr.Status)
	}
}

func TestSubmitResponse(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/device/response" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.SubmitResponse(context.Background(), "a1", entities.ResponseLater); err != nil {
		t.Fatalf("SubmitResponse() error = %v", err)
	}
	if got["action_id"] != "a1" || got["response"] != "later" {
		t.Errorf("payload = %v", got)
	}
}

func TestSubmitHelpRequest(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/device/help-request" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.SubmitHelpRequest(context.Background(), "resident asked for help"); err != nil {
		t.Fatalf("SubmitHelpRequest() error = %v", err)
	}
	if got["type"] != "notify_caregiver" {
		t.Errorf("type = %q, want notify_caregiver", got["type"])
	}
	if got["message"] != "resident asked for help" {
		t.Errorf("message = %q", got["message"])
	}
}

func TestReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/message" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["message"] != "hello" {
			t.Errorf("message = %q", body["message"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"hi there"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	reply, err := client.Reply(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if reply != "hi there" {
		t.Errorf("reply = %q, want %q", reply, "hi there")
	}
}

func TestNewClientMintsDeviceToken(t *testing.T) {
	client, err := NewClient(Config{
		BaseURL:      "http://localhost:8000",
		DeviceID:     "device-1",
		DeviceSecret: "secret",
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.token == "" {
		t.Error("expected a minted token")
	}
}

func TestNewClientMissingCredentials(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "http://localhost:8000"}, zaptest.NewLogger(t)); err == nil {
		t.Error("NewClient() without token or credentials should fail")
	}
}
