package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the status of an interaction session.
type SessionStatus string

const (
	SessionStatusActive     SessionStatus = "active"
	SessionStatusTerminated SessionStatus = "terminated"
)

// EntryRole identifies who produced a session entry.
type EntryRole string

const (
	EntryRoleDevice   EntryRole = "device"
	EntryRoleResident EntryRole = "resident"
)

// SessionEntry is one utterance within a session: either something the
// device spoke, or something the resident said (with its classified intent).
type SessionEntry struct {
	Timestamp time.Time    `json:"timestamp"`
	Role      EntryRole    `json:"role"`
	Text      string       `json:"text"`
	Intent    SpeechIntent `json:"intent,omitempty"`
	ActionID  string       `json:"action_id,omitempty"`
}

// Session is the in-memory record of one device run. The seen-action set
// lives on the controller, not here; the session only keeps the spoken
// exchange for the status surface and for debugging. It is never persisted,
// the backend owns all durable state.
type Session struct {
	ID           string         `json:"id"`
	StartedAt    time.Time      `json:"started_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	Status       SessionStatus  `json:"status"`
	Entries      []SessionEntry `json:"entries"`
}

// NewSession creates a fresh session for this device run.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		StartedAt:    now,
		LastActiveAt: now,
		Status:       SessionStatusActive,
		Entries:      make([]SessionEntry, 0),
	}
}

// AddEntry appends an utterance and bumps the activity timestamp.
func (s *Session) AddEntry(role EntryRole, text string, intent SpeechIntent, actionID string) {
	now := time.Now()
	s.Entries = append(s.Entries, SessionEntry{
		Timestamp: now,
		Role:      role,
		Text:      text,
		Intent:    intent,
		ActionID:  actionID,
	})
	s.LastActiveAt = now
}

// Terminate marks the session as finished.
func (s *Session) Terminate() {
	s.Status = SessionStatusTerminated
	s.LastActiveAt = time.Now()
}

// Validate validates the session data.
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if s.Status != SessionStatusActive && s.Status != SessionStatusTerminated {
		return errors.New("invalid session status")
	}
	return nil
}
