package repositories

import (
	"context"
	"fmt"

	"github.com/careloop/kiosk/domain/entities"
)

// ActionService is the caregiver backend as seen from the device: the queue
// of pending actions, the response channel and the help escalation path.
type ActionService interface {
	// NextActions returns whatever the backend currently reports as
	// pending for the care receiver. No dedup happens here; the
	// controller owns the seen set.
	NextActions(ctx context.Context, careReceiverID string) ([]entities.DeviceAction, error)

	// SubmitResponse acknowledges an action outcome. Best-effort from the
	// controller's perspective: callers may ignore the error.
	SubmitResponse(ctx context.Context, actionID string, response entities.ResponseChoice) error

	// SubmitHelpRequest asks the backend to notify the caregiver.
	SubmitHelpRequest(ctx context.Context, message string) error
}

// DialogueService produces a free-form reply for a transcript, used by the
// conversational variant's thinking phase.
type DialogueService interface {
	Reply(ctx context.Context, message string) (string, error)
}

// APIError is returned by backend calls on a non-success HTTP response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend API error %d: %s", e.Status, e.Body)
}
