package api

// RespondRequest is a manual answer button press.
type RespondRequest struct {
	Response string `json:"response"`
}

// HelpRequest closes the help modal. Confirm true notifies the caregiver;
// false dismisses without notifying anyone.
type HelpRequest struct {
	Confirm bool `json:"confirm"`
}

// SpeakRequest vocalizes arbitrary text on the device.
type SpeakRequest struct {
	Text string `json:"text"`
}

// ErrorResponse is the common error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AckResponse acknowledges an accepted command.
type AckResponse struct {
	Accepted bool `json:"accepted"`
}
