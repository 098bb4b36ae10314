package entities

import "errors"

// ActionKind identifies what the backend wants the device to do.
type ActionKind string

const (
	// ActionSpeakReminder speaks a reminder out loud, no answer expected.
	ActionSpeakReminder ActionKind = "speak_reminder"
	// ActionProposeAudio offers an audio item (family message, audiobook, music).
	ActionProposeAudio ActionKind = "propose_audio"
	// ActionProposeExercise offers a short cognitive exercise.
	ActionProposeExercise ActionKind = "propose_exercise"
)

// DeviceAction is a unit of work the backend wants the device to perform.
// Actions are created server-side when a reminder or audio item is due and
// fetched by the device's poller.
type DeviceAction struct {
	ID             string     `json:"id"`
	Kind           ActionKind `json:"kind"`
	TextToSpeak    string     `json:"text_to_speak"`
	AudioURL       string     `json:"audio_url,omitempty"`
	AudioTitle     string     `json:"audio_title,omitempty"`
	CalendarItemID string     `json:"calendar_item_id,omitempty"`
	AudioContentID string     `json:"audio_content_id,omitempty"`
}

// ExpectsAnswer reports whether the action enters the waiting phase after
// its prompt has been spoken.
func (a DeviceAction) ExpectsAnswer() bool {
	return a.Kind == ActionProposeAudio || a.Kind == ActionProposeExercise
}

// Validate checks the fields the device relies on.
func (a DeviceAction) Validate() error {
	if a.ID == "" {
		return errors.New("action id is required")
	}
	switch a.Kind {
	case ActionSpeakReminder, ActionProposeAudio, ActionProposeExercise:
	default:
		return errors.New("unknown action kind")
	}
	if a.TextToSpeak == "" {
		return errors.New("text_to_speak is required")
	}
	return nil
}
