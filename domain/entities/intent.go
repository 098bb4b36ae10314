package entities

// SpeechIntent is the classified meaning of a spoken or typed response.
// It exists only within one interaction cycle and is never persisted.
type SpeechIntent string

const (
	IntentYes         SpeechIntent = "yes"
	IntentNo          SpeechIntent = "no"
	IntentLater       SpeechIntent = "later"
	IntentHelp        SpeechIntent = "help"
	IntentExercise    SpeechIntent = "exercise"
	IntentPlayMessage SpeechIntent = "play_message"
	IntentUnknown     SpeechIntent = "unknown"
)

// Conclusive reports whether the intent carries an actionable meaning.
func (i SpeechIntent) Conclusive() bool {
	return i != IntentUnknown && i != ""
}

// ResponseChoice is the subset of intents a device may submit back to the
// backend as the outcome of an action.
type ResponseChoice string

const (
	ResponseYes   ResponseChoice = "yes"
	ResponseNo    ResponseChoice = "no"
	ResponseLater ResponseChoice = "later"
)

// ResponseFromIntent maps a conclusive intent onto a submittable response.
// Intents with no response equivalent map to ResponseNo, which is what the
// device submits to clear an action it could not resolve.
func ResponseFromIntent(i SpeechIntent) ResponseChoice {
	switch i {
	case IntentYes, IntentExercise, IntentPlayMessage:
		return ResponseYes
	case IntentLater:
		return ResponseLater
	default:
		return ResponseNo
	}
}
