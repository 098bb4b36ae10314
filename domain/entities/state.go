package entities

// DeviceState is the controller's current phase. Exactly one state holds at
// any time; allowed transitions are listed in the table below and anything
// else is rejected.
type DeviceState string

const (
	StateIdle         DeviceState = "idle"
	StateRecording    DeviceState = "recording"
	StateTranscribing DeviceState = "transcribing"
	StateThinking     DeviceState = "thinking"
	StateSpeaking     DeviceState = "speaking"
	StateWaiting      DeviceState = "waiting"
	StatePlaying      DeviceState = "playing"
	StateError        DeviceState = "error"
)

var deviceTransitions = map[DeviceState][]DeviceState{
	StateIdle:         {StateRecording, StateSpeaking, StateError},
	StateRecording:    {StateTranscribing, StateIdle, StateError},
	StateTranscribing: {StateIdle, StateThinking, StateError},
	StateThinking:     {StateIdle, StateSpeaking, StateError},
	StateSpeaking:     {StateIdle, StateWaiting, StatePlaying, StateError},
	StateWaiting:      {StateIdle, StateSpeaking, StateThinking, StatePlaying, StateError},
	StatePlaying:      {StateIdle, StateError},
	StateError:        {StateIdle, StateRecording, StateSpeaking},
}

// CanTransition reports whether moving from s to next is allowed.
func (s DeviceState) CanTransition(next DeviceState) bool {
	for _, allowed := range deviceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Busy reports whether the device is mid-interaction. The idle and error
// states are the only ones from which new work may start.
func (s DeviceState) Busy() bool {
	return s != StateIdle && s != StateError
}
