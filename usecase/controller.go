// Package usecase holds the device controller: the state machine that
// sequences speech output, intent listening, backend acknowledgment and
// audio playback for one care receiver's kiosk.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/careloop/kiosk/domain/entities"
	"github.com/careloop/kiosk/domain/repositories"
)

// ErrBusy is returned when a user-initiated operation arrives while an
// interaction cycle is already in flight.
var ErrBusy = errors.New("device is busy")

var exerciseQuestions = []string{
	"What day is it today?",
	"Where are you right now?",
	"How do you feel: good, okay, or not good?",
}

const (
	clarifyPrompt       = "Sorry, I didn't catch that. Please tap a button."
	laterAck            = "Okay, I'll remind you again in a few minutes."
	declineAck          = "Okay, maybe another time."
	playingAnnouncement = "Playing your message now."
	exerciseComplete    = "Thank you! Exercise complete. You did great."
	micDeniedMessage    = "Microphone access denied. Please allow mic permissions."
)

// ActionSource is the poller as the controller sees it: a snapshot of
// pending actions, a signal when the snapshot changes, and a way to request
// an early refresh.
type ActionSource interface {
	Actions() []entities.DeviceAction
	Updates() <-chan struct{}
	Refresh()
}

// Config holds the controller's tuning knobs. Zero values pick the
// defaults listed on each field.
type Config struct {
	CareReceiverID string
	CaregiverName  string

	ListenTimeout     time.Duration // 6s, one voice listen attempt
	Cooldown          time.Duration // 350ms after playback, echo avoidance
	ProcessPause      time.Duration // 600ms between answer and dispatch
	ExercisePause     time.Duration // 700ms between exercise questions
	FallbackDisplay   time.Duration // 3s text display when audio fails
	MaxRecordDuration time.Duration // 15s push-to-talk cap

	MaxWrongAttempts  int // 3 inconclusive answers before manual-only
	MaxSilentAttempts int // 5 silent listens before manual-only
}

func (c *Config) applyDefaults() {
	if c.ListenTimeout == 0 {
		c.ListenTimeout = 6 * time.Second
	}
	if c.Cooldown == 0 {
		c.Cooldown = 350 * time.Millisecond
	}
	if c.ProcessPause == 0 {
		c.ProcessPause = 600 * time.Millisecond
	}
	if c.ExercisePause == 0 {
		c.ExercisePause = 700 * time.Millisecond
	}
	if c.FallbackDisplay == 0 {
		c.FallbackDisplay = 3 * time.Second
	}
	if c.MaxRecordDuration == 0 {
		c.MaxRecordDuration = 15 * time.Second
	}
	if c.MaxWrongAttempts == 0 {
		c.MaxWrongAttempts = 3
	}
	if c.MaxSilentAttempts == 0 {
		c.MaxSilentAttempts = 5
	}
}

// Deps are the controller's collaborators. Recognizer, Recorder,
// Transcriber and Dialogue are optional; the controller degrades to manual
// buttons or skips the corresponding flow when they are absent.
type Deps struct {
	Recognizer  repositories.IntentRecognizer
	Recorder    repositories.Recorder
	Transcriber repositories.Transcriber
	Synthesizer repositories.SpeechSynthesizer
	Player      repositories.Player
	Actions     repositories.ActionService
	Dialogue    repositories.DialogueService
	Source      ActionSource
}

// Status is a snapshot of the controller for displays and the local API.
type Status struct {
	State          entities.DeviceState `json:"state"`
	Message        string               `json:"message,omitempty"`
	Transcript     string               `json:"transcript,omitempty"`
	Error          string               `json:"error,omitempty"`
	AwaitingAnswer bool                 `json:"awaiting_answer"`
	ActionID       string               `json:"action_id,omitempty"`
	ExerciseStep   int                  `json:"exercise_step,omitempty"`
	ExerciseTotal  int                  `json:"exercise_total,omitempty"`
}

// Controller drives the kiosk. Two triggers feed it: the user tapping the
// orb (push-to-talk) and the poller surfacing an unseen action. A busy flag
// guarantees at most one interaction cycle runs at a time; the seen set
// guarantees an action is processed at most once per session.
type Controller struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger

	mu            sync.Mutex
	session       *entities.Session
	state         entities.DeviceState
	busy          bool
	seen          map[string]struct{}
	pending       *pendingIntent
	stopRecording chan struct{}
	message       string
	transcript    string
	errorMsg      string
	actionID      string
	exerciseStep  int
	exerciseTotal int

	onChange func(Status)
}

// NewController creates a controller in the idle state.
func NewController(cfg Config, deps Deps, logger *zap.Logger) (*Controller, error) {
	if deps.Synthesizer == nil || deps.Player == nil || deps.Actions == nil || deps.Source == nil {
		return nil, errors.New("synthesizer, player, actions and source are required")
	}
	cfg.applyDefaults()
	return &Controller{
		cfg:     cfg,
		deps:    deps,
		logger:  logger,
		session: entities.NewSession(),
		state:   entities.StateIdle,
		seen:    make(map[string]struct{}),
	}, nil
}

// SetOnChange registers a callback invoked with a status snapshot after
// every visible change. Must be called before Run.
func (c *Controller) SetOnChange(fn func(Status)) {
	c.onChange = fn
}

// Status returns the current snapshot.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	return Status{
		State:          c.state,
		Message:        c.message,
		Transcript:     c.transcript,
		Error:          c.errorMsg,
		AwaitingAnswer: c.pending != nil,
		ActionID:       c.actionID,
		ExerciseStep:   c.exerciseStep,
		ExerciseTotal:  c.exerciseTotal,
	}
}

// Session returns a copy of this run's interaction log.
func (c *Controller) Session() entities.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := *c.session
	snapshot.Entries = append([]entities.SessionEntry(nil), c.session.Entries...)
	return snapshot
}

func (c *Controller) recordEntry(role entities.EntryRole, text string, intent entities.SpeechIntent) {
	c.mu.Lock()
	c.session.AddEntry(role, text, intent, c.actionID)
	c.mu.Unlock()
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.mu.Lock()
	snapshot := c.statusLocked()
	c.mu.Unlock()
	c.onChange(snapshot)
}

// Run consumes poller updates until ctx is cancelled. Action processing
// happens inline, so at most one action is ever in flight.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.deps.Source.Updates():
			c.dispatchNext(ctx)
		}
	}
}

// dispatchNext picks the first unseen action and processes it, unless a
// cycle is already running.
func (c *Controller) dispatchNext(ctx context.Context) {
	c.mu.Lock()
	if c.busy || c.state.Busy() {
		c.mu.Unlock()
		return
	}
	var next *entities.DeviceAction
	for _, a := range c.deps.Source.Actions() {
		if _, ok := c.seen[a.ID]; ok {
			continue
		}
		if err := a.Validate(); err != nil {
			c.logger.Warn("Skipping malformed action", zap.String("actionID", a.ID), zap.Error(err))
			c.seen[a.ID] = struct{}{}
			continue
		}
		a := a
		next = &a
		break
	}
	if next == nil {
		c.mu.Unlock()
		return
	}
	c.busy = true
	c.seen[next.ID] = struct{}{}
	c.actionID = next.ID
	c.mu.Unlock()

	c.processAction(ctx, *next)
}

// processAction runs one action's full sequence: speak, optionally await an
// answer, acknowledge, optionally play or exercise.
func (c *Controller) processAction(ctx context.Context, action entities.DeviceAction) {
	c.logger.Info("Processing action",
		zap.String("actionID", action.ID),
		zap.String("kind", string(action.Kind)))

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.message = ""
		c.actionID = ""
		c.exerciseStep = 0
		c.exerciseTotal = 0
		if c.state != entities.StateError {
			c.state = entities.StateIdle
		}
		c.mu.Unlock()
		c.notify()
		c.deps.Source.Refresh()
	}()

	c.speak(ctx, action.TextToSpeak)

	if !action.ExpectsAnswer() {
		return
	}

	c.transition(entities.StateWaiting)
	intent := c.awaitIntent(ctx)
	if ctx.Err() != nil {
		return
	}

	c.recordEntry(entities.EntryRoleResident, "", intent)
	c.transition(entities.StateThinking)
	c.sleep(ctx, c.cfg.ProcessPause)

	switch intent {
	case entities.IntentHelp:
		c.escalateHelp(ctx)

	case entities.IntentLater:
		c.submitResponse(ctx, action.ID, entities.ResponseLater)
		c.speak(ctx, laterAck)

	case entities.IntentNo:
		c.submitResponse(ctx, action.ID, entities.ResponseNo)
		c.speak(ctx, declineAck)

	default: // yes, exercise, play_message
		c.submitResponse(ctx, action.ID, entities.ResponseYes)
		if action.Kind == entities.ActionProposeExercise || intent == entities.IntentExercise {
			c.runExercise(ctx)
			return
		}
		c.speak(ctx, playingAnnouncement)
		c.playAction(ctx, action)
	}
}

// playAction streams the proposed audio. Playback failure degrades to a
// fixed-duration text display.
func (c *Controller) playAction(ctx context.Context, action entities.DeviceAction) {
	if action.AudioURL == "" {
		c.sleep(ctx, c.cfg.FallbackDisplay)
		return
	}
	c.transition(entities.StatePlaying)
	if err := c.deps.Player.PlayURL(ctx, action.AudioURL); err != nil {
		c.logger.Warn("Audio playback failed, showing text instead",
			zap.String("audioURL", action.AudioURL), zap.Error(err))
		c.sleep(ctx, c.cfg.FallbackDisplay)
	}
}

// runExercise walks the fixed question list: speak, listen, short pause.
// Answers are not scored; completing the round is the point.
func (c *Controller) runExercise(ctx context.Context) {
	c.mu.Lock()
	c.exerciseTotal = len(exerciseQuestions)
	c.mu.Unlock()

	for i, question := range exerciseQuestions {
		if ctx.Err() != nil {
			return
		}
		c.mu.Lock()
		c.exerciseStep = i
		c.mu.Unlock()
		c.notify()

		c.speak(ctx, question)
		c.transition(entities.StateWaiting)
		answer := c.awaitExerciseAnswer(ctx)
		c.recordEntry(entities.EntryRoleResident, "", answer)
		if answer == entities.IntentHelp {
			c.escalateHelp(ctx)
			return
		}
		c.transition(entities.StateThinking)
		c.sleep(ctx, c.cfg.ExercisePause)
	}

	c.mu.Lock()
	c.exerciseStep = len(exerciseQuestions)
	c.mu.Unlock()
	c.notify()

	c.speak(ctx, exerciseComplete)
}

// awaitIntent waits for a conclusive intent from voice or a manual button,
// whichever resolves the pending cell first. Voice attempts are bounded;
// once exhausted, the buttons stay armed indefinitely.
func (c *Controller) awaitIntent(ctx context.Context) entities.SpeechIntent {
	p := c.armPending()
	defer c.disarmPending(p)

	var wrong, silent int
	voiceEnabled := c.deps.Recognizer != nil
	var vch chan voiceResult
	if voiceEnabled {
		vch = c.listenAsync(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return entities.IntentUnknown

		case intent := <-p.ch:
			return intent

		case res := <-vch:
			switch {
			case res.err != nil:
				if errors.Is(res.err, repositories.ErrNoSpeech) || errors.Is(res.err, repositories.ErrListenTimeout) {
					silent++
				} else {
					// Recognition unavailable or mic denied: manual only.
					c.logger.Warn("Voice listening disabled for this answer", zap.Error(res.err))
					voiceEnabled = false
				}

			case res.recognition.Intent.Conclusive():
				if p.resolve(res.recognition.Intent) {
					return res.recognition.Intent
				}
				// A manual tap won the race; its intent is authoritative.
				return <-p.ch

			default:
				wrong++
				if wrong == 1 {
					c.speak(ctx, clarifyPrompt)
					c.transition(entities.StateWaiting)
				}
			}

			if voiceEnabled && wrong < c.cfg.MaxWrongAttempts && silent < c.cfg.MaxSilentAttempts {
				vch = c.listenAsync(ctx)
			} else {
				vch = nil
			}
		}
	}
}

// awaitExerciseAnswer takes one voice answer of any intent, or a manual
// tap. Exercise answers are free-form, so even an unknown classification
// counts; only a help resolution is significant to the caller.
func (c *Controller) awaitExerciseAnswer(ctx context.Context) entities.SpeechIntent {
	p := c.armPending()
	defer c.disarmPending(p)

	var vch chan voiceResult
	if c.deps.Recognizer != nil {
		vch = c.listenAsync(ctx)
	}

	select {
	case <-ctx.Done():
		return entities.IntentUnknown
	case intent := <-p.ch:
		return intent
	case res := <-vch:
		if res.err == nil {
			return res.recognition.Intent
		}
		// Silence or no recognizer: wait for the manual Done tap.
		select {
		case <-ctx.Done():
			return entities.IntentUnknown
		case intent := <-p.ch:
			return intent
		}
	}
}

type voiceResult struct {
	recognition repositories.Recognition
	err         error
}

func (c *Controller) listenAsync(ctx context.Context) chan voiceResult {
	ch := make(chan voiceResult, 1)
	go func() {
		rec, err := c.deps.Recognizer.ListenOnce(ctx, c.cfg.ListenTimeout)
		ch <- voiceResult{recognition: rec, err: err}
	}()
	return ch
}

func (c *Controller) armPending() *pendingIntent {
	p := newPendingIntent()
	c.mu.Lock()
	c.pending = p
	c.mu.Unlock()
	c.notify()
	return p
}

func (c *Controller) disarmPending(p *pendingIntent) {
	c.mu.Lock()
	if c.pending == p {
		c.pending = nil
	}
	c.mu.Unlock()
	c.notify()
}

// Respond is the manual button path: it resolves the pending answer, if
// any. Returns false when nothing was waiting or voice already won.
func (c *Controller) Respond(choice entities.ResponseChoice) bool {
	var intent entities.SpeechIntent
	switch choice {
	case entities.ResponseYes:
		intent = entities.IntentYes
	case entities.ResponseLater:
		intent = entities.IntentLater
	default:
		intent = entities.IntentNo
	}
	return c.resolvePending(intent)
}

func (c *Controller) resolvePending(intent entities.SpeechIntent) bool {
	c.mu.Lock()
	p := c.pending
	c.mu.Unlock()
	if p == nil {
		return false
	}
	return p.resolve(intent)
}

// Help notifies the caregiver. Accepted from any state. If an answer wait
// is in flight, the pending cell is resolved with the help intent and the
// action sequence performs the escalation itself; otherwise Help escalates
// directly, holding the busy flag when the device is free so a poller
// dispatch cannot start mid-announcement.
func (c *Controller) Help(ctx context.Context) {
	if c.resolvePending(entities.IntentHelp) {
		return
	}

	c.mu.Lock()
	claimed := !c.busy && !c.state.Busy()
	if claimed {
		c.busy = true
	}
	c.mu.Unlock()

	c.escalateHelp(ctx)

	if claimed {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
		c.notify()
	}
	c.deps.Source.Refresh()
}

func (c *Controller) escalateHelp(ctx context.Context) {
	if err := c.deps.Actions.SubmitHelpRequest(ctx, "resident asked for help"); err != nil {
		c.logger.Warn("Help request submission failed", zap.Error(err))
	}
	// Spoken outside the state machine so it works mid-sequence; the
	// player serializes with whatever else is audible.
	c.announce(ctx, c.helpConfirmation())
}

func (c *Controller) helpConfirmation() string {
	if c.cfg.CaregiverName != "" {
		return fmt.Sprintf("Your caregiver %s has been notified. They'll be in touch soon.", c.cfg.CaregiverName)
	}
	return "Your caregiver has been notified. They'll be in touch soon."
}

// announce synthesizes and plays without touching the state machine.
func (c *Controller) announce(ctx context.Context, text string) {
	c.mu.Lock()
	c.message = text
	c.session.AddEntry(entities.EntryRoleDevice, text, "", c.actionID)
	c.mu.Unlock()
	c.notify()

	audio, err := c.deps.Synthesizer.Synthesize(ctx, text)
	if err == nil {
		err = c.deps.Player.PlayBytes(ctx, audio)
	}
	if err != nil {
		c.logger.Warn("Announcement audio failed, showing text instead", zap.Error(err))
		c.sleep(ctx, c.cfg.FallbackDisplay)
	}

	c.mu.Lock()
	if c.message == text {
		c.message = ""
	}
	c.mu.Unlock()
	c.notify()
}

// Tap is the orb control: start push-to-talk from idle or error, stop an
// active recording, otherwise ignored.
func (c *Controller) Tap(ctx context.Context) {
	c.mu.Lock()
	if c.state == entities.StateRecording {
		if c.stopRecording != nil {
			close(c.stopRecording)
			c.stopRecording = nil
		}
		c.mu.Unlock()
		return
	}
	if c.busy || c.state.Busy() {
		c.mu.Unlock()
		return
	}
	c.busy = true
	c.errorMsg = ""
	c.transcript = ""
	stop := make(chan struct{})
	c.stopRecording = stop
	c.mu.Unlock()

	go c.runTapCycle(ctx, stop)
}

// runTapCycle is the push-to-talk sequence: record, transcribe, and either
// answer a pending prompt, hold a conversation, or just display the
// transcript.
func (c *Controller) runTapCycle(ctx context.Context, stop chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.busy = false
		c.stopRecording = nil
		c.message = ""
		if c.state != entities.StateError {
			c.state = entities.StateIdle
		}
		c.mu.Unlock()
		c.notify()
	}()

	transcript, ok := c.captureTranscript(ctx, stop)
	if !ok || transcript == "" {
		return
	}

	c.mu.Lock()
	c.transcript = transcript
	c.session.AddEntry(entities.EntryRoleResident, transcript, "", "")
	c.mu.Unlock()
	c.notify()

	if c.deps.Dialogue == nil {
		return
	}

	c.transition(entities.StateThinking)
	reply, err := c.deps.Dialogue.Reply(ctx, transcript)
	if err != nil {
		c.logger.Warn("Dialogue reply failed", zap.Error(err))
		c.setError("I couldn't reach the assistant. Please try again.")
		return
	}
	c.speak(ctx, reply)
}

// captureTranscript records and transcribes one utterance. With no
// recorder wired it falls back to the live recognizer, which is the
// single-shot listening variant.
func (c *Controller) captureTranscript(ctx context.Context, stop chan struct{}) (string, bool) {
	if c.deps.Recorder != nil && c.deps.Transcriber != nil {
		c.transition(entities.StateRecording)
		pcm, err := c.deps.Recorder.Record(ctx, stop, c.cfg.MaxRecordDuration)
		if err != nil {
			if errors.Is(err, repositories.ErrMicrophoneDenied) {
				c.setError(micDeniedMessage)
			} else {
				c.setError("Recording failed. Please try again.")
			}
			return "", false
		}

		c.transition(entities.StateTranscribing)
		text, err := c.deps.Transcriber.Transcribe(ctx, pcm, "recording.wav")
		if err != nil {
			c.logger.Warn("Transcription failed", zap.Error(err))
			c.setError("Transcription failed. Please try again.")
			return "", false
		}
		return text, true
	}

	if c.deps.Recognizer != nil {
		c.transition(entities.StateRecording)
		rec, err := c.deps.Recognizer.ListenOnce(ctx, c.cfg.ListenTimeout)
		if err != nil {
			if errors.Is(err, repositories.ErrMicrophoneDenied) {
				c.setError(micDeniedMessage)
				return "", false
			}
			// Silence is not an error for push-to-talk.
			return "", true
		}
		return rec.Transcript, true
	}

	c.logger.Warn("Tap ignored: no capture capability wired")
	return "", true
}

// SpeakText vocalizes arbitrary text on behalf of the local API. Unlike
// action prompts, failures here surface as an error state because the user
// asked for this directly.
func (c *Controller) SpeakText(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.busy || c.state.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.errorMsg = ""
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.message = ""
		if c.state != entities.StateError {
			c.state = entities.StateIdle
		}
		c.mu.Unlock()
		c.notify()
	}()

	if err := c.speakStrict(ctx, text); err != nil {
		c.setError("Speech synthesis failed. Please try again.")
		return err
	}
	return nil
}

// speak vocalizes text for an action sequence. Synthesis or playback
// failure degrades to displaying the text for a fixed duration; action
// flow continues either way.
func (c *Controller) speak(ctx context.Context, text string) {
	if err := c.speakStrict(ctx, text); err != nil && ctx.Err() == nil {
		c.logger.Warn("Speech failed, showing text instead", zap.String("text", text), zap.Error(err))
		c.sleep(ctx, c.cfg.FallbackDisplay)
	}
}

// speakStrict synthesizes and plays text, then observes the echo-avoidance
// cooldown so the next listen cannot pick up our own audio.
func (c *Controller) speakStrict(ctx context.Context, text string) error {
	c.transition(entities.StateSpeaking)
	c.mu.Lock()
	c.message = text
	c.session.AddEntry(entities.EntryRoleDevice, text, "", c.actionID)
	c.mu.Unlock()
	c.notify()

	audio, err := c.deps.Synthesizer.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	if err := c.deps.Player.PlayBytes(ctx, audio); err != nil {
		return err
	}
	c.sleep(ctx, c.cfg.Cooldown)
	return nil
}

func (c *Controller) submitResponse(ctx context.Context, actionID string, response entities.ResponseChoice) {
	// Best-effort: the device stays responsive even when the network is
	// degraded, at the cost of the backend possibly re-issuing the action.
	if err := c.deps.Actions.SubmitResponse(ctx, actionID, response); err != nil {
		c.logger.Warn("Response submission failed",
			zap.String("actionID", actionID),
			zap.String("response", string(response)),
			zap.Error(err))
	}
}

func (c *Controller) transition(next entities.DeviceState) bool {
	c.mu.Lock()
	if !c.state.CanTransition(next) {
		current := c.state
		c.mu.Unlock()
		c.logger.Error("Rejected state transition",
			zap.String("from", string(current)),
			zap.String("to", string(next)))
		return false
	}
	c.state = next
	c.mu.Unlock()
	c.notify()
	return true
}

func (c *Controller) setError(message string) {
	c.mu.Lock()
	c.state = entities.StateError
	c.errorMsg = message
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
