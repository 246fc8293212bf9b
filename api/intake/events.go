package intake

import "fmt"

// SessionPhase is the controller lifecycle state.
type SessionPhase string

const (
	PhaseIdle                 SessionPhase = "idle"
	PhasePrompting            SessionPhase = "prompting"
	PhaseRecording            SessionPhase = "recording"
	PhaseAwaitingConfirmation SessionPhase = "awaiting_confirmation"
	PhasePaused               SessionPhase = "paused"
	PhaseValidating           SessionPhase = "validating"
	PhaseFinalizing           SessionPhase = "finalizing"
)

// Validate checks phase membership.
func (p SessionPhase) Validate() error {
	switch p {
	case PhaseIdle, PhasePrompting, PhaseRecording, PhaseAwaitingConfirmation,
		PhasePaused, PhaseValidating, PhaseFinalizing:
		return nil
	default:
		return fmt.Errorf("unsupported session phase %q", p)
	}
}

// TimerKind identifies a controller timer.
type TimerKind string

const (
	TimerConfirmation TimerKind = "confirmation_countdown"
	TimerSilence      TimerKind = "silence_auto_pause"
	TimerDebounce     TimerKind = "batch_debounce"
)

// UserActionKind identifies an explicit user command.
type UserActionKind string

const (
	ActionConfirm    UserActionKind = "confirm"
	ActionRetry      UserActionKind = "retry"
	ActionSkip       UserActionKind = "skip"
	ActionPrevious   UserActionKind = "previous"
	ActionToggleMode UserActionKind = "toggle_mode"
	ActionResume     UserActionKind = "resume"
	ActionComplete   UserActionKind = "complete"
)

// Event is the typed union driving session transitions. Every asynchronous
// stimulus becomes one Event processed to completion before the next.
type Event interface {
	EventKind() string
}

// TranscriptReceived carries a final speech recognition result. Epoch pins
// the transcript to the capture generation it was produced under so stale
// results are discarded.
type TranscriptReceived struct {
	Text       string
	Confidence float64
	Epoch      int64
}

// PromptEnded signals that speech synthesis for the current prompt finished.
type PromptEnded struct{}

// CaptureEnded signals that the capture engine closed the utterance stream.
type CaptureEnded struct{}

// CaptureFailed carries a capture engine error code.
type CaptureFailed struct {
	Code string
}

// TimerFired signals a single-shot timer expiry; Generation guards against
// fires scheduled for an earlier state entry.
type TimerFired struct {
	Kind       TimerKind
	Generation int64
}

// BatchResolved carries the resolved answer set for a completed flush. A
// non-empty Failure means the flush resolved nothing: neither the remote
// service nor the local rules could validate the batch and the pending items
// stay queued.
type BatchResolved struct {
	Generation int64
	Answers    []AnswerRecord
	UsedRemote bool
	Failure    string
}

// UserAction carries an explicit user command.
type UserAction struct {
	Kind UserActionKind
}

func (TranscriptReceived) EventKind() string { return "transcript_received" }
func (PromptEnded) EventKind() string        { return "prompt_ended" }
func (CaptureEnded) EventKind() string       { return "capture_ended" }
func (CaptureFailed) EventKind() string      { return "capture_failed" }
func (TimerFired) EventKind() string         { return "timer_fired" }
func (BatchResolved) EventKind() string      { return "batch_resolved" }
func (UserAction) EventKind() string         { return "user_action" }
