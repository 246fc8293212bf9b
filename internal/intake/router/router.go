package router

import (
	"fmt"

	"github.com/tiger/voice-intake-controller/api/intake"
	"github.com/tiger/voice-intake-controller/internal/intake/localvalidate"
)

// Path is the deterministic routing decision for one transcript.
type Path string

const (
	PathAutoAdvance        Path = "auto_advance"
	PathQuickAccept        Path = "quick_accept"
	PathQueueForBatch      Path = "queue_for_batch"
	PathConfirmThenAdvance Path = "confirm_then_advance"
	PathClarifyAndRetry    Path = "clarify_and_retry"
)

const (
	autoAdvanceThreshold = 0.85
	confirmThreshold     = 0.5
)

// Decision is the routed outcome plus the answer record to commit where the
// path commits one.
type Decision struct {
	Path   Path
	Reason string
	// Answer is the record to commit for auto-advance, quick-accept, and the
	// provisional confirm path. Unset for clarify and batch paths.
	Answer intake.AnswerRecord
}

// Router evaluates the decision table.
type Router struct{}

// New returns the confidence router.
func New() Router {
	return Router{}
}

// Route picks exactly one path for a transcript given its local validation
// result and the session mode. Selection is deterministic.
func (Router) Route(question intake.QuestionDefinition, transcript string, local localvalidate.Result, mode intake.SessionMode) (Decision, error) {
	if err := question.Validate(); err != nil {
		return Decision{}, err
	}
	if err := mode.Validate(); err != nil {
		return Decision{}, err
	}
	if local.Confidence < 0 || local.Confidence > 1 {
		return Decision{}, fmt.Errorf("local confidence must be within [0,1]")
	}

	if local.Accepted && local.Confidence >= autoAdvanceThreshold {
		return Decision{
			Path:   PathAutoAdvance,
			Reason: "local_high_confidence",
			Answer: committedAnswer(question, transcript, local),
		}, nil
	}

	if mode == intake.ModeQuick {
		return Decision{
			Path:   PathQuickAccept,
			Reason: "quick_mode_accept",
			Answer: committedAnswer(question, transcript, local),
		}, nil
	}

	// Fields with no field-specific rule use the default remote-confirmation
	// strategy: advance optimistically and reconcile through the batch.
	if local.Accepted && !local.RuleApplied {
		return Decision{
			Path:   PathQueueForBatch,
			Reason: "generic_rule_needs_remote_confirmation",
		}, nil
	}

	if local.Confidence >= confirmThreshold && local.Confidence < autoAdvanceThreshold {
		answer := committedAnswer(question, transcript, local)
		return Decision{
			Path:   PathConfirmThenAdvance,
			Reason: "mid_band_confidence",
			Answer: answer,
		}, nil
	}

	return Decision{
		Path:   PathClarifyAndRetry,
		Reason: "low_confidence",
	}, nil
}

func committedAnswer(question intake.QuestionDefinition, transcript string, local localvalidate.Result) intake.AnswerRecord {
	value := local.NormalizedValue
	if value == "" {
		value = transcript
	}
	return intake.AnswerRecord{
		FieldKey:        question.FieldKey,
		RawTranscript:   transcript,
		ProcessedValue:  value,
		Source:          intake.SourceLocal,
		Confidence:      local.Confidence,
		ValidationState: intake.ValidationValid,
	}
}
