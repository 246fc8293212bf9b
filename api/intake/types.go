package intake

import (
	"fmt"
	"strings"
)

// FieldKind is the answer value shape for a question.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindNumber FieldKind = "number"
	KindEnum   FieldKind = "enum"
)

// Validate checks kind membership.
func (k FieldKind) Validate() error {
	switch k {
	case KindText, KindNumber, KindEnum:
		return nil
	default:
		return fmt.Errorf("unsupported field kind %q", k)
	}
}

// AnswerSource records how an answer value was produced.
type AnswerSource string

const (
	SourceLocal   AnswerSource = "local"
	SourceBatch   AnswerSource = "batch"
	SourceManual  AnswerSource = "manual"
	SourceSkipped AnswerSource = "skipped"
)

// Validate checks source membership.
func (s AnswerSource) Validate() error {
	switch s {
	case SourceLocal, SourceBatch, SourceManual, SourceSkipped:
		return nil
	default:
		return fmt.Errorf("unsupported answer source %q", s)
	}
}

// ValidationState tracks where an answer sits in its validation lifecycle.
type ValidationState string

const (
	ValidationNone       ValidationState = "none"
	ValidationValidating ValidationState = "validating"
	ValidationValid      ValidationState = "valid"
	ValidationInvalid    ValidationState = "invalid"
)

// Validate checks validation-state membership.
func (v ValidationState) Validate() error {
	switch v {
	case ValidationNone, ValidationValidating, ValidationValid, ValidationInvalid:
		return nil
	default:
		return fmt.Errorf("unsupported validation state %q", v)
	}
}

// SessionMode selects between the default remote-confirmation flow and the
// quick flow that accepts everything locally.
type SessionMode string

const (
	ModeStandard SessionMode = "standard"
	ModeQuick    SessionMode = "quick"
)

// Validate checks mode membership.
func (m SessionMode) Validate() error {
	switch m {
	case ModeStandard, ModeQuick:
		return nil
	default:
		return fmt.Errorf("unsupported session mode %q", m)
	}
}

// RecordingState is the exclusive capture lifecycle state.
type RecordingState string

const (
	RecordingIdle       RecordingState = "idle"
	RecordingActive     RecordingState = "recording"
	RecordingProcessing RecordingState = "processing"
	RecordingPaused     RecordingState = "paused"
)

// Validate checks recording-state membership.
func (r RecordingState) Validate() error {
	switch r {
	case RecordingIdle, RecordingActive, RecordingProcessing, RecordingPaused:
		return nil
	default:
		return fmt.Errorf("unsupported recording state %q", r)
	}
}

// NoneSentinel is the explicit default committed for unanswered optional
// fields at completion.
const NoneSentinel = "None"

// QuestionDefinition is one spoken question in the fixed intake sequence.
// Definitions are immutable for the life of a session and ordered by ID.
type QuestionDefinition struct {
	ID                int       `json:"id"`
	Prompt            string    `json:"prompt"`
	FieldKey          string    `json:"field_key"`
	Kind              FieldKind `json:"kind"`
	Required          bool      `json:"required"`
	EnumOptions       []string  `json:"enum_options,omitempty"`
	ValidationPattern string    `json:"validation_pattern,omitempty"`
}

// Validate checks structural requirements for a question definition.
func (q QuestionDefinition) Validate() error {
	if q.ID < 0 {
		return fmt.Errorf("question id must be >= 0")
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("question prompt is required")
	}
	if strings.TrimSpace(q.FieldKey) == "" {
		return fmt.Errorf("question field_key is required")
	}
	if err := q.Kind.Validate(); err != nil {
		return err
	}
	if q.Kind == KindEnum && len(q.EnumOptions) == 0 {
		return fmt.Errorf("enum question %s requires enum_options", q.FieldKey)
	}
	return nil
}

// AnswerRecord is the single mutable answer for one field. At most one
// record exists per field key in a session; validation resolution mutates it
// in place.
type AnswerRecord struct {
	FieldKey        string          `json:"field_key"`
	RawTranscript   string          `json:"raw_transcript"`
	ProcessedValue  string          `json:"processed_value"`
	Source          AnswerSource    `json:"source"`
	Confidence      float64         `json:"confidence"`
	ValidationState ValidationState `json:"validation_state"`
}

// Validate checks structural requirements for an answer record.
func (a AnswerRecord) Validate() error {
	if strings.TrimSpace(a.FieldKey) == "" {
		return fmt.Errorf("answer field_key is required")
	}
	if err := a.Source.Validate(); err != nil {
		return err
	}
	if err := a.ValidationState.Validate(); err != nil {
		return err
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("answer confidence must be within [0,1]")
	}
	return nil
}

// PendingBatchItem is one answer awaiting remote confirmation.
type PendingBatchItem struct {
	Question      QuestionDefinition `json:"question"`
	RawAnswer     string             `json:"raw_answer"`
	QuestionIndex int                `json:"question_index"`
}

// Validate checks structural requirements for a pending batch item.
func (p PendingBatchItem) Validate() error {
	if err := p.Question.Validate(); err != nil {
		return err
	}
	if p.QuestionIndex < 0 {
		return fmt.Errorf("pending item question_index must be >= 0")
	}
	return nil
}

// SubmissionField is one finalized answer inside a submission.
type SubmissionField struct {
	FieldKey   string       `json:"field_key"`
	Value      string       `json:"value"`
	Source     AnswerSource `json:"source"`
	Confidence float64      `json:"confidence"`
}

// Submission is the finished, typed answer set emitted at completion.
type Submission struct {
	SessionID     string            `json:"session_id"`
	Mode          SessionMode       `json:"mode"`
	CompletedAtMS int64             `json:"completed_at_ms"`
	Fields        []SubmissionField `json:"fields"`
}

// Validate checks structural requirements for a submission.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.SessionID) == "" {
		return fmt.Errorf("submission session_id is required")
	}
	if err := s.Mode.Validate(); err != nil {
		return err
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("submission requires at least one field")
	}
	seen := map[string]bool{}
	for _, field := range s.Fields {
		if strings.TrimSpace(field.FieldKey) == "" {
			return fmt.Errorf("submission field_key is required")
		}
		if seen[field.FieldKey] {
			return fmt.Errorf("submission field %s is duplicated", field.FieldKey)
		}
		seen[field.FieldKey] = true
		if err := field.Source.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Field returns the submission field for a key.
func (s Submission) Field(fieldKey string) (SubmissionField, bool) {
	for _, field := range s.Fields {
		if field.FieldKey == fieldKey {
			return field, true
		}
	}
	return SubmissionField{}, false
}
