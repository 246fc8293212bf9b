package finalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tiger/voice-intake-controller/api/intake"
)

// MissingFieldsError blocks a completion attempt and names every required
// field without an answer. The session stays open for correction.
type MissingFieldsError struct {
	FieldKeys []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("completion blocked, missing required fields: %s", strings.Join(e.FieldKeys, ", "))
}

// Finalizer assembles the finished submission from the answer map.
type Finalizer struct {
	now func() time.Time
}

// New constructs a finalizer; a nil clock uses wall time.
func New(now func() time.Time) Finalizer {
	if now == nil {
		now = time.Now
	}
	return Finalizer{now: now}
}

// Finalize merges all answer records into a typed submission. Required
// fields with no recorded answer reject the attempt; optional fields with no
// answer default to the explicit None sentinel.
func (f Finalizer) Finalize(sessionID string, mode intake.SessionMode, questions []intake.QuestionDefinition, answers map[string]intake.AnswerRecord) (intake.Submission, error) {
	if strings.TrimSpace(sessionID) == "" {
		return intake.Submission{}, fmt.Errorf("session_id is required")
	}
	if err := mode.Validate(); err != nil {
		return intake.Submission{}, err
	}
	if len(questions) == 0 {
		return intake.Submission{}, fmt.Errorf("at least one question is required")
	}

	var missing []string
	fields := make([]intake.SubmissionField, 0, len(questions))
	for _, question := range questions {
		answer, ok := answers[question.FieldKey]
		if !ok || (question.Required && answer.Source == intake.SourceSkipped) {
			if question.Required {
				missing = append(missing, question.FieldKey)
				continue
			}
			fields = append(fields, intake.SubmissionField{
				FieldKey: question.FieldKey,
				Value:    intake.NoneSentinel,
				Source:   intake.SourceSkipped,
			})
			continue
		}
		value := answer.ProcessedValue
		if value == "" && answer.Source == intake.SourceSkipped {
			value = intake.NoneSentinel
		}
		fields = append(fields, intake.SubmissionField{
			FieldKey:   question.FieldKey,
			Value:      value,
			Source:     answer.Source,
			Confidence: answer.Confidence,
		})
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return intake.Submission{}, &MissingFieldsError{FieldKeys: missing}
	}

	submission := intake.Submission{
		SessionID:     sessionID,
		Mode:          mode,
		CompletedAtMS: f.now().UnixMilli(),
		Fields:        fields,
	}
	if err := submission.Validate(); err != nil {
		return intake.Submission{}, err
	}
	return submission, nil
}
