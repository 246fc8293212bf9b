package finalize

import (
	"errors"
	"testing"
	"time"

	"github.com/tiger/voice-intake-controller/api/intake"
)

func fixedNow() time.Time {
	return time.Unix(1700000000, 0)
}

func testQuestions() []intake.QuestionDefinition {
	return []intake.QuestionDefinition{
		{ID: 0, Prompt: "What is your full name?", FieldKey: "fullName", Kind: intake.KindText, Required: true},
		{ID: 1, Prompt: "What brings you in today?", FieldKey: "chiefComplaint", Kind: intake.KindText, Required: true},
		{ID: 2, Prompt: "Any allergies?", FieldKey: "allergies", Kind: intake.KindText},
	}
}

func localAnswer(fieldKey string, value string) intake.AnswerRecord {
	return intake.AnswerRecord{
		FieldKey:        fieldKey,
		RawTranscript:   value,
		ProcessedValue:  value,
		Source:          intake.SourceLocal,
		Confidence:      0.9,
		ValidationState: intake.ValidationValid,
	}
}

func TestFinalizeHappyPath(t *testing.T) {
	t.Parallel()

	finalizer := New(fixedNow)
	answers := map[string]intake.AnswerRecord{
		"fullName":       localAnswer("fullName", "Maria Rodriguez"),
		"chiefComplaint": localAnswer("chiefComplaint", "Chest pain"),
	}
	submission, err := finalizer.Finalize("sess-1", intake.ModeStandard, testQuestions(), answers)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if submission.CompletedAtMS != fixedNow().UnixMilli() {
		t.Fatalf("expected fixed completion time, got %d", submission.CompletedAtMS)
	}
	if len(submission.Fields) != 3 {
		t.Fatalf("expected every question represented, got %+v", submission.Fields)
	}
	allergies, ok := submission.Field("allergies")
	if !ok || allergies.Value != intake.NoneSentinel || allergies.Source != intake.SourceSkipped {
		t.Fatalf("expected None sentinel for unanswered optional field, got %+v", allergies)
	}
}

func TestFinalizeRejectsMissingRequiredFields(t *testing.T) {
	t.Parallel()

	finalizer := New(fixedNow)
	answers := map[string]intake.AnswerRecord{
		"fullName":  localAnswer("fullName", "Maria Rodriguez"),
		"allergies": localAnswer("allergies", "peanuts"),
	}
	_, err := finalizer.Finalize("sess-1", intake.ModeStandard, testQuestions(), answers)
	if err == nil {
		t.Fatalf("expected missing required field to block completion")
	}
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldsError, got %v", err)
	}
	if len(missing.FieldKeys) != 1 || missing.FieldKeys[0] != "chiefComplaint" {
		t.Fatalf("expected chiefComplaint reported, got %+v", missing.FieldKeys)
	}
}

func TestFinalizeTreatsSkippedRequiredAsMissing(t *testing.T) {
	t.Parallel()

	finalizer := New(fixedNow)
	answers := map[string]intake.AnswerRecord{
		"fullName": localAnswer("fullName", "Maria Rodriguez"),
		"chiefComplaint": {
			FieldKey:        "chiefComplaint",
			Source:          intake.SourceSkipped,
			ValidationState: intake.ValidationValid,
		},
	}
	_, err := finalizer.Finalize("sess-1", intake.ModeStandard, testQuestions(), answers)
	var missing *MissingFieldsError
	if !errors.As(err, &missing) || len(missing.FieldKeys) != 1 || missing.FieldKeys[0] != "chiefComplaint" {
		t.Fatalf("expected skipped required field to block completion, got %v", err)
	}
}

func TestFinalizeSkippedOptionalGetsSentinel(t *testing.T) {
	t.Parallel()

	finalizer := New(fixedNow)
	answers := map[string]intake.AnswerRecord{
		"fullName":       localAnswer("fullName", "Maria Rodriguez"),
		"chiefComplaint": localAnswer("chiefComplaint", "Chest pain"),
		"allergies": {
			FieldKey:        "allergies",
			Source:          intake.SourceSkipped,
			ValidationState: intake.ValidationValid,
		},
	}
	submission, err := finalizer.Finalize("sess-1", intake.ModeQuick, testQuestions(), answers)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	allergies, _ := submission.Field("allergies")
	if allergies.Value != intake.NoneSentinel {
		t.Fatalf("expected None sentinel for skipped optional field, got %+v", allergies)
	}
}
