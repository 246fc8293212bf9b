package localvalidate

import (
	"testing"

	"github.com/tiger/voice-intake-controller/api/intake"
)

func question(fieldKey string, kind intake.FieldKind, options ...string) intake.QuestionDefinition {
	return intake.QuestionDefinition{
		ID:          0,
		Prompt:      "prompt for " + fieldKey,
		FieldKey:    fieldKey,
		Kind:        kind,
		EnumOptions: options,
	}
}

func TestEmptyTranscriptNeverAutoAdvances(t *testing.T) {
	t.Parallel()

	validator := New()
	for _, fieldKey := range []string{"fullName", "age", "phone", "gender", "chiefComplaint"} {
		kind := intake.KindText
		var options []string
		if fieldKey == "gender" {
			kind = intake.KindEnum
			options = []string{"Male", "Female", "Other"}
		}
		result, err := validator.Validate(question(fieldKey, kind, options...), "   ")
		if err != nil {
			t.Fatalf("validate %s: %v", fieldKey, err)
		}
		if result.Accepted && result.Confidence >= 0.85 {
			t.Fatalf("empty transcript for %s must not auto-advance: %+v", fieldKey, result)
		}
	}
}

func TestFullNameRule(t *testing.T) {
	t.Parallel()

	validator := New()
	accepted, err := validator.Validate(question("fullName", intake.KindText), "Maria Rodriguez")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !accepted.Accepted || accepted.Confidence != 0.9 || !accepted.RuleApplied {
		t.Fatalf("expected full name acceptance at 0.9, got %+v", accepted)
	}
	if accepted.NormalizedValue != "Maria Rodriguez" {
		t.Fatalf("expected normalized name, got %q", accepted.NormalizedValue)
	}

	rejected, err := validator.Validate(question("fullName", intake.KindText), "Maria Rodriguez 3rd")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if rejected.Accepted || rejected.Confidence != 0.3 {
		t.Fatalf("expected digit-bearing name rejection at 0.3, got %+v", rejected)
	}
}

func TestAgeRuleIsExactRange(t *testing.T) {
	t.Parallel()

	validator := New()
	cases := []struct {
		transcript string
		accepted   bool
		value      string
	}{
		{transcript: "45", accepted: true, value: "45"},
		{transcript: "45 years old", accepted: true, value: "45"},
		{transcript: "0", accepted: true, value: "0"},
		{transcript: "120", accepted: true, value: "120"},
		{transcript: "150", accepted: false},
		{transcript: "121", accepted: false},
		{transcript: "-1", accepted: false},
		{transcript: "about forty", accepted: false},
	}
	for _, tc := range cases {
		result, err := validator.Validate(question("age", intake.KindNumber), tc.transcript)
		if err != nil {
			t.Fatalf("validate %q: %v", tc.transcript, err)
		}
		if result.Accepted != tc.accepted {
			t.Fatalf("age %q: expected accepted=%t, got %+v", tc.transcript, tc.accepted, result)
		}
		if tc.accepted {
			if result.Confidence != 0.95 {
				t.Fatalf("age %q: expected confidence 0.95, got %v", tc.transcript, result.Confidence)
			}
			if result.NormalizedValue != tc.value {
				t.Fatalf("age %q: expected value %q, got %q", tc.transcript, tc.value, result.NormalizedValue)
			}
		}
	}
}

func TestPhoneRuleStripsSeparators(t *testing.T) {
	t.Parallel()

	validator := New()
	accepted, err := validator.Validate(question("phone", intake.KindText), "+1 (555) 010-2030")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !accepted.Accepted || accepted.Confidence != 0.9 {
		t.Fatalf("expected phone acceptance at 0.9, got %+v", accepted)
	}
	if accepted.NormalizedValue != "+15550102030" {
		t.Fatalf("expected stripped phone, got %q", accepted.NormalizedValue)
	}

	rejected, err := validator.Validate(question("phone", intake.KindText), "call me maybe")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if rejected.Accepted {
		t.Fatalf("expected non-numeric phone rejection, got %+v", rejected)
	}
}

func TestGenderNormalization(t *testing.T) {
	t.Parallel()

	validator := New()
	gender := question("gender", intake.KindEnum, "Male", "Female", "Other")
	cases := []struct {
		transcript string
		normalized string
	}{
		{transcript: "I am a man", normalized: "Male"},
		{transcript: "woman", normalized: "Female"},
		{transcript: "F", normalized: "Female"},
		{transcript: "m", normalized: "Male"},
		{transcript: "other please", normalized: "Other"},
	}
	for _, tc := range cases {
		result, err := validator.Validate(gender, tc.transcript)
		if err != nil {
			t.Fatalf("validate %q: %v", tc.transcript, err)
		}
		if !result.Accepted || result.Confidence != 0.95 {
			t.Fatalf("gender %q: expected acceptance at 0.95, got %+v", tc.transcript, result)
		}
		if result.NormalizedValue != tc.normalized {
			t.Fatalf("gender %q: expected %q, got %q", tc.transcript, tc.normalized, result.NormalizedValue)
		}
	}

	fallthroughResult, err := validator.Validate(gender, "prefer not to say")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if fallthroughResult.RuleApplied || fallthroughResult.Confidence != 0.6 {
		t.Fatalf("expected generic fallthrough at 0.6, got %+v", fallthroughResult)
	}
}

func TestGenericRuleNeedsBatchConfirmation(t *testing.T) {
	t.Parallel()

	validator := New()
	result, err := validator.Validate(question("chiefComplaint", intake.KindText), "uhh not sure")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !result.Accepted || result.Confidence != 0.6 || result.RuleApplied {
		t.Fatalf("expected generic acceptance at 0.6 without a field rule, got %+v", result)
	}
}
