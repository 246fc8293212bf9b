package validation

import (
	"strings"
	"testing"
)

func TestValidateQuestionScript(t *testing.T) {
	t.Parallel()

	raw := []byte(`[
		{"id":0,"prompt":"What is your full name?","field_key":"fullName","kind":"text","required":true},
		{"id":1,"prompt":"How old are you?","field_key":"age","kind":"number","required":true},
		{"id":2,"prompt":"What is your gender?","field_key":"gender","kind":"enum","required":false,"enum_options":["Male","Female","Other"]}
	]`)

	questions, err := ValidateQuestionScript(raw)
	if err != nil {
		t.Fatalf("expected valid script: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	if questions[2].FieldKey != "gender" {
		t.Fatalf("unexpected ordering: %+v", questions)
	}
}

func TestValidateQuestionScriptRejectsDuplicateFieldKeys(t *testing.T) {
	t.Parallel()

	raw := []byte(`[
		{"id":0,"prompt":"What is your full name?","field_key":"fullName","kind":"text","required":true},
		{"id":1,"prompt":"Confirm your name.","field_key":"fullName","kind":"text","required":true}
	]`)

	if _, err := ValidateQuestionScript(raw); err == nil {
		t.Fatalf("expected duplicate field key to fail")
	} else if !strings.Contains(err.Error(), "duplicate field key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateQuestionScriptRejectsEmptyAndUnknownFields(t *testing.T) {
	t.Parallel()

	if _, err := ValidateQuestionScript([]byte(`[]`)); err == nil {
		t.Fatalf("expected empty script to fail")
	}
	raw := []byte(`[{"id":0,"prompt":"Hi","field_key":"a","kind":"text","required":true,"surprise":true}]`)
	if _, err := ValidateQuestionScript(raw); err == nil {
		t.Fatalf("expected unknown field to fail strict decoding")
	}
}

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	summary := ContractValidationSummary{
		Total:    4,
		Failed:   1,
		Failures: []string{"question/valid/a.json: expected valid"},
	}
	rendered := RenderSummary(summary)
	if !strings.Contains(rendered, "total=4 failed=1") {
		t.Fatalf("missing totals line: %s", rendered)
	}
	if !strings.Contains(rendered, "- question/valid/a.json") {
		t.Fatalf("missing failure line: %s", rendered)
	}
}

func TestValidateContractFixturesMissingSchema(t *testing.T) {
	t.Parallel()

	if _, err := ValidateContractFixturesWithSchema("does-not-exist.schema.json", "also-missing"); err == nil {
		t.Fatalf("expected missing schema to fail")
	}
}
