package localvalidate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tiger/voice-intake-controller/api/intake"
)

// Result is the synchronous acceptance outcome for one transcript.
type Result struct {
	Accepted        bool
	Confidence      float64
	NormalizedValue string
	// RuleApplied reports whether a field-specific rule produced the result.
	// Generic-rule results default to batch confirmation in standard mode.
	RuleApplied bool
	Reason      string
}

const (
	minAge = 0
	maxAge = 120

	genericConfidence = 0.6
	blankConfidence   = 0.1
)

var (
	fullNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z ]{0,48}[A-Za-z]$`)
	leadingInteger  = regexp.MustCompile(`-?\d+`)
	phoneStrip      = regexp.MustCompile(`[\s\-().]`)
	phonePattern    = regexp.MustCompile(`^\+?\d{10,15}$`)
)

// genderSynonyms maps containment keywords to normalized values, most
// specific first so "female" wins over "male" and "woman" over "man".
var genderSynonyms = []struct {
	keyword    string
	normalized string
}{
	{keyword: "female", normalized: "Female"},
	{keyword: "woman", normalized: "Female"},
	{keyword: "male", normalized: "Male"},
	{keyword: "man", normalized: "Male"},
	{keyword: "other", normalized: "Other"},
	{keyword: "f", normalized: "Female"},
	{keyword: "m", normalized: "Male"},
	{keyword: "o", normalized: "Other"},
}

// Validator applies pattern-based acceptance rules per field. It performs no
// I/O and never blocks.
type Validator struct{}

// New returns the local validator.
func New() Validator {
	return Validator{}
}

// Validate runs the acceptance rule for a question against a raw transcript.
func (Validator) Validate(question intake.QuestionDefinition, transcript string) (Result, error) {
	if err := question.Validate(); err != nil {
		return Result{}, err
	}

	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return Result{
			Accepted:   false,
			Confidence: blankConfidence,
			Reason:     "empty_transcript",
		}, nil
	}

	switch question.FieldKey {
	case "fullName":
		return validateFullName(trimmed), nil
	case "age":
		return validateAge(trimmed), nil
	case "phone":
		return validatePhone(trimmed), nil
	case "gender":
		if result, ok := normalizeGender(trimmed); ok {
			return result, nil
		}
	}

	if question.Kind == intake.KindEnum {
		if result, ok := normalizeEnum(question.EnumOptions, trimmed); ok {
			return result, nil
		}
	}

	return Result{
		Accepted:        true,
		Confidence:      genericConfidence,
		NormalizedValue: trimmed,
		Reason:          "generic_rule",
	}, nil
}

func validateFullName(transcript string) Result {
	if len(transcript) >= 2 && len(transcript) <= 50 && fullNamePattern.MatchString(transcript) {
		return Result{
			Accepted:        true,
			Confidence:      0.9,
			NormalizedValue: transcript,
			RuleApplied:     true,
			Reason:          "full_name_pattern",
		}
	}
	return Result{
		Accepted:    false,
		Confidence:  0.3,
		RuleApplied: true,
		Reason:      "full_name_mismatch",
	}
}

func validateAge(transcript string) Result {
	match := leadingInteger.FindString(transcript)
	if match == "" {
		return Result{
			Accepted:    false,
			Confidence:  0.3,
			RuleApplied: true,
			Reason:      "age_not_numeric",
		}
	}
	value, err := strconv.Atoi(match)
	if err != nil || value < minAge || value > maxAge {
		return Result{
			Accepted:    false,
			Confidence:  0.3,
			RuleApplied: true,
			Reason:      "age_out_of_range",
		}
	}
	return Result{
		Accepted:        true,
		Confidence:      0.95,
		NormalizedValue: strconv.Itoa(value),
		RuleApplied:     true,
		Reason:          "age_in_range",
	}
}

func validatePhone(transcript string) Result {
	stripped := phoneStrip.ReplaceAllString(transcript, "")
	if phonePattern.MatchString(stripped) {
		return Result{
			Accepted:        true,
			Confidence:      0.9,
			NormalizedValue: stripped,
			RuleApplied:     true,
			Reason:          "phone_pattern",
		}
	}
	return Result{
		Accepted:    false,
		Confidence:  0.3,
		RuleApplied: true,
		Reason:      "phone_mismatch",
	}
}

func normalizeGender(transcript string) (Result, bool) {
	lowered := strings.ToLower(transcript)
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	})
	for _, synonym := range genderSynonyms {
		if len(synonym.keyword) == 1 {
			// Single-letter synonyms match whole words only, otherwise any
			// transcript containing the letter would normalize.
			for _, word := range words {
				if word == synonym.keyword {
					return genderResult(synonym.normalized), true
				}
			}
			continue
		}
		if strings.Contains(lowered, synonym.keyword) {
			return genderResult(synonym.normalized), true
		}
	}
	return Result{}, false
}

func genderResult(normalized string) Result {
	return Result{
		Accepted:        true,
		Confidence:      0.95,
		NormalizedValue: normalized,
		RuleApplied:     true,
		Reason:          fmt.Sprintf("gender_%s", strings.ToLower(normalized)),
	}
}

func normalizeEnum(options []string, transcript string) (Result, bool) {
	lowered := strings.ToLower(transcript)
	for _, option := range options {
		if strings.Contains(lowered, strings.ToLower(option)) {
			return Result{
				Accepted:        true,
				Confidence:      0.95,
				NormalizedValue: option,
				RuleApplied:     true,
				Reason:          "enum_containment",
			}, true
		}
	}
	return Result{}, false
}
