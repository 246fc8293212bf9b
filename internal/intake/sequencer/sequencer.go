package sequencer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tiger/voice-intake-controller/api/intake"
)

// Sequencer owns the per-session answer state: current question index, the
// answer map, the session mode, and the exclusive recording state. All
// mutation goes through transition methods; there are no ambient globals.
type Sequencer struct {
	questions []intake.QuestionDefinition

	mu        sync.Mutex
	index     int
	answers   map[string]intake.AnswerRecord
	mode      intake.SessionMode
	recording intake.RecordingState
}

// New constructs a sequencer over an ordered, immutable question list.
func New(questions []intake.QuestionDefinition) (*Sequencer, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("at least one question is required")
	}
	seen := map[string]bool{}
	for i, question := range questions {
		if err := question.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		if seen[question.FieldKey] {
			return nil, fmt.Errorf("question field_key %s is duplicated", question.FieldKey)
		}
		seen[question.FieldKey] = true
	}
	return &Sequencer{
		questions: questions,
		answers:   map[string]intake.AnswerRecord{},
		mode:      intake.ModeStandard,
		recording: intake.RecordingIdle,
	}, nil
}

// Questions returns the immutable question list.
func (s *Sequencer) Questions() []intake.QuestionDefinition {
	return s.questions
}

// Current returns the active question.
func (s *Sequencer) Current() intake.QuestionDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions[s.index]
}

// Index returns the active question index.
func (s *Sequencer) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// AtFinal reports whether the active question is the last one.
func (s *Sequencer) AtFinal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index == len(s.questions)-1
}

// Advance moves to the next question. It reports done=true when the active
// question was already the last one, which hands control to finalization.
func (s *Sequencer) Advance() (done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.questions)-1 {
		return true
	}
	s.index++
	return false
}

// Retreat moves to the previous question; valid only when index > 0.
func (s *Sequencer) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == 0 {
		return fmt.Errorf("cannot retreat from the first question")
	}
	s.index--
	return nil
}

// Skip commits an empty skipped record for the active question; valid only
// for optional questions. It does not advance.
func (s *Sequencer) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	question := s.questions[s.index]
	if question.Required {
		return fmt.Errorf("cannot skip required field %s", question.FieldKey)
	}
	s.answers[question.FieldKey] = intake.AnswerRecord{
		FieldKey:        question.FieldKey,
		Source:          intake.SourceSkipped,
		ValidationState: intake.ValidationValid,
	}
	return nil
}

// Commit creates or overwrites the single answer record for a field.
func (s *Sequencer) Commit(answer intake.AnswerRecord) error {
	if err := answer.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.knownField(answer.FieldKey) {
		return fmt.Errorf("field %s is not part of this session", answer.FieldKey)
	}
	s.answers[answer.FieldKey] = answer
	return nil
}

// Discard removes the answer record for a field, used by explicit retry.
func (s *Sequencer) Discard(fieldKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers, fieldKey)
}

// Answer returns the answer record for a field.
func (s *Sequencer) Answer(fieldKey string) (intake.AnswerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[fieldKey]
	return answer, ok
}

// Answers returns a copy of the answer map.
func (s *Sequencer) Answers() map[string]intake.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[string]intake.AnswerRecord, len(s.answers))
	for key, answer := range s.answers {
		copied[key] = answer
	}
	return copied
}

// AnsweredFields returns sorted field keys that have answer records.
func (s *Sequencer) AnsweredFields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.answers))
	for key := range s.answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Mode returns the session mode.
func (s *Sequencer) Mode() intake.SessionMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// ToggleMode flips standard <-> quick and returns the new mode. The caller
// resolves any pending batch locally when entering quick mode.
func (s *Sequencer) ToggleMode() intake.SessionMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == intake.ModeStandard {
		s.mode = intake.ModeQuick
	} else {
		s.mode = intake.ModeStandard
	}
	return s.mode
}

// RecordingState returns the exclusive capture state.
func (s *Sequencer) RecordingState() intake.RecordingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// SetRecordingState applies a capture state transition. Starting capture
// while recording or processing is rejected so at most one capture session
// is ever active.
func (s *Sequencer) SetRecordingState(next intake.RecordingState) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if next == intake.RecordingActive &&
		(s.recording == intake.RecordingActive || s.recording == intake.RecordingProcessing) {
		return fmt.Errorf("capture already active in state %s", s.recording)
	}
	s.recording = next
	return nil
}

func (s *Sequencer) knownField(fieldKey string) bool {
	for _, question := range s.questions {
		if question.FieldKey == fieldKey {
			return true
		}
	}
	return false
}
