package batch

import (
	"context"
	"fmt"
	"testing"

	"github.com/tiger/voice-intake-controller/api/intake"
)

type fakeRemote struct {
	calls    int
	fail     bool
	verdicts func(items []intake.PendingBatchItem) []Verdict
}

func (f *fakeRemote) ValidateBatch(_ context.Context, items []intake.PendingBatchItem, _ map[string]intake.AnswerRecord) ([]Verdict, error) {
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("validation service unreachable")
	}
	if f.verdicts != nil {
		return f.verdicts(items), nil
	}
	verdicts := make([]Verdict, len(items))
	for i, item := range items {
		verdicts[i] = Verdict{IsValid: true, ProcessedAnswer: "remote:" + item.RawAnswer}
	}
	return verdicts, nil
}

func pendingItem(index int, fieldKey string, answer string) intake.PendingBatchItem {
	return intake.PendingBatchItem{
		Question: intake.QuestionDefinition{
			ID:       index,
			Prompt:   "prompt for " + fieldKey,
			FieldKey: fieldKey,
			Kind:     intake.KindText,
		},
		RawAnswer:     answer,
		QuestionIndex: index,
	}
}

func TestEnqueueReportsThreshold(t *testing.T) {
	t.Parallel()

	queue, err := New(Config{}, &fakeRemote{})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	for i, fieldKey := range []string{"allergies", "medications"} {
		reached, err := queue.Enqueue(pendingItem(i, fieldKey, "answer"))
		if err != nil {
			t.Fatalf("enqueue %s: %v", fieldKey, err)
		}
		if reached {
			t.Fatalf("threshold must not trigger below 3 pending, reached at %s", fieldKey)
		}
	}
	reached, err := queue.Enqueue(pendingItem(2, "symptoms", "answer"))
	if err != nil {
		t.Fatalf("enqueue symptoms: %v", err)
	}
	if !reached {
		t.Fatalf("expected threshold at 3 pending items")
	}
}

func TestEnqueueSupersedesSameField(t *testing.T) {
	t.Parallel()

	queue, err := New(Config{}, &fakeRemote{})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	if _, err := queue.Enqueue(pendingItem(0, "allergies", "peanuts")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := queue.Enqueue(pendingItem(0, "allergies", "peanuts and shellfish")); err != nil {
		t.Fatalf("supersede: %v", err)
	}
	pending := queue.Pending()
	if len(pending) != 1 || pending[0].RawAnswer != "peanuts and shellfish" {
		t.Fatalf("expected one superseded item, got %+v", pending)
	}
}

func TestFlushSuccessOverwritesWithRemoteValues(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	queue, err := New(Config{}, remote)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	if _, err := queue.Enqueue(pendingItem(0, "allergies", "peanuts")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := queue.Enqueue(pendingItem(1, "medications", "aspirin")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	result, err := queue.Flush(context.Background(), nil)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !result.Flushed || !result.UsedRemote {
		t.Fatalf("expected remote flush, got %+v", result)
	}
	if len(result.Answers) != 2 {
		t.Fatalf("expected two resolved answers, got %+v", result.Answers)
	}
	for _, answer := range result.Answers {
		if answer.Source != intake.SourceBatch || answer.ValidationState != intake.ValidationValid {
			t.Fatalf("expected valid batch answer, got %+v", answer)
		}
		if answer.ProcessedValue != "remote:"+answer.RawTranscript {
			t.Fatalf("expected remote processed value, got %+v", answer)
		}
	}
	if queue.Len() != 0 {
		t.Fatalf("expected cleared queue, got %d pending", queue.Len())
	}
}

func TestFlushFailureFallsBackToLocalValidator(t *testing.T) {
	t.Parallel()

	queue, err := New(Config{}, &fakeRemote{fail: true})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	// A generic field passes the local fallback, an age answer out of range
	// fails it; neither may remain unresolved.
	if _, err := queue.Enqueue(pendingItem(0, "allergies", "peanuts")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	ageItem := pendingItem(1, "age", "150")
	ageItem.Question.Kind = intake.KindNumber
	if _, err := queue.Enqueue(ageItem); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	result, err := queue.Flush(context.Background(), nil)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !result.Flushed || result.UsedRemote {
		t.Fatalf("expected local fallback flush, got %+v", result)
	}
	byField := map[string]intake.AnswerRecord{}
	for _, answer := range result.Answers {
		if answer.Source != intake.SourceLocal {
			t.Fatalf("fallback answers must carry local source, got %+v", answer)
		}
		if answer.ValidationState != intake.ValidationValid && answer.ValidationState != intake.ValidationInvalid {
			t.Fatalf("answer left unresolved: %+v", answer)
		}
		byField[answer.FieldKey] = answer
	}
	if byField["allergies"].ValidationState != intake.ValidationValid {
		t.Fatalf("expected allergies valid, got %+v", byField["allergies"])
	}
	if byField["age"].ValidationState != intake.ValidationInvalid {
		t.Fatalf("expected out-of-range age invalid, got %+v", byField["age"])
	}
	if queue.Len() != 0 {
		t.Fatalf("expected cleared queue after fallback, got %d pending", queue.Len())
	}
}

func TestFlushOnEmptyQueueIsANoop(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	queue, err := New(Config{}, remote)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	result, err := queue.Flush(context.Background(), nil)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if result.Flushed || remote.calls != 0 {
		t.Fatalf("expected no flush on empty queue, got %+v calls=%d", result, remote.calls)
	}
}

func TestResolveLocallyEmptiesQueue(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	queue, err := New(Config{}, remote)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	if _, err := queue.Enqueue(pendingItem(0, "allergies", "peanuts")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := queue.Enqueue(pendingItem(1, "medications", "aspirin")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	answers, err := queue.ResolveLocally()
	if err != nil {
		t.Fatalf("resolve locally: %v", err)
	}
	if len(answers) != 2 || queue.Len() != 0 {
		t.Fatalf("expected both items resolved and queue emptied, got %d answers %d pending", len(answers), queue.Len())
	}
	if remote.calls != 0 {
		t.Fatalf("local resolution must not call the remote service")
	}
	for _, answer := range answers {
		if answer.Source != intake.SourceLocal || answer.ValidationState != intake.ValidationValid {
			t.Fatalf("expected valid local answer, got %+v", answer)
		}
	}
}

func TestItemSupersededDuringFlightSurvives(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	queue, err := New(Config{}, remote)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	if _, err := queue.Enqueue(pendingItem(0, "allergies", "peanuts")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	// Supersede after the flush snapshot by swapping the remote call for one
	// that enqueues mid-flight.
	remote.verdicts = func(items []intake.PendingBatchItem) []Verdict {
		if _, err := queue.Enqueue(pendingItem(0, "allergies", "shellfish")); err != nil {
			t.Errorf("mid-flight enqueue: %v", err)
		}
		verdicts := make([]Verdict, len(items))
		for i := range items {
			verdicts[i] = Verdict{IsValid: true}
		}
		return verdicts
	}

	result, err := queue.Flush(context.Background(), nil)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !result.Flushed {
		t.Fatalf("expected flush to run")
	}
	pending := queue.Pending()
	if len(pending) != 1 || pending[0].RawAnswer != "shellfish" {
		t.Fatalf("expected the superseding item to survive, got %+v", pending)
	}
}
