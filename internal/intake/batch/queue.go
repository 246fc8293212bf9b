package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/tiger/voice-intake-controller/api/intake"
	"github.com/tiger/voice-intake-controller/internal/intake/localvalidate"
)

// Verdict is the remote service outcome for one pending item, aligned by
// position with the flushed items.
type Verdict struct {
	IsValid         bool
	ProcessedAnswer string
}

// RemoteValidator validates a pending batch with the full answer map as
// context.
type RemoteValidator interface {
	ValidateBatch(ctx context.Context, items []intake.PendingBatchItem, answers map[string]intake.AnswerRecord) ([]Verdict, error)
}

// Config controls queue behavior.
type Config struct {
	// FlushThreshold is the pending count that triggers an immediate flush.
	FlushThreshold int
}

// FlushResult carries the resolved answers for one completed flush.
type FlushResult struct {
	// Flushed reports whether a flush actually ran; false when the queue was
	// empty or a flush was already in flight.
	Flushed bool
	// UsedRemote is false when the remote call failed and the local
	// validator resolved the batch instead.
	UsedRemote bool
	Answers    []intake.AnswerRecord
}

const (
	remoteValidConfidence   = 0.9
	remoteInvalidConfidence = 0.3
)

// Queue accumulates answers awaiting remote confirmation. At most one item
// per field key is pending: a later answer for the same field supersedes the
// earlier one in place.
type Queue struct {
	threshold      int
	localValidator localvalidate.Validator
	remote         RemoteValidator

	mu       sync.Mutex
	items    []intake.PendingBatchItem
	inFlight bool
}

// New constructs an empty queue.
func New(cfg Config, remote RemoteValidator) (*Queue, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote validator is required")
	}
	if cfg.FlushThreshold <= 0 {
		cfg.FlushThreshold = 3
	}
	return &Queue{
		threshold:      cfg.FlushThreshold,
		localValidator: localvalidate.New(),
		remote:         remote,
	}, nil
}

// Enqueue appends (or supersedes) a pending item and reports whether the
// flush threshold has been reached.
func (q *Queue) Enqueue(item intake.PendingBatchItem) (thresholdReached bool, err error) {
	if err := item.Validate(); err != nil {
		return false, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	replaced := false
	for i := range q.items {
		if q.items[i].Question.FieldKey == item.Question.FieldKey {
			q.items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		q.items = append(q.items, item)
	}
	return len(q.items) >= q.threshold && !q.inFlight, nil
}

// Len returns the pending item count.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns a copy of the pending items in enqueue order.
func (q *Queue) Pending() []intake.PendingBatchItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	copied := make([]intake.PendingBatchItem, len(q.items))
	copy(copied, q.items)
	return copied
}

// Flush sends the pending set to the remote service with the current answer
// map as context, falling back to the local validator on failure so no item
// is ever left unresolved. The flushed set is removed atomically on
// completion; items superseded during the flight survive.
func (q *Queue) Flush(ctx context.Context, answers map[string]intake.AnswerRecord) (FlushResult, error) {
	q.mu.Lock()
	if q.inFlight || len(q.items) == 0 {
		q.mu.Unlock()
		return FlushResult{}, nil
	}
	q.inFlight = true
	snapshot := make([]intake.PendingBatchItem, len(q.items))
	copy(snapshot, q.items)
	q.mu.Unlock()

	verdicts, err := q.remote.ValidateBatch(ctx, snapshot, answers)
	usedRemote := err == nil && len(verdicts) == len(snapshot)

	resolved := make([]intake.AnswerRecord, 0, len(snapshot))
	for i, item := range snapshot {
		if usedRemote {
			resolved = append(resolved, remoteAnswer(item, verdicts[i]))
			continue
		}
		localAnswer, localErr := q.localFallback(item)
		if localErr != nil {
			q.release(nil)
			return FlushResult{}, localErr
		}
		resolved = append(resolved, localAnswer)
	}

	q.release(snapshot)
	return FlushResult{Flushed: true, UsedRemote: usedRemote, Answers: resolved}, nil
}

// ResolveLocally resolves every pending item with the local validator and
// clears the queue. Used when the session switches into quick mode or tears
// down with work pending.
func (q *Queue) ResolveLocally() ([]intake.AnswerRecord, error) {
	q.mu.Lock()
	snapshot := make([]intake.PendingBatchItem, len(q.items))
	copy(snapshot, q.items)
	q.mu.Unlock()

	resolved := make([]intake.AnswerRecord, 0, len(snapshot))
	for _, item := range snapshot {
		answer, err := q.localFallback(item)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, answer)
	}
	q.release(snapshot)
	return resolved, nil
}

func (q *Queue) release(flushed []intake.PendingBatchItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inFlight = false
	if len(flushed) == 0 {
		return
	}
	kept := q.items[:0]
	for _, item := range q.items {
		if !containsItem(flushed, item) {
			kept = append(kept, item)
		}
	}
	q.items = kept
}

func containsItem(items []intake.PendingBatchItem, candidate intake.PendingBatchItem) bool {
	for _, item := range items {
		if item.Question.FieldKey == candidate.Question.FieldKey && item.RawAnswer == candidate.RawAnswer {
			return true
		}
	}
	return false
}

func remoteAnswer(item intake.PendingBatchItem, verdict Verdict) intake.AnswerRecord {
	value := verdict.ProcessedAnswer
	if value == "" {
		value = item.RawAnswer
	}
	answer := intake.AnswerRecord{
		FieldKey:        item.Question.FieldKey,
		RawTranscript:   item.RawAnswer,
		ProcessedValue:  value,
		Source:          intake.SourceBatch,
		Confidence:      remoteValidConfidence,
		ValidationState: intake.ValidationValid,
	}
	if !verdict.IsValid {
		answer.Confidence = remoteInvalidConfidence
		answer.ValidationState = intake.ValidationInvalid
	}
	return answer
}

func (q *Queue) localFallback(item intake.PendingBatchItem) (intake.AnswerRecord, error) {
	local, err := q.localValidator.Validate(item.Question, item.RawAnswer)
	if err != nil {
		return intake.AnswerRecord{}, err
	}
	value := local.NormalizedValue
	if value == "" {
		value = item.RawAnswer
	}
	answer := intake.AnswerRecord{
		FieldKey:        item.Question.FieldKey,
		RawTranscript:   item.RawAnswer,
		ProcessedValue:  value,
		Source:          intake.SourceLocal,
		Confidence:      local.Confidence,
		ValidationState: intake.ValidationValid,
	}
	if !local.Accepted {
		answer.ValidationState = intake.ValidationInvalid
	}
	return answer, nil
}
