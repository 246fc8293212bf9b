package remote

import (
	"context"
	"fmt"

	"github.com/tiger/voice-intake-controller/api/intake"
	"github.com/tiger/voice-intake-controller/internal/intake/batch"
)

// Resolver adapts the service client to the batch queue's validator
// contract: pending items map onto the batch wire shape and positional
// results map back onto verdicts.
type Resolver struct {
	client *Client
}

// NewResolver wraps a client for use as a batch remote validator.
func NewResolver(client *Client) (*Resolver, error) {
	if client == nil {
		return nil, fmt.Errorf("validation client is required")
	}
	return &Resolver{client: client}, nil
}

// ValidateBatch sends every pending item in one request with the current
// answer set as context.
func (r *Resolver) ValidateBatch(ctx context.Context, items []intake.PendingBatchItem, answers map[string]intake.AnswerRecord) ([]batch.Verdict, error) {
	req := BatchRequest{Items: make([]BatchItem, 0, len(items))}
	for _, item := range items {
		req.Items = append(req.Items, BatchItem{
			Question: NewQuestionPayload(item.Question),
			Answer:   item.RawAnswer,
			Index:    item.QuestionIndex,
		})
	}
	req.Context.AllAnswers = make(map[string]string, len(answers))
	for fieldKey, answer := range answers {
		req.Context.AllAnswers[fieldKey] = answer.ProcessedValue
	}

	resp, err := r.client.ValidateBatch(ctx, req)
	if err != nil {
		return nil, err
	}
	verdicts := make([]batch.Verdict, 0, len(resp.Results))
	for _, result := range resp.Results {
		verdicts = append(verdicts, batch.Verdict{
			IsValid:         result.IsValid,
			ProcessedAnswer: result.ProcessedAnswer,
		})
	}
	return verdicts, nil
}
