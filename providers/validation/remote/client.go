package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/tiger/voice-intake-controller/api/intake"
)

// Config configures the remote validation service client.
type Config struct {
	SingleEndpoint string
	BatchEndpoint  string
	APIKey         string
	APIKeyHeader   string
	Timeout        time.Duration
}

// ConfigFromEnv reads client settings from the environment.
func ConfigFromEnv() Config {
	return Config{
		SingleEndpoint: defaultString(os.Getenv("INTAKE_VALIDATION_ENDPOINT"), "http://localhost:8090/v1/validate"),
		BatchEndpoint:  defaultString(os.Getenv("INTAKE_VALIDATION_BATCH_ENDPOINT"), "http://localhost:8090/v1/validate-batch"),
		APIKey:         os.Getenv("INTAKE_VALIDATION_API_KEY"),
		APIKeyHeader:   defaultString(os.Getenv("INTAKE_VALIDATION_API_KEY_HEADER"), "Authorization"),
		Timeout:        10 * time.Second,
	}
}

// Client calls the remote validation service over JSON HTTP.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient constructs a validation client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.SingleEndpoint == "" && cfg.BatchEndpoint == "" {
		return nil, fmt.Errorf("at least one validation endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{cfg: cfg, client: &http.Client{}}, nil
}

// NewClientFromEnv constructs a validation client from the environment.
func NewClientFromEnv() (*Client, error) {
	return NewClient(ConfigFromEnv())
}

// QuestionPayload is the service-facing question shape.
type QuestionPayload struct {
	ID       int    `json:"id"`
	FieldKey string `json:"fieldKey"`
	Prompt   string `json:"prompt"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
}

// SingleRequest validates one answer with prior answers as context.
type SingleRequest struct {
	Question QuestionPayload `json:"question"`
	Answer   string          `json:"answer"`
	Context  struct {
		PreviousAnswers map[string]string `json:"previousAnswers"`
	} `json:"context"`
}

// SingleResponse is the service verdict for one answer.
type SingleResponse struct {
	IsValid         bool     `json:"isValid"`
	ProcessedAnswer string   `json:"processedAnswer"`
	Confidence      float64  `json:"confidence"`
	Suggestions     []string `json:"suggestions,omitempty"`
}

// BatchItem is one pending answer inside a batch request.
type BatchItem struct {
	Question QuestionPayload `json:"question"`
	Answer   string          `json:"answer"`
	Index    int             `json:"index"`
}

// BatchRequest validates all pending answers in one call.
type BatchRequest struct {
	Items   []BatchItem `json:"items"`
	Context struct {
		AllAnswers map[string]string `json:"allAnswers"`
	} `json:"context"`
}

// BatchResult is aligned by position with the request items.
type BatchResult struct {
	IsValid         bool   `json:"isValid"`
	ProcessedAnswer string `json:"processedAnswer"`
}

// BatchResponse carries per-item verdicts.
type BatchResponse struct {
	Results []BatchResult `json:"results"`
}

// ServiceError is a normalized validation service failure.
type ServiceError struct {
	Reason     string
	StatusCode int
	Retryable  bool
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("validation service: %s (status %d)", e.Reason, e.StatusCode)
	}
	return fmt.Sprintf("validation service: %s", e.Reason)
}

// IsRetryable reports whether an error is a retryable service failure.
func IsRetryable(err error) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Retryable
	}
	return false
}

// NewQuestionPayload maps a question definition onto the service wire shape.
func NewQuestionPayload(question intake.QuestionDefinition) QuestionPayload {
	return QuestionPayload{
		ID:       question.ID,
		FieldKey: question.FieldKey,
		Prompt:   question.Prompt,
		Kind:     string(question.Kind),
		Required: question.Required,
	}
}

// ValidateSingle validates one answer against the remote service.
func (c *Client) ValidateSingle(ctx context.Context, req SingleRequest) (SingleResponse, error) {
	var resp SingleResponse
	if c.cfg.SingleEndpoint == "" {
		return resp, &ServiceError{Reason: "single_endpoint_missing"}
	}
	if err := c.post(ctx, c.cfg.SingleEndpoint, req, &resp); err != nil {
		return SingleResponse{}, err
	}
	return resp, nil
}

// ValidateBatch validates all pending answers in one request. Results align
// by array position with the request items.
func (c *Client) ValidateBatch(ctx context.Context, req BatchRequest) (BatchResponse, error) {
	var resp BatchResponse
	if c.cfg.BatchEndpoint == "" {
		return resp, &ServiceError{Reason: "batch_endpoint_missing"}
	}
	if len(req.Items) == 0 {
		return resp, fmt.Errorf("batch request requires at least one item")
	}
	if err := c.post(ctx, c.cfg.BatchEndpoint, req, &resp); err != nil {
		return BatchResponse{}, err
	}
	if len(resp.Results) != len(req.Items) {
		return BatchResponse{}, &ServiceError{Reason: "batch_result_misaligned"}
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.cfg.APIKeyHeader != "" && c.cfg.APIKey != "" {
		httpReq.Header.Set(c.cfg.APIKeyHeader, c.cfg.APIKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return normalizeNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return normalizeStatus(resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServiceError{Reason: "malformed_response"}
	}
	return nil
}

func normalizeNetworkError(err error) error {
	if errors.Is(err, context.Canceled) {
		return &ServiceError{Reason: "cancelled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ServiceError{Reason: "timeout", Retryable: true}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ServiceError{Reason: "timeout", Retryable: true}
	}
	return &ServiceError{Reason: "transport_error", Retryable: true}
}

func normalizeStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ServiceError{Reason: "overload", StatusCode: status, Retryable: true}
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return &ServiceError{Reason: "timeout", StatusCode: status, Retryable: true}
	case status >= 400 && status <= 499:
		return &ServiceError{Reason: "client_error", StatusCode: status}
	default:
		return &ServiceError{Reason: "server_error", StatusCode: status, Retryable: true}
	}
}

func defaultString(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
