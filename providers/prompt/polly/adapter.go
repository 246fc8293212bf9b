// Package polly backs the speech prompt port with Amazon Polly synthesis.
package polly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"

	"github.com/tiger/voice-intake-controller/internal/intake/ports"
)

type synthClient interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Config controls voice and region selection.
type Config struct {
	Region  string
	VoiceID string
	Engine  string
	Timeout time.Duration
	// AudioSink receives synthesized audio; nil discards it, which suits
	// runtimes where playback happens elsewhere.
	AudioSink io.Writer
}

// ConfigFromEnv reads adapter settings from the environment.
func ConfigFromEnv() Config {
	return Config{
		Region:  defaultString(os.Getenv("INTAKE_TTS_POLLY_REGION"), defaultString(os.Getenv("AWS_REGION"), "us-east-1")),
		VoiceID: defaultString(os.Getenv("INTAKE_TTS_POLLY_VOICE"), "Joanna"),
		Engine:  defaultString(os.Getenv("INTAKE_TTS_POLLY_ENGINE"), "neural"),
		Timeout: 15 * time.Second,
	}
}

// Adapter implements the prompt port over Polly synthesis.
type Adapter struct {
	mu       sync.Mutex
	client   synthClient
	listener ports.PromptListener
	cfg      Config
}

// NewAdapter constructs an adapter resolving the AWS client lazily.
func NewAdapter(cfg Config) (*Adapter, error) {
	return NewAdapterWithClient(cfg, nil)
}

// NewAdapterWithClient constructs an adapter with an injected synthesis
// client, used by tests.
func NewAdapterWithClient(cfg Config, client synthClient) (*Adapter, error) {
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	if strings.TrimSpace(cfg.VoiceID) == "" {
		cfg.VoiceID = "Joanna"
	}
	if strings.TrimSpace(cfg.Engine) == "" {
		cfg.Engine = "neural"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Adapter{client: client, cfg: cfg}, nil
}

// NewAdapterFromEnv constructs an adapter from the environment.
func NewAdapterFromEnv() (*Adapter, error) {
	return NewAdapter(ConfigFromEnv())
}

// SetListener registers the event consumer.
func (a *Adapter) SetListener(listener ports.PromptListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = listener
}

// Speak synthesizes the prompt and signals lifecycle events. The audio
// stream is drained into the configured sink before OnPromptEnd fires so
// capture never opens mid-playback.
func (a *Adapter) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("prompt text is required")
	}
	a.mu.Lock()
	listener := a.listener
	a.mu.Unlock()
	if listener == nil {
		return fmt.Errorf("prompt listener is not set")
	}

	client, err := a.resolveClient(ctx)
	if err != nil {
		return err
	}

	engine := pollytypes.EngineStandard
	if strings.EqualFold(a.cfg.Engine, "neural") {
		engine = pollytypes.EngineNeural
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	listener.OnPromptStart()
	output, err := client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       engine,
		OutputFormat: pollytypes.OutputFormatMp3,
		Text:         &text,
		TextType:     pollytypes.TextTypeText,
		VoiceId:      pollytypes.VoiceId(a.cfg.VoiceID),
	})
	if err != nil {
		return normalizeSynthesisError(err)
	}
	if output == nil || output.AudioStream == nil {
		return fmt.Errorf("synthesis returned empty audio")
	}
	defer output.AudioStream.Close()
	sink := a.cfg.AudioSink
	if sink == nil {
		sink = io.Discard
	}
	if _, err := io.Copy(sink, output.AudioStream); err != nil {
		return fmt.Errorf("drain synthesized audio: %w", err)
	}
	listener.OnPromptEnd()
	return nil
}

func (a *Adapter) resolveClient(ctx context.Context) (synthClient, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(a.cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	a.client = polly.NewFromConfig(awsCfg)
	return a.client, nil
}

func normalizeSynthesisError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("synthesis cancelled: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("synthesis timeout: %w", err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("synthesis failed (%s): %w", apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("synthesis transport error: %w", err)
}

func defaultString(v string, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
