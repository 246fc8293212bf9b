package ports

import "context"

// CaptureListener receives speech recognition events. OnTranscript delivers
// only final results per utterance; interim results stay inside adapters.
type CaptureListener interface {
	OnTranscript(text string, confidence float64)
	OnCaptureEnd()
	OnCaptureError(code string)
}

// CapturePort wraps a continuous speech recognition engine. Implementations
// deliver events to the registered listener; Start while a capture session
// is active is an error.
type CapturePort interface {
	SetListener(listener CaptureListener)
	Start(ctx context.Context) error
	Stop() error
}

// PromptListener receives speech synthesis lifecycle events.
type PromptListener interface {
	OnPromptStart()
	OnPromptEnd()
}

// PromptPort wraps text-to-speech. Speak is asynchronous: completion is
// signalled through the listener's OnPromptEnd.
type PromptPort interface {
	SetListener(listener PromptListener)
	Speak(ctx context.Context, text string) error
}
