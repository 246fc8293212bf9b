// Package scripted provides a deterministic capture port fed from a fixed
// utterance list, for local runs and tests without a microphone.
package scripted

import (
	"context"
	"fmt"
	"sync"

	"github.com/tiger/voice-intake-controller/internal/intake/ports"
)

// Utterance is one scripted recognition result.
type Utterance struct {
	// Text and Confidence form the final transcript. Ignored when Silence
	// or ErrorCode is set.
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	// Silence delivers nothing, leaving the silence timer to fire.
	Silence bool `json:"silence,omitempty"`
	// ErrorCode delivers a capture error instead of a transcript.
	ErrorCode string `json:"error_code,omitempty"`
}

// Adapter replays scripted utterances: each capture start delivers the next
// one to the listener.
type Adapter struct {
	mu         sync.Mutex
	listener   ports.CaptureListener
	utterances []Utterance
	cursor     int
	active     bool
}

// New constructs an adapter over a fixed script.
func New(utterances []Utterance) *Adapter {
	return &Adapter{utterances: utterances}
}

// SetListener registers the event consumer.
func (a *Adapter) SetListener(listener ports.CaptureListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = listener
}

// Start delivers the next scripted utterance. Script exhaustion surfaces as
// a capture end with no transcript.
func (a *Adapter) Start(_ context.Context) error {
	a.mu.Lock()
	if a.listener == nil {
		a.mu.Unlock()
		return fmt.Errorf("capture listener is not set")
	}
	if a.active {
		a.mu.Unlock()
		return fmt.Errorf("capture already active")
	}
	a.active = true
	listener := a.listener
	var next *Utterance
	if a.cursor < len(a.utterances) {
		utterance := a.utterances[a.cursor]
		a.cursor++
		next = &utterance
	}
	a.mu.Unlock()

	switch {
	case next == nil:
		listener.OnCaptureEnd()
	case next.ErrorCode != "":
		listener.OnCaptureError(next.ErrorCode)
	case next.Silence:
		// Nothing delivered; the controller's silence timer takes over.
	default:
		listener.OnTranscript(next.Text, next.Confidence)
	}
	return nil
}

// Stop ends the active capture session.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = false
	return nil
}

// Remaining returns the count of undelivered utterances.
func (a *Adapter) Remaining() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.utterances) - a.cursor
}
