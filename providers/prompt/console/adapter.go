// Package console provides a prompt port that prints prompts instead of
// synthesizing audio, for local runs and tests.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tiger/voice-intake-controller/internal/intake/ports"
)

// Adapter writes each prompt to an io.Writer and completes immediately.
type Adapter struct {
	mu       sync.Mutex
	listener ports.PromptListener
	out      io.Writer
}

// New constructs a console prompt adapter.
func New(out io.Writer) *Adapter {
	return &Adapter{out: out}
}

// SetListener registers the event consumer.
func (a *Adapter) SetListener(listener ports.PromptListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = listener
}

// Speak prints the prompt and signals start and end back to back.
func (a *Adapter) Speak(_ context.Context, text string) error {
	a.mu.Lock()
	listener := a.listener
	out := a.out
	a.mu.Unlock()
	if listener == nil {
		return fmt.Errorf("prompt listener is not set")
	}

	listener.OnPromptStart()
	if out != nil {
		fmt.Fprintf(out, "prompt> %s\n", text)
	}
	listener.OnPromptEnd()
	return nil
}
