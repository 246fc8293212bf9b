package timers

import (
	"fmt"
	"sync"
	"time"

	"github.com/tiger/voice-intake-controller/api/intake"
)

// Timer is a stoppable single-shot handle.
type Timer interface {
	Stop() bool
}

// Scheduler schedules single-shot callbacks. Production uses the wall clock;
// tests inject a fake that fires on demand.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type wallClockScheduler struct{}

func (wallClockScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// NewWallClockScheduler returns the production scheduler.
func NewWallClockScheduler() Scheduler {
	return wallClockScheduler{}
}

// Config controls timer durations and scheduling.
type Config struct {
	ConfirmationTimeout time.Duration
	SilenceTimeout      time.Duration
	DebounceTimeout     time.Duration
	Scheduler           Scheduler
}

type entry struct {
	generation int64
	timer      Timer
}

// Manager arms and cancels the session's single-shot timers. Each arm bumps
// a per-kind generation; a fire whose generation no longer matches is a
// stale fire from an earlier state entry and is dropped.
type Manager struct {
	cfg  Config
	fire func(intake.TimerFired)

	mu      sync.Mutex
	closed  bool
	entries map[intake.TimerKind]*entry
}

// NewManager constructs a timer manager delivering fires through the given
// callback.
func NewManager(cfg Config, fire func(intake.TimerFired)) (*Manager, error) {
	if fire == nil {
		return nil, fmt.Errorf("fire callback is required")
	}
	if cfg.ConfirmationTimeout <= 0 {
		cfg.ConfirmationTimeout = 10 * time.Second
	}
	if cfg.SilenceTimeout <= 0 {
		cfg.SilenceTimeout = 5 * time.Second
	}
	if cfg.DebounceTimeout <= 0 {
		cfg.DebounceTimeout = 2 * time.Second
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewWallClockScheduler()
	}
	return &Manager{
		cfg:     cfg,
		fire:    fire,
		entries: map[intake.TimerKind]*entry{},
	}, nil
}

// Arm starts (or restarts) the timer for a kind and returns its generation.
func (m *Manager) Arm(kind intake.TimerKind) (int64, error) {
	duration, err := m.duration(kind)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, fmt.Errorf("timer manager is closed")
	}

	current := m.entries[kind]
	if current == nil {
		current = &entry{}
		m.entries[kind] = current
	}
	if current.timer != nil {
		current.timer.Stop()
	}
	current.generation++
	generation := current.generation
	current.timer = m.cfg.Scheduler.AfterFunc(duration, func() {
		m.deliver(kind, generation)
	})
	return generation, nil
}

// Cancel stops the timer for a kind; later fires for it become stale.
func (m *Manager) Cancel(kind intake.TimerKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.entries[kind]
	if current == nil {
		return
	}
	if current.timer != nil {
		current.timer.Stop()
		current.timer = nil
	}
	current.generation++
}

// Close cancels every timer; the manager refuses further arming so nothing
// fires into a torn-down session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, current := range m.entries {
		if current.timer != nil {
			current.timer.Stop()
			current.timer = nil
		}
		current.generation++
	}
}

func (m *Manager) deliver(kind intake.TimerKind, generation int64) {
	m.mu.Lock()
	current := m.entries[kind]
	stale := m.closed || current == nil || current.generation != generation
	if !stale {
		current.timer = nil
	}
	m.mu.Unlock()
	if stale {
		return
	}
	m.fire(intake.TimerFired{Kind: kind, Generation: generation})
}

func (m *Manager) duration(kind intake.TimerKind) (time.Duration, error) {
	switch kind {
	case intake.TimerConfirmation:
		return m.cfg.ConfirmationTimeout, nil
	case intake.TimerSilence:
		return m.cfg.SilenceTimeout, nil
	case intake.TimerDebounce:
		return m.cfg.DebounceTimeout, nil
	default:
		return 0, fmt.Errorf("unsupported timer kind %q", kind)
	}
}
