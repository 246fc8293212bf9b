package timers

import (
	"sync"
	"time"
)

// FakeScheduler collects scheduled callbacks and fires them on demand, so
// timer behavior is deterministic in tests.
type FakeScheduler struct {
	mu      sync.Mutex
	pending []*fakeTimer
}

type fakeTimer struct {
	scheduler *FakeScheduler
	delay     time.Duration
	fn        func()
	stopped   bool
	fired     bool
}

// NewFakeScheduler returns an empty fake scheduler.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

// AfterFunc records the callback without starting any clock.
func (s *FakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &fakeTimer{scheduler: s, delay: d, fn: fn}
	s.pending = append(s.pending, timer)
	return timer
}

// Pending returns the number of scheduled, unfired, unstopped callbacks.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, timer := range s.pending {
		if !timer.stopped && !timer.fired {
			count++
		}
	}
	return count
}

// FireNext fires the oldest live callback and reports whether one fired.
func (s *FakeScheduler) FireNext() bool {
	s.mu.Lock()
	var target *fakeTimer
	for _, timer := range s.pending {
		if !timer.stopped && !timer.fired {
			target = timer
			break
		}
	}
	if target != nil {
		target.fired = true
	}
	s.mu.Unlock()
	if target == nil {
		return false
	}
	target.fn()
	return true
}

// FireAll fires every live callback in scheduling order.
func (s *FakeScheduler) FireAll() int {
	fired := 0
	for s.FireNext() {
		fired++
	}
	return fired
}

func (t *fakeTimer) Stop() bool {
	t.scheduler.mu.Lock()
	defer t.scheduler.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
