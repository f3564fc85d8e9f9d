package clock

import (
	"sync"
	"time"
)

// Ticker invokes a callback every period until stopped.
// It is safe for concurrent use.
type Ticker struct {
	mu      sync.Mutex
	clock   Clock
	period  time.Duration
	onTick  func()
	timer   Timer
	stopped bool
}

// Every starts a Ticker on c that calls onTick once per period.
// The first call happens one period from now.
//
// Precondition: period > 0; onTick must not be nil.
// Postcondition: Returns a running Ticker; onTick is called until Stop.
func Every(c Clock, period time.Duration, onTick func()) *Ticker {
	if period <= 0 {
		panic("clock.Every: period must be > 0")
	}
	t := &Ticker{clock: c, period: period, onTick: onTick}
	t.mu.Lock()
	t.scheduleLocked()
	t.mu.Unlock()
	return t
}

func (t *Ticker) scheduleLocked() {
	t.timer = t.clock.AfterFunc(t.period, t.fire)
}

func (t *Ticker) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	// Re-arm before invoking so a slow callback does not accumulate drift.
	t.scheduleLocked()
	t.mu.Unlock()
	t.onTick()
}

// Stop prevents further callbacks. Safe to call multiple times.
//
// Postcondition: onTick will not be called after Stop returns, except for a
// call already in progress.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}
