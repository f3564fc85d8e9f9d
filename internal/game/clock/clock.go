// Package clock abstracts wall-clock scheduling so that timer-driven game
// logic can be driven by a manual clock in tests.
package clock

import "time"

// Timer is a pending one-shot callback.
type Timer interface {
	// Stop prevents the callback from firing. Returns false if the callback
	// already fired or the timer was already stopped.
	Stop() bool
}

// Clock schedules callbacks against a time source.
//
// Implementations MUST be safe for concurrent use.
type Clock interface {
	// Now returns the current time according to this clock.
	Now() time.Time
	// AfterFunc calls fn after d has elapsed.
	//
	// Precondition: d >= 0; fn must not be nil.
	AfterFunc(d time.Duration, fn func()) Timer
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
