// Package clock provides time and single-shot timer infrastructure so that
// time-dependent components can run against virtual time in tests.
// This is part of the platform layer and contains no business logic.
package clock

import "time"

// Timer is a cancellable single-shot timer. Stop reports whether the call
// prevented the timer from firing; stopping an already-fired or
// already-stopped timer is a safe no-op.
type Timer interface {
	Stop() bool
}

// Scheduler provides the current time and schedules single-shot callbacks.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// realScheduler delegates to the time package.
type realScheduler struct{}

// New returns a Scheduler backed by real time.
func New() Scheduler {
	return realScheduler{}
}

func (realScheduler) Now() time.Time {
	return time.Now()
}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
