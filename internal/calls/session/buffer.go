// Package session tracks in-flight call sessions: one mutable Buffer per
// call identity, owned by the Registry.
package session

import (
	"time"

	"leadline_backend/internal/calls/domain"
	"leadline_backend/platform/clock"
)

// Buffer is the mutable state of one in-flight call session. It is owned
// exclusively by the Registry under its identity key and must only be touched
// while holding the engine's event-processing lock.
type Buffer struct {
	identity string
	events   []domain.RawEvent

	lastEventTs   time.Time
	lastEventType string

	lastSavedOutcome string
	lastSavedTs      time.Time

	finalized         bool
	correctionApplied bool

	sched      clock.Scheduler
	idleWindow time.Duration
	onIdle     func()

	idleTimer     clock.Timer
	finalizeTimer clock.Timer
}

func newBuffer(identity string, sched clock.Scheduler, idleWindow time.Duration, onIdle func()) *Buffer {
	b := &Buffer{
		identity:   identity,
		sched:      sched,
		idleWindow: idleWindow,
		onIdle:     onIdle,
	}
	b.resetIdleTimer()
	return b
}

// Identity returns the session key this buffer is registered under.
func (b *Buffer) Identity() string { return b.identity }

// Events returns a copy of the raw event log.
func (b *Buffer) Events() []domain.RawEvent {
	out := make([]domain.RawEvent, len(b.events))
	copy(out, b.events)
	return out
}

// AddEvent appends an event unless it is an exact duplicate of the
// immediately preceding one. Any append refreshes the last-seen markers and
// the idle-expiry timer; a buffer idle past its window self-disposes
// regardless of finalize state.
func (b *Buffer) AddEvent(e domain.RawEvent) bool {
	if n := len(b.events); n > 0 && b.events[n-1].Equal(e) {
		return false
	}

	b.events = append(b.events, e)
	b.lastEventTs = e.Timestamp
	b.lastEventType = e.Outcome
	b.resetIdleTimer()
	return true
}

// UpdateLastEventWithDuration patches only the most recent event's duration
// and timestamp. Used when a duplicate-but-authoritative event arrives inside
// the dedupe window.
func (b *Buffer) UpdateLastEventWithDuration(duration int, ts time.Time) {
	n := len(b.events)
	if n == 0 {
		return
	}
	d := duration
	b.events[n-1].Duration = &d
	b.events[n-1].Timestamp = ts
	b.lastEventTs = ts
}

// LastEventTs returns when the most recent event was appended.
func (b *Buffer) LastEventTs() time.Time { return b.lastEventTs }

// LastEventType returns the outcome of the most recent event.
func (b *Buffer) LastEventType() string { return b.lastEventType }

// MarkSaved records the outcome/timestamp of the last persisted intermediate
// write, used to suppress redundant writes inside the dedupe window.
func (b *Buffer) MarkSaved(outcome string, ts time.Time) {
	b.lastSavedOutcome = outcome
	b.lastSavedTs = ts
}

// LastSaved returns the outcome and timestamp of the last persisted
// intermediate write.
func (b *Buffer) LastSaved() (string, time.Time) {
	return b.lastSavedOutcome, b.lastSavedTs
}

// ScheduleAutoFinalize arms the auto-finalize timer, replacing any in-flight
// one. The callback fires at most once unless rearmed.
func (b *Buffer) ScheduleAutoFinalize(d time.Duration, cb func()) {
	if b.finalizeTimer != nil {
		b.finalizeTimer.Stop()
	}
	b.finalizeTimer = b.sched.AfterFunc(d, cb)
}

// CancelAutoFinalize stops the auto-finalize timer. Safe on a timer that has
// already fired or was never armed.
func (b *Buffer) CancelAutoFinalize() {
	if b.finalizeTimer != nil {
		b.finalizeTimer.Stop()
		b.finalizeTimer = nil
	}
}

// MarkFinalized records that the session's terminal record was committed and
// cancels auto-finalize; it must never double-fire after an explicit
// finalize.
func (b *Buffer) MarkFinalized() {
	b.finalized = true
	b.CancelAutoFinalize()
}

// Finalized reports whether the session has committed its terminal record.
func (b *Buffer) Finalized() bool { return b.finalized }

// MarkCorrectionApplied latches the one-time post-finalize authoritative
// correction.
func (b *Buffer) MarkCorrectionApplied() { b.correctionApplied = true }

// CorrectionApplied reports whether the post-finalize correction already ran.
func (b *Buffer) CorrectionApplied() bool { return b.correctionApplied }

// Dispose cancels both timers. Safe to call multiple times.
func (b *Buffer) Dispose() {
	if b.idleTimer != nil {
		b.idleTimer.Stop()
		b.idleTimer = nil
	}
	b.CancelAutoFinalize()
}

func (b *Buffer) resetIdleTimer() {
	if b.idleTimer != nil {
		b.idleTimer.Stop()
	}
	if b.onIdle == nil || b.idleWindow <= 0 {
		return
	}
	b.idleTimer = b.sched.AfterFunc(b.idleWindow, b.onIdle)
}
