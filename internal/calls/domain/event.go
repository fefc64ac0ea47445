// Package domain provides the core call-event model for the calls bounded
// context: raw native events, outcome classification, and consolidation.
// It is pure and has no I/O.
package domain

import "time"

// Direction indicates which side initiated the call.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Canonical outcome labels emitted by the native call layer.
const (
	OutcomeRinging       = "ringing"
	OutcomeStarted       = "started"
	OutcomeOutgoingStart = "outgoing_start"
	OutcomeAnswered      = "answered"
	OutcomeEnded         = "ended"
	OutcomeMissed        = "missed"
	OutcomeRejected      = "rejected"
)

// RawEvent is one native call-lifecycle notification. Duration is only set on
// authoritative events sourced from the device call log; such events are
// trusted over anything inferred from live signals.
type RawEvent struct {
	PhoneNumber string
	Outcome     string
	Direction   Direction
	Timestamp   time.Time
	Duration    *int // seconds
}

// HasDuration reports whether the event carries an authoritative duration.
func (e RawEvent) HasDuration() bool {
	return e.Duration != nil
}

// DurationSeconds returns the carried duration, or 0 when absent.
func (e RawEvent) DurationSeconds() int {
	if e.Duration == nil {
		return 0
	}
	return *e.Duration
}

// Equal reports whether two events are exact duplicates: same outcome,
// timestamp and duration. Used to reject back-to-back repeats on append.
func (e RawEvent) Equal(other RawEvent) bool {
	if e.Outcome != other.Outcome || !e.Timestamp.Equal(other.Timestamp) {
		return false
	}
	if (e.Duration == nil) != (other.Duration == nil) {
		return false
	}
	return e.Duration == nil || *e.Duration == *other.Duration
}
