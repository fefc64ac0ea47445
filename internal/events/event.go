// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadline_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Call Events
// =============================================================================

// LeadCallFinalized is published when a physical call has been consolidated
// into its single terminal record.
type LeadCallFinalized struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	Phone           string    `json:"phone"`
	Direction       string    `json:"direction"`
	Outcome         string    `json:"outcome"`
	DurationSeconds *int      `json:"durationSeconds,omitempty"`
}

func (e LeadCallFinalized) EventName() string { return "calls.call.finalized" }

// LeadCallCorrected is published when an authoritative call-log duration
// patched an already finalized record.
type LeadCallCorrected struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	Phone           string    `json:"phone"`
	DurationSeconds int       `json:"durationSeconds"`
}

func (e LeadCallCorrected) EventName() string { return "calls.call.corrected" }

// LeadNeedsManualReview is published when storage could not confidently
// attach a call to a lead and an operator should look at it.
type LeadNeedsManualReview struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Phone  string    `json:"phone"`
	Reason string    `json:"reason"`
}

func (e LeadNeedsManualReview) EventName() string { return "leads.manual_review.required" }
