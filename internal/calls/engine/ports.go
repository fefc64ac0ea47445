// Package engine implements the call-event reconciliation engine: it
// collapses the unreliable native event stream into exactly one persisted
// record per physical call and drives the call-screen side effect.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadline_backend/internal/calls/domain"
)

// Lead is the engine's view of a CRM lead, as returned by the storage
// collaborator.
type Lead struct {
	ID                uuid.UUID
	Phone             string
	Name              string
	NeedsManualReview bool
}

// CallEventParams identifies an intermediate call event to persist.
type CallEventParams struct {
	Phone     string
	Direction domain.Direction
	Outcome   string
	Timestamp time.Time
	Duration  *int
}

// FinalCallParams identifies the single terminal write for one physical
// call. Phone plus Timestamp locate the record; the session buffer may have
// moved on by the time the write completes.
type FinalCallParams struct {
	Phone     string
	Direction domain.Direction
	Outcome   string
	Timestamp time.Time
	Duration  *int
}

// CallLogCorrectionParams carries a post-finalize authoritative correction
// sourced from the device call log. Patch-only: it never creates history.
type CallLogCorrectionParams struct {
	Phone        string
	Direction    domain.Direction
	Timestamp    time.Time
	Duration     int
	FinalOutcome string
}

// LeadRecorder is the external lead-storage collaborator. All operations are
// expected to be idempotent on the storage side; the engine guarantees
// at-most-one finalize call per physical call from its side.
type LeadRecorder interface {
	FindOrCreateLead(ctx context.Context, phone string) (*Lead, error)
	AddCallEvent(ctx context.Context, p CallEventParams) (*Lead, error)
	AddFinalCallEvent(ctx context.Context, p FinalCallParams) (*Lead, error)
	UpdateCallFromCallLog(ctx context.Context, p CallLogCorrectionParams) error
}

// ScreenOpener is the call-screen side effect surface. RequestOpen reports
// whether the open was accepted (the gate may refuse or defer).
type ScreenOpener interface {
	RequestOpen(phone string, lead *Lead) bool
}
