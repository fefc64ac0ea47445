package transport

import (
	"time"

	"leadline_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// LeadResponse is the lead detail payload served to the app.
type LeadResponse struct {
	ID                uuid.UUID          `json:"id"`
	Phone             string             `json:"phone"`
	DisplayName       string             `json:"displayName"`
	NeedsManualReview bool               `json:"needsManualReview"`
	LastContactAt     *time.Time         `json:"lastContactAt,omitempty"`
	CallHistory       []CallEventPayload `json:"callHistory"`
}

// CallEventPayload is one call-history entry.
type CallEventPayload struct {
	ID              uuid.UUID `json:"id"`
	Direction       string    `json:"direction"`
	Outcome         string    `json:"outcome"`
	OccurredAt      time.Time `json:"occurredAt"`
	DurationSeconds *int      `json:"durationSeconds,omitempty"`
	Final           bool      `json:"final"`
}

// FromLead maps the repository shapes onto the response payload.
func FromLead(lead repository.Lead, history []repository.CallEvent) LeadResponse {
	resp := LeadResponse{
		ID:                lead.ID,
		Phone:             lead.Phone,
		DisplayName:       lead.DisplayName,
		NeedsManualReview: lead.NeedsManualReview,
		LastContactAt:     lead.LastContactAt,
		CallHistory:       make([]CallEventPayload, 0, len(history)),
	}
	for _, event := range history {
		resp.CallHistory = append(resp.CallHistory, CallEventPayload{
			ID:              event.ID,
			Direction:       event.Direction,
			Outcome:         event.Outcome,
			OccurredAt:      event.OccurredAt,
			DurationSeconds: event.DurationSeconds,
			Final:           event.Final,
		})
	}
	return resp
}
