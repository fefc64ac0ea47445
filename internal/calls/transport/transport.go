// Package transport defines the wire DTOs for the device call-event webhook
// and their mapping onto the domain model.
package transport

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"leadline_backend/internal/calls/domain"
)

// InboundEvent is one native call notification as uploaded by the device.
type InboundEvent struct {
	PhoneNumber       string `json:"phoneNumber,omitempty"`
	Outcome           string `json:"outcome" validate:"required"`
	Direction         string `json:"direction" validate:"required"`
	Timestamp         int64  `json:"timestamp,omitempty"` // epoch millis
	DurationInSeconds *int   `json:"durationInSeconds,omitempty" validate:"omitempty,gte=0"`
}

// EventBatchRequest is the webhook payload. Devices batch events and retry
// delivery, so DeliveryID deduplicates the whole upload. Events are kept raw
// so one malformed entry drops alone instead of failing the batch.
type EventBatchRequest struct {
	DeliveryID string            `json:"deliveryId" validate:"required"`
	Events     []json.RawMessage `json:"events" validate:"required,min=1"`
}

// EventResult reports how one event of a batch was reconciled.
type EventResult struct {
	Status   string `json:"status"`
	Identity string `json:"identity,omitempty"`
}

// EventBatchResponse is returned for a processed (or replayed) upload.
type EventBatchResponse struct {
	Duplicate bool          `json:"duplicate"`
	Results   []EventResult `json:"results,omitempty"`
}

// ScreenClosedRequest tells the backend the device dismissed the call screen.
type ScreenClosedRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

// DecodeEvent parses one raw batch entry. Non-object entries and invalid
// field types are rejected; the engine handles missing outcome/direction
// itself. A missing timestamp falls back to the receive time.
func DecodeEvent(raw json.RawMessage, receivedAt time.Time) (domain.RawEvent, error) {
	var in InboundEvent
	if err := json.Unmarshal(raw, &in); err != nil {
		return domain.RawEvent{}, fmt.Errorf("malformed call event: %w", err)
	}
	return in.ToRawEvent(receivedAt), nil
}

// ToRawEvent maps the wire shape onto the domain event.
func (in InboundEvent) ToRawEvent(receivedAt time.Time) domain.RawEvent {
	ts := receivedAt
	if in.Timestamp > 0 {
		ts = time.UnixMilli(in.Timestamp)
	}

	return domain.RawEvent{
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Outcome:     in.Outcome,
		Direction:   domain.Direction(strings.ToLower(strings.TrimSpace(in.Direction))),
		Timestamp:   ts,
		Duration:    in.DurationInSeconds,
	}
}
