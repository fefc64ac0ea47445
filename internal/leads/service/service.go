// Package service implements the lead-storage side of call reconciliation:
// it persists consolidated call records and raises the follow-up signals
// (domain events, ops alerts) storage writes produce.
package service

import (
	"context"
	"errors"
	"time"

	"leadline_backend/internal/calls/engine"
	"leadline_backend/internal/events"
	"leadline_backend/internal/leads/repository"
	"leadline_backend/platform/apperr"
	"leadline_backend/platform/logger"
	"leadline_backend/platform/phone"

	"github.com/google/uuid"
)

// callMatchWindow bounds how far apart a terminal write and its intermediate
// record may sit and still be treated as the same physical call.
const callMatchWindow = time.Hour

type Service struct {
	repo     *repository.Repository
	eventBus events.Bus
	log      *logger.Logger
}

func New(repo *repository.Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// FindOrCreateLead resolves a phone number to its lead, creating the lead on
// first contact. A number that fails normalization is stored raw and flagged
// for manual review.
func (s *Service) FindOrCreateLead(ctx context.Context, phoneNumber string) (*engine.Lead, error) {
	normalized := phone.NormalizeE164(phoneNumber)
	flagged := false
	if normalized == "" {
		normalized = phoneNumber
		flagged = true
	}

	lead, err := s.repo.FindOrCreateByPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if flagged && !lead.NeedsManualReview {
		if err := s.repo.MarkNeedsManualReview(ctx, lead.ID); err != nil {
			s.log.DatabaseError("mark manual review", err)
		}
		lead.NeedsManualReview = true
	}

	return toEngineLead(lead), nil
}

// AddCallEvent appends one intermediate call event.
func (s *Service) AddCallEvent(ctx context.Context, p engine.CallEventParams) (*engine.Lead, error) {
	lead, err := s.FindOrCreateLead(ctx, p.Phone)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.AddCallEvent(ctx, repository.CallEventParams{
		LeadID:          lead.ID,
		Direction:       string(p.Direction),
		Outcome:         p.Outcome,
		OccurredAt:      p.Timestamp,
		DurationSeconds: p.Duration,
	})
	if err != nil {
		return nil, err
	}

	return lead, nil
}

// AddFinalCallEvent records the consolidated terminal event for one physical
// call and publishes LeadCallFinalized. A lead flagged for manual review
// additionally triggers an ops alert.
func (s *Service) AddFinalCallEvent(ctx context.Context, p engine.FinalCallParams) (*engine.Lead, error) {
	lead, err := s.FindOrCreateLead(ctx, p.Phone)
	if err != nil {
		return nil, err
	}

	event, err := s.repo.AddFinalCallEvent(ctx, repository.CallEventParams{
		LeadID:          lead.ID,
		Direction:       string(p.Direction),
		Outcome:         p.Outcome,
		OccurredAt:      p.Timestamp,
		DurationSeconds: p.Duration,
	}, callMatchWindow)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, events.LeadCallFinalized{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          lead.ID,
		Phone:           lead.Phone,
		Direction:       event.Direction,
		Outcome:         event.Outcome,
		DurationSeconds: event.DurationSeconds,
	})

	if lead.NeedsManualReview {
		s.notifyManualReview(ctx, lead.ID, lead.Phone, "call finalized for lead flagged for manual review")
	}

	return lead, nil
}

// UpdateCallFromCallLog applies an authoritative duration correction to an
// already stored call. Patch-only; a missing match is reported, not created.
func (s *Service) UpdateCallFromCallLog(ctx context.Context, p engine.CallLogCorrectionParams) error {
	normalized := phone.NormalizeE164(p.Phone)
	if normalized == "" {
		normalized = p.Phone
	}

	event, err := s.repo.UpdateCallFromCallLog(ctx, repository.CallLogPatchParams{
		Phone:           normalized,
		OccurredAt:      p.Timestamp,
		DurationSeconds: p.Duration,
		Outcome:         p.FinalOutcome,
		Window:          callMatchWindow,
	})
	if err != nil {
		return err
	}

	s.eventBus.Publish(ctx, events.LeadCallCorrected{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          event.LeadID,
		Phone:           normalized,
		DurationSeconds: p.Duration,
	})

	return nil
}

// GetByPhone returns the lead and its recent call history.
func (s *Service) GetByPhone(ctx context.Context, phoneNumber string, historyLimit int) (repository.Lead, []repository.CallEvent, error) {
	normalized := phone.NormalizeE164(phoneNumber)
	if normalized == "" {
		normalized = phoneNumber
	}

	lead, err := s.repo.FindByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Lead{}, nil, apperr.NotFound("lead not found")
		}
		return repository.Lead{}, nil, apperr.Wrap(apperr.KindInternal, "find lead", err)
	}

	history, err := s.repo.ListCallHistory(ctx, lead.ID, historyLimit)
	if err != nil {
		return repository.Lead{}, nil, apperr.Wrap(apperr.KindInternal, "list call history", err)
	}

	return lead, history, nil
}

// notifyManualReview publishes LeadNeedsManualReview; the ops mailer is
// subscribed to it in the composition root.
func (s *Service) notifyManualReview(ctx context.Context, leadID uuid.UUID, phoneNumber, reason string) {
	s.eventBus.Publish(ctx, events.LeadNeedsManualReview{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		Phone:     phoneNumber,
		Reason:    reason,
	})
}

func toEngineLead(lead repository.Lead) *engine.Lead {
	return &engine.Lead{
		ID:                lead.ID,
		Phone:             lead.Phone,
		Name:              lead.DisplayName,
		NeedsManualReview: lead.NeedsManualReview,
	}
}
