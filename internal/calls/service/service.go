// Package service handles device event uploads: delivery-level dedupe and
// handing each event to the reconciliation engine.
package service

import (
	"context"
	"time"

	"leadline_backend/internal/calls/domain"
	"leadline_backend/internal/calls/engine"
	"leadline_backend/internal/calls/transport"
	"leadline_backend/platform/config"
	"leadline_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const deliveryKeyPrefix = "call-events:delivery:"

// EventProcessor is the slice of the reconciliation engine this service uses.
type EventProcessor interface {
	Process(ctx context.Context, raw domain.RawEvent) engine.Result
	NotifyScreenClosed(phoneNumber string)
}

// ScreenCloser releases the call-screen gate when the device reports a close.
type ScreenCloser interface {
	NotifyClosed()
}

type Service struct {
	processor EventProcessor
	screens   ScreenCloser
	rdb       *redis.Client
	dedupeTTL time.Duration
	log       *logger.Logger
}

func New(processor EventProcessor, screens ScreenCloser, rdb *redis.Client, cfg config.WebhookConfig, log *logger.Logger) *Service {
	return &Service{
		processor: processor,
		screens:   screens,
		rdb:       rdb,
		dedupeTTL: cfg.GetDeliveryDedupeTTL(),
		log:       log,
	}
}

// ProcessBatch reconciles one device upload. Devices deliver at-least-once,
// so the delivery ID is claimed in redis first; a replayed upload returns
// Duplicate without touching the engine. If redis is unavailable the batch
// is processed anyway: the engine's own dedupe windows absorb most replays,
// and losing events is worse than double-seeing them.
func (s *Service) ProcessBatch(ctx context.Context, req transport.EventBatchRequest) (transport.EventBatchResponse, error) {
	claimed, err := s.claimDelivery(ctx, req.DeliveryID)
	if err != nil {
		s.log.Warn("delivery dedupe unavailable, processing anyway", "deliveryId", req.DeliveryID, "error", err)
	} else if !claimed {
		return transport.EventBatchResponse{Duplicate: true}, nil
	}

	receivedAt := time.Now()
	results := make([]transport.EventResult, 0, len(req.Events))
	for _, raw := range req.Events {
		ev, err := transport.DecodeEvent(raw, receivedAt)
		if err != nil {
			s.log.EventDropped("malformed", string(raw))
			results = append(results, transport.EventResult{Status: string(engine.StatusDropped)})
			continue
		}

		res := s.processor.Process(ctx, ev)
		results = append(results, transport.EventResult{Status: string(res.Status), Identity: res.Identity})
	}

	return transport.EventBatchResponse{Results: results}, nil
}

// ScreenClosed propagates a device-side dismissal of the call screen.
func (s *Service) ScreenClosed(phoneNumber string) {
	s.processor.NotifyScreenClosed(phoneNumber)
	s.screens.NotifyClosed()
}

func (s *Service) claimDelivery(ctx context.Context, deliveryID string) (bool, error) {
	if s.rdb == nil {
		return true, nil
	}
	return s.rdb.SetNX(ctx, deliveryKeyPrefix+deliveryID, 1, s.dedupeTTL).Result()
}
