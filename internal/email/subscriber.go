package email

import (
	"context"

	"leadline_backend/internal/events"
	"leadline_backend/platform/logger"
)

// RegisterSubscribers connects the ops mailer to the domain events that
// should produce email. Handler errors are logged by the bus.
func RegisterSubscribers(bus events.Bus, sender Sender, log *logger.Logger) {
	bus.Subscribe(events.LeadNeedsManualReview{}.EventName(), events.HandlerFunc(
		func(ctx context.Context, e events.Event) error {
			ev, ok := e.(events.LeadNeedsManualReview)
			if !ok {
				return nil
			}
			log.Info("sending manual review alert", "phone", ev.Phone)
			return sender.SendManualReviewAlert(ctx, ev.Phone, ev.Reason)
		}))
}
