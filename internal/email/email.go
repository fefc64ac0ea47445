// Package email delivers operational alert mail. The reconciliation flow
// never depends on delivery succeeding; failures are logged, not propagated.
package email

import (
	"context"

	"leadline_backend/platform/config"
)

// Sender delivers operational emails.
type Sender interface {
	// SendManualReviewAlert notifies the ops recipient that a call record
	// needs a human look.
	SendManualReviewAlert(ctx context.Context, phoneNumber, reason string) error
	// SendCustomEmail sends an arbitrary HTML email.
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender drops all mail. Used when email is disabled.
type NoopSender struct{}

func (NoopSender) SendManualReviewAlert(ctx context.Context, phoneNumber, reason string) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}

// NewSender builds the configured sender.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
		cfg.GetAlertRecipient(),
	), nil
}
