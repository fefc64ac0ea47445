package devicelog

import (
	"strings"
	"time"

	"leadline_backend/internal/calls/domain"
	"leadline_backend/internal/calls/engine"
)

// ToCorrection maps one call-log row onto a storage correction. Rows with a
// missing phone, a non-positive timestamp, or a negative duration are
// rejected. A row without an outcome derives one: a zero-duration inbound
// call was missed, anything else ended.
func ToCorrection(entry CallLogEntry) (engine.CallLogCorrectionParams, bool) {
	phone := strings.TrimSpace(entry.Phone)
	if phone == "" || entry.TimestampMs <= 0 || entry.DurationSeconds < 0 {
		return engine.CallLogCorrectionParams{}, false
	}

	direction := normalizeDirection(entry.Direction)
	if direction == "" {
		return engine.CallLogCorrectionParams{}, false
	}

	outcome := strings.ToLower(strings.TrimSpace(entry.Outcome))
	if outcome == "" {
		if entry.DurationSeconds == 0 && direction == domain.DirectionInbound {
			outcome = domain.OutcomeMissed
		} else {
			outcome = domain.OutcomeEnded
		}
	}

	return engine.CallLogCorrectionParams{
		Phone:        phone,
		Direction:    direction,
		Timestamp:    time.UnixMilli(entry.TimestampMs),
		Duration:     entry.DurationSeconds,
		FinalOutcome: outcome,
	}, true
}

func normalizeDirection(raw string) domain.Direction {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "inbound", "incoming":
		return domain.DirectionInbound
	case "outbound", "outgoing":
		return domain.DirectionOutbound
	default:
		return ""
	}
}
