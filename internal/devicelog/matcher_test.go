package devicelog

import (
	"testing"
	"time"

	"leadline_backend/internal/calls/domain"
)

func TestToCorrection(t *testing.T) {
	tests := []struct {
		name        string
		entry       CallLogEntry
		wantOK      bool
		wantOutcome string
		wantDir     domain.Direction
	}{
		{
			name:        "answered call keeps explicit outcome",
			entry:       CallLogEntry{Phone: "+31612345678", Direction: "inbound", TimestampMs: 1700000000000, DurationSeconds: 120, Outcome: "ended"},
			wantOK:      true,
			wantOutcome: "ended",
			wantDir:     domain.DirectionInbound,
		},
		{
			name:        "zero duration inbound derives missed",
			entry:       CallLogEntry{Phone: "+31612345678", Direction: "incoming", TimestampMs: 1700000000000, DurationSeconds: 0},
			wantOK:      true,
			wantOutcome: "missed",
			wantDir:     domain.DirectionInbound,
		},
		{
			name:        "zero duration outbound derives ended",
			entry:       CallLogEntry{Phone: "+31612345678", Direction: "outgoing", TimestampMs: 1700000000000, DurationSeconds: 0},
			wantOK:      true,
			wantOutcome: "ended",
			wantDir:     domain.DirectionOutbound,
		},
		{
			name:        "outcome is lowercased",
			entry:       CallLogEntry{Phone: "+31612345678", Direction: "Outbound", TimestampMs: 1700000000000, DurationSeconds: 30, Outcome: " Ended "},
			wantOK:      true,
			wantOutcome: "ended",
			wantDir:     domain.DirectionOutbound,
		},
		{
			name:   "missing phone rejected",
			entry:  CallLogEntry{Direction: "inbound", TimestampMs: 1700000000000, DurationSeconds: 10},
			wantOK: false,
		},
		{
			name:   "zero timestamp rejected",
			entry:  CallLogEntry{Phone: "+31612345678", Direction: "inbound", DurationSeconds: 10},
			wantOK: false,
		},
		{
			name:   "negative duration rejected",
			entry:  CallLogEntry{Phone: "+31612345678", Direction: "inbound", TimestampMs: 1700000000000, DurationSeconds: -1},
			wantOK: false,
		},
		{
			name:   "unknown direction rejected",
			entry:  CallLogEntry{Phone: "+31612345678", Direction: "sideways", TimestampMs: 1700000000000, DurationSeconds: 10},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToCorrection(tt.entry)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.FinalOutcome != tt.wantOutcome {
				t.Errorf("outcome = %q, want %q", got.FinalOutcome, tt.wantOutcome)
			}
			if got.Direction != tt.wantDir {
				t.Errorf("direction = %q, want %q", got.Direction, tt.wantDir)
			}
			if !got.Timestamp.Equal(time.UnixMilli(tt.entry.TimestampMs)) {
				t.Errorf("timestamp = %v, want %v", got.Timestamp, time.UnixMilli(tt.entry.TimestampMs))
			}
			if got.Duration != tt.entry.DurationSeconds {
				t.Errorf("duration = %d, want %d", got.Duration, tt.entry.DurationSeconds)
			}
		})
	}
}
