package transport

import (
	"encoding/json"
	"testing"
	"time"

	"leadline_backend/internal/calls/domain"
)

func TestDecodeEvent(t *testing.T) {
	receivedAt := time.UnixMilli(1_700_000_000_000)

	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want    domain.RawEvent
	}{
		{
			name: "full event",
			raw:  `{"phoneNumber":"+31612345678","outcome":"Ringing","direction":"INBOUND","timestamp":1700000001234}`,
			want: domain.RawEvent{
				PhoneNumber: "+31612345678",
				Outcome:     "Ringing",
				Direction:   domain.DirectionInbound,
				Timestamp:   time.UnixMilli(1_700_000_001_234),
			},
		},
		{
			name: "missing timestamp falls back to receive time",
			raw:  `{"phoneNumber":"0612345678","outcome":"ended","direction":"outbound","durationInSeconds":42}`,
			want: domain.RawEvent{
				PhoneNumber: "0612345678",
				Outcome:     "ended",
				Direction:   domain.DirectionOutbound,
				Timestamp:   receivedAt,
				Duration:    intPtr(42),
			},
		},
		{
			name: "whitespace trimmed",
			raw:  `{"phoneNumber":" 0612345678 ","outcome":"missed","direction":" Inbound ","timestamp":1700000001000}`,
			want: domain.RawEvent{
				PhoneNumber: "0612345678",
				Outcome:     "missed",
				Direction:   domain.DirectionInbound,
				Timestamp:   time.UnixMilli(1_700_000_001_000),
			},
		},
		{
			name:    "non-object entry",
			raw:     `"ringing"`,
			wantErr: true,
		},
		{
			name:    "wrong field type",
			raw:     `{"outcome":"ended","direction":"inbound","durationInSeconds":"42"}`,
			wantErr: true,
		},
		{
			name:    "truncated json",
			raw:     `{"outcome":"ended"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent(json.RawMessage(tt.raw), receivedAt)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.PhoneNumber != tt.want.PhoneNumber {
				t.Errorf("phone = %q, want %q", got.PhoneNumber, tt.want.PhoneNumber)
			}
			if got.Outcome != tt.want.Outcome {
				t.Errorf("outcome = %q, want %q", got.Outcome, tt.want.Outcome)
			}
			if got.Direction != tt.want.Direction {
				t.Errorf("direction = %q, want %q", got.Direction, tt.want.Direction)
			}
			if !got.Timestamp.Equal(tt.want.Timestamp) {
				t.Errorf("timestamp = %v, want %v", got.Timestamp, tt.want.Timestamp)
			}
			if (got.Duration == nil) != (tt.want.Duration == nil) {
				t.Fatalf("duration presence = %v, want %v", got.Duration != nil, tt.want.Duration != nil)
			}
			if got.Duration != nil && *got.Duration != *tt.want.Duration {
				t.Errorf("duration = %d, want %d", *got.Duration, *tt.want.Duration)
			}
		})
	}
}

func intPtr(v int) *int { return &v }
