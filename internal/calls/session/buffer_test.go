package session

import (
	"testing"
	"time"

	"leadline_backend/internal/calls/domain"
	"leadline_backend/platform/clock"
)

func rawEvent(outcome string, atMs int64, duration *int) domain.RawEvent {
	return domain.RawEvent{
		Outcome:   outcome,
		Direction: domain.DirectionInbound,
		Timestamp: time.UnixMilli(atMs),
		Duration:  duration,
	}
}

func intPtr(n int) *int { return &n }

func TestBufferRejectsExactDuplicate(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	b := newBuffer("+31612345678", fake, time.Minute, nil)

	e := rawEvent(domain.OutcomeRinging, 1000, nil)
	if !b.AddEvent(e) {
		t.Fatal("first append should succeed")
	}
	if b.AddEvent(e) {
		t.Error("exact duplicate of the preceding event must be rejected")
	}
	if b.AddEvent(rawEvent(domain.OutcomeRinging, 1000, intPtr(3))) != true {
		t.Error("same type+timestamp with a different duration is not an exact duplicate")
	}
	if len(b.Events()) != 2 {
		t.Errorf("expected 2 events, got %d", len(b.Events()))
	}
}

func TestBufferUpdateLastEventWithDuration(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	b := newBuffer("+31612345678", fake, time.Minute, nil)

	b.AddEvent(rawEvent(domain.OutcomeEnded, 5000, nil))
	b.UpdateLastEventWithDuration(42, time.UnixMilli(5300))

	events := b.Events()
	if !events[0].HasDuration() || *events[0].Duration != 42 {
		t.Errorf("expected patched duration 42, got %+v", events[0])
	}
	if !b.LastEventTs().Equal(time.UnixMilli(5300)) {
		t.Errorf("expected last-event timestamp to follow the patch, got %v", b.LastEventTs())
	}
}

func TestBufferIdleExpiry(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))

	expired := 0
	b := newBuffer("+31612345678", fake, time.Minute, func() { expired++ })

	b.AddEvent(rawEvent(domain.OutcomeRinging, 1000, nil))

	fake.Advance(30 * time.Second)
	b.AddEvent(rawEvent(domain.OutcomeAnswered, 2000, nil)) // resets the idle window

	fake.Advance(45 * time.Second)
	if expired != 0 {
		t.Fatal("idle expiry fired despite recent activity")
	}

	fake.Advance(20 * time.Second)
	if expired != 1 {
		t.Fatalf("idle expiry should have fired once, got %d", expired)
	}
}

func TestBufferAutoFinalizeRearm(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	b := newBuffer("+31612345678", fake, time.Minute, nil)

	fired := 0
	b.ScheduleAutoFinalize(8*time.Second, func() { fired++ })
	fake.Advance(5 * time.Second)
	b.ScheduleAutoFinalize(8*time.Second, func() { fired++ }) // rearm replaces the pending timer

	fake.Advance(5 * time.Second)
	if fired != 0 {
		t.Fatal("rearmed timer fired too early")
	}

	fake.Advance(4 * time.Second)
	if fired != 1 {
		t.Fatalf("auto-finalize should fire exactly once, got %d", fired)
	}
}

func TestBufferMarkFinalizedCancelsAutoFinalize(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	b := newBuffer("+31612345678", fake, time.Minute, nil)

	fired := 0
	b.ScheduleAutoFinalize(8*time.Second, func() { fired++ })
	b.MarkFinalized()

	fake.Advance(time.Minute)
	if fired != 0 {
		t.Error("auto-finalize must never fire after an explicit finalize")
	}
	if !b.Finalized() {
		t.Error("buffer should report finalized")
	}
}

func TestBufferDisposeIdempotent(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))

	expired := 0
	b := newBuffer("+31612345678", fake, time.Minute, func() { expired++ })
	b.ScheduleAutoFinalize(8*time.Second, func() { expired++ })

	b.Dispose()
	b.Dispose()

	fake.Advance(5 * time.Minute)
	if expired != 0 {
		t.Error("disposed buffer fired a timer")
	}
}
