package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadline_backend/internal/calls/domain"
	"leadline_backend/platform/clock"
	"leadline_backend/platform/logger"
)

type fakeRecorder struct {
	mu          sync.Mutex
	addCalls    []CallEventParams
	finalCalls  []FinalCallParams
	corrections []CallLogCorrectionParams
	failFinal   bool
}

func (f *fakeRecorder) FindOrCreateLead(_ context.Context, phoneNumber string) (*Lead, error) {
	return &Lead{ID: uuid.New(), Phone: phoneNumber}, nil
}

func (f *fakeRecorder) AddCallEvent(_ context.Context, p CallEventParams) (*Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls = append(f.addCalls, p)
	return &Lead{ID: uuid.New(), Phone: p.Phone}, nil
}

func (f *fakeRecorder) AddFinalCallEvent(_ context.Context, p FinalCallParams) (*Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFinal {
		return nil, errors.New("storage unavailable")
	}
	f.finalCalls = append(f.finalCalls, p)
	return &Lead{ID: uuid.New(), Phone: p.Phone}, nil
}

func (f *fakeRecorder) UpdateCallFromCallLog(_ context.Context, p CallLogCorrectionParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.corrections = append(f.corrections, p)
	return nil
}

type fakeScreens struct {
	opens []string
}

func (f *fakeScreens) RequestOpen(phoneNumber string, _ *Lead) bool {
	f.opens = append(f.opens, phoneNumber)
	return true
}

func testWindows() Windows {
	return Windows{
		Dedupe:       800 * time.Millisecond,
		AutoFinalize: 8 * time.Second,
		IdleExpiry:   time.Minute,
		RemovalGrace: 500 * time.Millisecond,
	}
}

func newTestReconciler(t *testing.T) (*Reconciler, *fakeRecorder, *fakeScreens, *clock.Fake) {
	t.Helper()
	rec := &fakeRecorder{}
	scr := &fakeScreens{}
	fake := clock.NewFake(time.Unix(0, 0))
	r := New(rec, scr, domain.NewClassifier(), fake, testWindows(), logger.New("development"))
	r.dispatch = func(f func()) { f() } // storage commits run inline in tests
	return r, rec, scr, fake
}

func event(phoneNumber, outcome string, dir domain.Direction, atMs int64, duration *int) domain.RawEvent {
	return domain.RawEvent{
		PhoneNumber: phoneNumber,
		Outcome:     outcome,
		Direction:   dir,
		Timestamp:   time.UnixMilli(atMs),
		Duration:    duration,
	}
}

func intPtr(n int) *int { return &n }

const t0 = int64(1_000_000)

func TestDropsEventMissingRequiredFields(t *testing.T) {
	r, rec, _, _ := newTestReconciler(t)

	got := r.Process(context.Background(), event("+1555", "", domain.DirectionInbound, t0, nil))
	if got.Status != StatusDropped {
		t.Errorf("missing outcome: status %v, want dropped", got.Status)
	}

	got = r.Process(context.Background(), event("+1555", "ringing", "", t0, nil))
	if got.Status != StatusDropped {
		t.Errorf("missing direction: status %v, want dropped", got.Status)
	}

	if r.ActiveSessions() != 0 || len(rec.addCalls) != 0 {
		t.Error("dropped events must not mutate state")
	}
}

// Scenario from the lifecycle: ringing, answered 200ms later, ended at +5s.
// Ringing and answered differ in type, so both persist; the terminal commit
// happens once with no duration (none was ever learned).
func TestRingingAnsweredEndedLifecycle(t *testing.T) {
	r, rec, _, _ := newTestReconciler(t)
	ctx := context.Background()

	r.Process(ctx, event("+1555", "ringing", domain.DirectionInbound, t0, nil))
	r.Process(ctx, event("+1555", "answered", domain.DirectionInbound, t0+200, nil))
	got := r.Process(ctx, event("+1555", "ended", domain.DirectionInbound, t0+5000, nil))

	if got.Status != StatusFinalized {
		t.Fatalf("terminal event status %v, want finalized", got.Status)
	}

	if len(rec.addCalls) != 2 {
		t.Fatalf("expected 2 intermediate writes, got %d: %v", len(rec.addCalls), rec.addCalls)
	}
	if rec.addCalls[0].Outcome != "ringing" || rec.addCalls[1].Outcome != "answered" {
		t.Errorf("unexpected intermediate outcomes: %v", rec.addCalls)
	}

	if len(rec.finalCalls) != 1 {
		t.Fatalf("expected exactly one finalize write, got %d", len(rec.finalCalls))
	}
	final := rec.finalCalls[0]
	if final.Outcome != "ended" || final.Phone != "+1555" {
		t.Errorf("finalize = %+v", final)
	}
	if final.Duration != nil {
		t.Errorf("no duration was ever learned, got %d", *final.Duration)
	}
}

func TestDedupeWindowSuppressesRepeatedSignal(t *testing.T) {
	r, rec, _, _ := newTestReconciler(t)
	ctx := context.Background()

	r.Process(ctx, event("+1555", "ringing", domain.DirectionInbound, t0, nil))
	got := r.Process(ctx, event("+1555", "ringing", domain.DirectionInbound, t0+300, nil))

	if got.Status != StatusDuplicate {
		t.Errorf("status %v, want duplicate", got.Status)
	}
	if len(rec.addCalls) != 1 {
		t.Errorf("expected a single intermediate write, got %d", len(rec.addCalls))
	}
}

// A duplicate terminal signal inside the dedupe window never produces a
// second finalize write, even when it carries a (zero) duration.
func TestDuplicateMissedDoesNotRecommit(t *testing.T) {
	r, rec, _, _ := newTestReconciler(t)
	ctx := context.Background()

	r.Process(ctx, event("+1555", "missed", domain.DirectionInbound, t0, nil))
	r.Process(ctx, event("+1555", "missed", domain.DirectionInbound, t0+300, intPtr(0)))

	if len(rec.finalCalls) != 1 {
		t.Fatalf("expected exactly one finalize write, got %d", len(rec.finalCalls))
	}
}

func TestRepeatedTerminalOutsideWindowStillCommitsOnce(t *testing.T) {
	r, rec, _, _ := newTestReconciler(t)
	ctx := context.Background()

	r.Process(ctx, event("+1555", "ended", domain.DirectionInbound, t0, nil))
	got := r.Process(ctx, event("+1555", "ended", domain.DirectionInbound, t0+1500, nil))

	if got.Status != StatusDuplicate {
		t.Errorf("status %v, want duplicate", got.Status)
	}
	if len(rec.finalCalls) != 1 {
		t.Fatalf("expected exactly one finalize write, got %d", len(rec.finalCalls))
	}
}

// The authoritative-duration shortcut finalizes an open session immediately,
// bypassing intermediate handling.
func TestAuthoritativeDurationFinalizesOpenSession(t *testing.T) {
	r, rec, _, _ := newTestReconciler(t)
	ctx := context.Background()

	r.Process(ctx, event("+1555", "ringing", domain.DirectionInbound, t0, nil))
	got := r.Process(ctx, event("+1555", "answered", domain.DirectionInbound, t0+2000, intPtr(30)))

	if got.Status != StatusFinalized {
		t.Fatalf("status %v, want finalized", got.Status)
	}
	if len(rec.finalCalls) != 1 {
		t.Fatalf("expected one finalize write, got %d", len(rec.finalCalls))
	}
	if rec.finalCalls[0].Duration == nil || *rec.finalCalls[0].Duration != 30 {
		t.Errorf("finalize should use the authoritative duration, got %+v", rec.finalCalls[0])
	}
}

// A late authoritative event for an already finalized session fires exactly
// one correction; the latch holds against a second identical event.
func TestLateAuthoritativeCorrectionFiresOnce(t *testing.T) {
	r, rec, _, _ := newTestReconciler(t)
	ctx := context.Background()

	r.Process(ctx, event("+1555", "ended", domain.DirectionInbound, t0, nil))

	got := r.Process(ctx, event("+1555", "ended", domain.DirectionInbound, t0+3000, intPtr(42)))
	if got.Status != StatusCorrected {
		t.Fatalf("status %v, want corrected", got.Status)
	}

	got = r.Process(ctx, event("+1555", "ended", domain.DirectionInbound, t0+3000, intPtr(42)))
	if got.Status != StatusDuplicate {
		t.Errorf("second late authoritative event: status %v, want duplicate", got.Status)
	}

	if len(rec.finalCalls) != 1 {
		t.Errorf("expected one finalize write, got %d", len(rec.finalCalls))
	}
	if len(rec.corrections) != 1 {
		t.Fatalf("expected exactly one correction, got %d", len(rec.corrections))
	}
	if rec.corrections[0].Duration != 42 || rec.corrections[0].FinalOutcome != "ended" {
		t.Errorf("correction = %+v", rec.corrections[0])
	}
}

func TestAutoFinalizeFiresExactlyOnce(t *testing.T) {
	r, rec, _, fake := newTestReconciler(t)
	ctx := context.Background()

	r.Process(ctx, event("+1555", "ringing", domain.DirectionInbound, t0, nil))

	fake.Advance(7 * time.Second)
	if len(rec.finalCalls) != 0 {
		t.Fatal("auto-finalize fired before its window elapsed")
	}

	fake.Advance(2 * time.Second)
	if len(rec.finalCalls) != 1 {
		t.Fatalf("expected one auto-finalize commit, got %d", len(rec.finalCalls))
	}
	if rec.finalCalls[0].Outcome != "ringing" {
		t.Errorf("auto-finalize outcome %q, want last known outcome ringing", rec.finalCalls[0].Outcome)
	}
	if r.ActiveSessions() != 0 {
		t.Error("auto-finalize must remove the session")
	}

	fake.Advance(time.Minute)
	if len(rec.finalCalls) != 1 {
		t.Errorf("auto-finalize fired again: %d commits", len(rec.finalCalls))
	}
}

func TestAutoFinalizeNeverFiresAfterTerminal(t *testing.T) {
	r, rec, _, fake := newTestReconciler(t)
	ctx := context.Background()

	r.Process(ctx, event("+1555", "ringing", domain.DirectionInbound, t0, nil))
	r.Process(ctx, event("+1555", "ended", domain.DirectionInbound, t0+3000, nil))

	fake.Advance(time.Minute)
	if len(rec.finalCalls) != 1 {
		t.Fatalf("expected exactly one finalize write, got %d", len(rec.finalCalls))
	}
}

func TestIntermediateEventsPushBackAutoFinalize(t *testing.T) {
	r, rec, _, fake := newTestReconciler(t)
	ctx := context.Background()

	r.Process(ctx, event("+1555", "ringing", domain.DirectionInbound, t0, nil))
	fake.Advance(5 * time.Second)
	r.Process(ctx, event("+1555", "answered", domain.DirectionInbound, t0+5000, nil))

	fake.Advance(5 * time.Second)
	if len(rec.finalCalls) != 0 {
		t.Fatal("auto-finalize fired despite being rearmed")
	}

	fake.Advance(4 * time.Second)
	if len(rec.finalCalls) != 1 {
		t.Fatalf("expected one auto-finalize commit, got %d", len(rec.finalCalls))
	}
}

// Events arriving before the number is known collect under the sentinel
// identity, then merge into the real number's session in order.
func TestUnknownIdentityMigratesToRealNumber(t *testing.T) {
	r, rec, _, fake := newTestReconciler(t)
	ctx := context.Background()

	r.Process(ctx, event("", "ringing", domain.DirectionInbound, t0, nil))
	r.Process(ctx, event("", "answered", domain.DirectionInbound, t0+1000, nil))

	if len(rec.addCalls) != 0 {
		t.Fatal("no intermediate writes until a number is learned")
	}
	if r.ActiveSessions() != 1 {
		t.Fatalf("expected one sentinel session, got %d", r.ActiveSessions())
	}

	got := r.Process(ctx, event("+1555", "ended", domain.DirectionInbound, t0+5000, nil))
	if got.Status != StatusFinalized {
		t.Fatalf("status %v, want finalized", got.Status)
	}
	if got.Identity != "+1555" {
		t.Errorf("identity %q, want +1555", got.Identity)
	}

	if r.ActiveSessions() != 1 {
		t.Errorf("sentinel session must be gone after migrate, have %d sessions", r.ActiveSessions())
	}

	if len(rec.finalCalls) != 1 || rec.finalCalls[0].Phone != "+1555" {
		t.Fatalf("finalize writes = %v", rec.finalCalls)
	}

	// Removal grace elapses, the merged session is disposed.
	fake.Advance(time.Second)
	if r.ActiveSessions() != 0 {
		t.Errorf("expected no sessions after removal grace, got %d", r.ActiveSessions())
	}
}

func TestFinalizedSessionRemovedAfterGraceDelay(t *testing.T) {
	r, _, _, fake := newTestReconciler(t)
	ctx := context.Background()

	r.Process(ctx, event("+1555", "ended", domain.DirectionInbound, t0, nil))
	if r.ActiveSessions() != 1 {
		t.Fatal("session should survive the grace window")
	}

	fake.Advance(600 * time.Millisecond)
	if r.ActiveSessions() != 0 {
		t.Error("session should be removed after the grace delay")
	}
}

func TestSilentSentinelSessionReapedWithoutCommit(t *testing.T) {
	r, rec, _, fake := newTestReconciler(t)
	ctx := context.Background()

	// A session that never learns a number resolves without any storage
	// write once its timers run out.
	r.Process(ctx, event("", "ringing", domain.DirectionInbound, t0, nil))

	fake.Advance(2 * time.Minute)
	if r.ActiveSessions() != 0 {
		t.Error("silent session was not reaped")
	}
	if len(rec.finalCalls) != 0 {
		t.Error("a sentinel session must not commit anything")
	}
}

func TestScreenOpensOnceWhileAnotherCallDrivesUI(t *testing.T) {
	r, _, scr, _ := newTestReconciler(t)
	ctx := context.Background()

	r.Process(ctx, event("+1555", "ringing", domain.DirectionInbound, t0, nil))
	if len(scr.opens) != 1 || scr.opens[0] != "+1555" {
		t.Fatalf("expected screen open for +1555, got %v", scr.opens)
	}

	// Concurrent second call: suppressed while +1555 drives the UI.
	r.Process(ctx, event("+1666", "ringing", domain.DirectionInbound, t0+100, nil))
	if len(scr.opens) != 1 {
		t.Fatalf("second concurrent call must not stack a screen, opens=%v", scr.opens)
	}

	// +1555 ends, releasing the marker; a new ring for +1666 claims it.
	r.Process(ctx, event("+1555", "ended", domain.DirectionInbound, t0+4000, nil))
	r.Process(ctx, event("+1666", "ringing", domain.DirectionInbound, t0+5000, nil))
	if len(scr.opens) != 2 || scr.opens[1] != "+1666" {
		t.Errorf("expected +1666 to claim the screen, opens=%v", scr.opens)
	}
}

// Storage failure on finalize is logged and skipped: the session still
// transitions and is removed, by design.
func TestStorageFailureStillFinalizesSession(t *testing.T) {
	r, rec, _, fake := newTestReconciler(t)
	rec.failFinal = true
	ctx := context.Background()

	got := r.Process(ctx, event("+1555", "ended", domain.DirectionInbound, t0, nil))
	if got.Status != StatusFinalized {
		t.Fatalf("status %v, want finalized", got.Status)
	}

	fake.Advance(time.Second)
	if r.ActiveSessions() != 0 {
		t.Error("session must be removed even when the commit failed")
	}
}
