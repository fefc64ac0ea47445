package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"leadline_backend/internal/calls/domain"
	"leadline_backend/internal/calls/session"
	"leadline_backend/platform/clock"
	"leadline_backend/platform/config"
	"leadline_backend/platform/logger"
	"leadline_backend/platform/phone"
)

// errNilLead marks the storage contract's "nil lead on failure" path.
var errNilLead = errors.New("storage returned no lead")

// Windows holds the engine's tuning windows.
type Windows struct {
	Dedupe       time.Duration
	AutoFinalize time.Duration
	IdleExpiry   time.Duration
	RemovalGrace time.Duration
}

// WindowsFrom extracts the engine windows from application config.
func WindowsFrom(cfg config.ReconcilerConfig) Windows {
	return Windows{
		Dedupe:       cfg.GetDedupeWindow(),
		AutoFinalize: cfg.GetAutoFinalizeWindow(),
		IdleExpiry:   cfg.GetIdleExpiryWindow(),
		RemovalGrace: cfg.GetRemovalGraceDelay(),
	}
}

// Reconciler consumes the native call-event stream one event at a time and
// reconciles each physical call into a single persisted record.
//
// Processing is serialized by an internal lock (timer callbacks re-enter
// through the same lock), but storage commits are dispatched asynchronously
// so a slow write never blocks the next event. Each commit carries captured
// identity and timestamp values, never a live buffer reference: the session
// may have been finalized or migrated by the time the write completes.
type Reconciler struct {
	mu         sync.Mutex
	registry   *session.Registry
	recorder   LeadRecorder
	screens    ScreenOpener
	classifier *domain.Classifier
	sched      clock.Scheduler
	windows    Windows
	log        *logger.Logger

	// dispatch runs storage commits; a goroutine in production, inline in
	// tests.
	dispatch func(func())

	// activeScreenPhone is the identity currently driving the call screen;
	// empty when no call claims it.
	activeScreenPhone string
}

// New creates a Reconciler owning its own session registry.
func New(recorder LeadRecorder, screens ScreenOpener, classifier *domain.Classifier, sched clock.Scheduler, windows Windows, log *logger.Logger) *Reconciler {
	r := &Reconciler{
		recorder:   recorder,
		screens:    screens,
		classifier: classifier,
		sched:      sched,
		windows:    windows,
		log:        log,
		dispatch:   func(f func()) { go f() },
	}
	r.registry = session.NewRegistry(sched, windows.IdleExpiry, r.expireIdle)
	return r
}

// ActiveSessions returns the number of live call sessions.
func (r *Reconciler) ActiveSessions() int {
	return r.registry.Len()
}

// Process reconciles one inbound event to completion. Events must not be
// processed concurrently from the caller's side; the internal lock is a
// safety net for timer callbacks, not a throughput feature.
func (r *Reconciler) Process(ctx context.Context, raw domain.RawEvent) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(raw.Outcome) == "" || raw.Direction == "" {
		r.log.EventDropped("missing outcome or direction", raw)
		return Result{Status: StatusDropped}
	}

	ev := raw
	ev.Outcome = r.classifier.Canonical(raw.Outcome)
	identity := phone.Identity(ev.PhoneNumber)

	// A session opened before the number was known merges into the real
	// identity as soon as an event carries one. Merging first keeps the
	// absorbed events' relative order and lets the dedupe check below see
	// the full session.
	if !phone.IsUnknown(identity) {
		r.registry.Migrate(phone.UnknownIdentity, identity)
	}

	buf := r.registry.FindOrCreate(identity)

	// Dedupe window: a repeat of the last signal close enough in time is
	// noise, but may carry the authoritative duration.
	if ev.Outcome == buf.LastEventType() && absDiff(ev.Timestamp, buf.LastEventTs()) < r.windows.Dedupe {
		if ev.HasDuration() {
			buf.UpdateLastEventWithDuration(ev.DurationSeconds(), ev.Timestamp)
			if buf.Finalized() && !buf.CorrectionApplied() {
				buf.MarkCorrectionApplied()
				r.dispatchCorrection(ctx, identity, ev)
				return Result{Status: StatusCorrected, Identity: identity}
			}
		}
		return Result{Status: StatusDuplicate, Identity: identity}
	}

	buf.AddEvent(ev)

	// Authoritative duration shortcut: call-log ground truth finalizes or
	// corrects regardless of how the outcome classifies.
	if ev.HasDuration() {
		if buf.Finalized() {
			if buf.CorrectionApplied() {
				return Result{Status: StatusDuplicate, Identity: identity}
			}
			buf.MarkCorrectionApplied()
			r.dispatchCorrection(ctx, identity, ev)
			return Result{Status: StatusCorrected, Identity: identity}
		}
		r.finalize(ctx, buf, identity, ev, ev.Duration)
		return Result{Status: StatusFinalized, Identity: identity}
	}

	if r.classifier.Classify(ev.Outcome) == domain.ClassTerminal {
		if buf.Finalized() {
			return Result{Status: StatusDuplicate, Identity: identity}
		}
		r.finalize(ctx, buf, identity, ev, nil)
		return Result{Status: StatusFinalized, Identity: identity}
	}

	return r.handleIntermediate(ctx, buf, identity, ev)
}

// NotifyScreenClosed releases the screen marker for a phone, so a later call
// can claim it again.
func (r *Reconciler) NotifyScreenClosed(phoneNumber string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeScreenPhone == phone.Identity(phoneNumber) {
		r.activeScreenPhone = ""
	}
}

// handleIntermediate persists an intermediate signal (unless redundant),
// possibly claims the call screen, and pushes back the auto-finalize
// deadline.
func (r *Reconciler) handleIntermediate(ctx context.Context, buf *session.Buffer, identity string, ev domain.RawEvent) Result {
	if buf.Finalized() {
		// No re-entry to an open state; a trailing signal after finalize is
		// noise the grace delay exists to absorb.
		return Result{Status: StatusDuplicate, Identity: identity}
	}

	savedOutcome, savedTs := buf.LastSaved()
	redundant := ev.Outcome == savedOutcome && absDiff(ev.Timestamp, savedTs) < r.windows.Dedupe

	if !redundant && !phone.IsUnknown(identity) {
		buf.MarkSaved(ev.Outcome, ev.Timestamp)

		openScreen := false
		if r.classifier.IsRingingOrAnswered(ev.Outcome) && r.activeScreenPhone == "" {
			r.activeScreenPhone = identity
			openScreen = true
		}

		p := CallEventParams{
			Phone:     identity,
			Direction: ev.Direction,
			Outcome:   ev.Outcome,
			Timestamp: ev.Timestamp,
			Duration:  ev.Duration,
		}
		wctx := context.WithoutCancel(ctx)
		r.dispatch(func() {
			lead, err := r.recorder.AddCallEvent(wctx, p)
			if err != nil {
				r.log.StorageError("addCallEvent", p.Phone, err)
				return
			}
			if openScreen {
				r.screens.RequestOpen(p.Phone, lead)
			}
		})
	}

	buf.ScheduleAutoFinalize(r.windows.AutoFinalize, func() {
		r.autoFinalize(identity)
	})

	return Result{Status: StatusIntermediate, Identity: identity}
}

// finalize issues the session's single terminal commit and schedules buffer
// removal after a short grace delay, so a trailing duplicate or duration
// patch can still find the session.
func (r *Reconciler) finalize(ctx context.Context, buf *session.Buffer, identity string, ev domain.RawEvent, explicit *int) {
	consolidated := domain.Consolidate(buf.Events())

	duration := explicit
	if duration == nil {
		if d, ok := domain.LatestDuration(consolidated); ok {
			duration = &d
		}
	}

	if r.activeScreenPhone == identity {
		r.activeScreenPhone = ""
	}

	buf.MarkFinalized()

	if phone.IsUnknown(identity) {
		r.log.EventDropped("finalize without a learned number", ev)
	} else {
		p := FinalCallParams{
			Phone:     identity,
			Direction: ev.Direction,
			Outcome:   ev.Outcome,
			Timestamp: ev.Timestamp,
			Duration:  duration,
		}
		wctx := context.WithoutCancel(ctx)
		r.dispatch(func() {
			lead, err := r.recorder.AddFinalCallEvent(wctx, p)
			if err != nil {
				r.log.StorageError("addFinalCallEvent", p.Phone, err)
				return
			}
			if lead == nil {
				r.log.StorageError("addFinalCallEvent", p.Phone, errNilLead)
				return
			}
			if lead.NeedsManualReview {
				r.log.WithSession(p.Phone).Warn("finalized call needs manual review", "leadId", lead.ID)
			}
		})
	}

	r.sched.AfterFunc(r.windows.RemovalGrace, func() {
		r.removeSession(identity)
	})
}

// autoFinalize fires when no terminal signal arrived inside the window. It
// resolves the session from whatever was collected and removes the buffer
// immediately.
func (r *Reconciler) autoFinalize(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf := r.registry.Find(identity)
	if buf == nil || buf.Finalized() {
		return
	}

	consolidated := domain.Consolidate(buf.Events())
	if len(consolidated) == 0 {
		r.registry.Remove(identity)
		return
	}

	last := consolidated[len(consolidated)-1]
	outcome := last.Outcome
	if outcome == "" {
		outcome = domain.OutcomeEnded
	}

	var duration *int
	if d, ok := domain.LatestDuration(consolidated); ok {
		duration = &d
	}

	if r.activeScreenPhone == identity {
		r.activeScreenPhone = ""
	}

	buf.MarkFinalized()

	if phone.IsUnknown(identity) {
		r.log.EventDropped("auto-finalize without a learned number", last)
	} else {
		p := FinalCallParams{
			Phone:     identity,
			Direction: last.Direction,
			Outcome:   outcome,
			Timestamp: last.Timestamp,
			Duration:  duration,
		}
		r.dispatch(func() {
			if _, err := r.recorder.AddFinalCallEvent(context.Background(), p); err != nil {
				r.log.StorageError("addFinalCallEvent", p.Phone, err)
			}
		})
	}

	r.registry.Remove(identity)
}

// dispatchCorrection issues the one-time post-finalize authoritative
// correction. The latch is set by the caller before dispatch, so a second
// late authoritative event can never re-fire it.
func (r *Reconciler) dispatchCorrection(ctx context.Context, identity string, ev domain.RawEvent) {
	if phone.IsUnknown(identity) {
		return
	}

	outcome := ev.Outcome
	if r.classifier.Classify(outcome) != domain.ClassTerminal {
		outcome = domain.OutcomeEnded
	}

	p := CallLogCorrectionParams{
		Phone:        identity,
		Direction:    ev.Direction,
		Timestamp:    ev.Timestamp,
		Duration:     ev.DurationSeconds(),
		FinalOutcome: outcome,
	}
	wctx := context.WithoutCancel(ctx)
	r.dispatch(func() {
		if err := r.recorder.UpdateCallFromCallLog(wctx, p); err != nil {
			r.log.StorageError("updateCallFromCallLog", p.Phone, err)
		}
	})
}

// expireIdle is the registry's idle-expiry hook: a safety net against leaked
// sessions when the native layer goes silent mid-call.
func (r *Reconciler) expireIdle(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.WithSession(identity).Info("expiring idle call session")
	r.registry.Remove(identity)
}

func (r *Reconciler) removeSession(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry.Remove(identity)
}

func absDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
