package session

import (
	"sync"
	"time"

	"leadline_backend/platform/clock"
)

// Registry maps call identities to their session buffers. At most one buffer
// exists per identity at any instant; find-or-create is atomic.
type Registry struct {
	mu         sync.Mutex
	buffers    map[string]*Buffer
	sched      clock.Scheduler
	idleWindow time.Duration

	// onIdleExpire is invoked when a buffer has seen no events for the idle
	// window. It receives the buffer's identity; the engine removes it there.
	onIdleExpire func(identity string)
}

// NewRegistry creates an empty Registry. onIdleExpire may be nil, disabling
// idle expiry.
func NewRegistry(sched clock.Scheduler, idleWindow time.Duration, onIdleExpire func(identity string)) *Registry {
	return &Registry{
		buffers:      make(map[string]*Buffer),
		sched:        sched,
		idleWindow:   idleWindow,
		onIdleExpire: onIdleExpire,
	}
}

// FindOrCreate returns the live buffer for identity, creating one if absent.
func (r *Registry) FindOrCreate(identity string) *Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findOrCreateLocked(identity)
}

func (r *Registry) findOrCreateLocked(identity string) *Buffer {
	if buf, ok := r.buffers[identity]; ok {
		return buf
	}

	var onIdle func()
	if r.onIdleExpire != nil {
		onIdle = func() { r.onIdleExpire(identity) }
	}
	buf := newBuffer(identity, r.sched, r.idleWindow, onIdle)
	r.buffers[identity] = buf
	return buf
}

// Find returns the buffer for identity, or nil.
func (r *Registry) Find(identity string) *Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffers[identity]
}

// Migrate absorbs the session under oldIdentity into the one under
// newIdentity, replaying each event through the normal append rule so the
// merged log keeps its relative order. No-op when oldIdentity has no session.
// After Migrate no buffer remains under oldIdentity.
func (r *Registry) Migrate(oldIdentity, newIdentity string) *Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.buffers[oldIdentity]
	if !ok || oldIdentity == newIdentity {
		return r.buffers[newIdentity]
	}

	delete(r.buffers, oldIdentity)
	old.Dispose()

	target := r.findOrCreateLocked(newIdentity)
	for _, ev := range old.events {
		target.AddEvent(ev)
	}
	return target
}

// Remove deletes and disposes the buffer for identity. Idempotent.
func (r *Registry) Remove(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if buf, ok := r.buffers[identity]; ok {
		delete(r.buffers, identity)
		buf.Dispose()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffers)
}
