// Package screenpop drives the "open the call screen for this lead" side
// effect on the mobile device: a single-flight gate in front of an SSE push
// surface.
package screenpop

import (
	"sync"
	"time"

	"leadline_backend/internal/calls/engine"
	"leadline_backend/platform/clock"
	"leadline_backend/platform/config"
	"leadline_backend/platform/logger"
)

// Surface is the display side the gate pushes to. Ready reports whether a
// device is currently connected to receive the push.
type Surface interface {
	Ready() bool
	Open(phoneNumber string, lead *engine.Lead)
}

// Gate is a single-flight guard in front of the call screen: at most one
// screen is driven at a time. When the surface is not ready yet the push is
// deferred and retried instead of failed; when the screen closes, the latch
// releases only after a settle delay to debounce a near-simultaneous second
// signal for the same call.
type Gate struct {
	mu      sync.Mutex
	surface Surface
	sched   clock.Scheduler
	log     *logger.Logger

	retryDelay  time.Duration
	settleDelay time.Duration

	open        bool
	retryTimer  clock.Timer
	settleTimer clock.Timer
}

// NewGate creates a Gate over the given surface.
func NewGate(surface Surface, sched clock.Scheduler, cfg config.ScreenConfig, log *logger.Logger) *Gate {
	return &Gate{
		surface:     surface,
		sched:       sched,
		log:         log,
		retryDelay:  cfg.GetScreenRetryDelay(),
		settleDelay: cfg.GetScreenCloseSettleDelay(),
	}
}

// RequestOpen claims the gate and pushes the open event. Returns false when
// another call already drives the screen. Implements engine.ScreenOpener.
func (g *Gate) RequestOpen(phoneNumber string, lead *engine.Lead) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.open {
		g.log.Debug("call screen already open, refusing", "phone", phoneNumber)
		return false
	}
	g.open = true

	if g.settleTimer != nil {
		g.settleTimer.Stop()
		g.settleTimer = nil
	}

	g.deliverLocked(phoneNumber, lead)
	return true
}

// deliverLocked pushes now if the surface is ready, otherwise defers and
// retries while the gate stays claimed.
func (g *Gate) deliverLocked(phoneNumber string, lead *engine.Lead) {
	if g.surface.Ready() {
		g.surface.Open(phoneNumber, lead)
		return
	}

	g.log.Debug("display surface not ready, deferring call screen", "phone", phoneNumber)
	g.retryTimer = g.sched.AfterFunc(g.retryDelay, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if !g.open {
			return
		}
		g.deliverLocked(phoneNumber, lead)
	})
}

// NotifyClosed releases the latch after the settle delay. Safe to call when
// no screen is open.
func (g *Gate) NotifyClosed() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.open {
		return
	}

	if g.retryTimer != nil {
		g.retryTimer.Stop()
		g.retryTimer = nil
	}
	if g.settleTimer != nil {
		g.settleTimer.Stop()
	}

	g.settleTimer = g.sched.AfterFunc(g.settleDelay, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.open = false
		g.settleTimer = nil
	})
}

// IsOpen reports whether a call currently drives the screen.
func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}
