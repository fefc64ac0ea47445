package screenpop

import (
	"context"

	"leadline_backend/internal/events"
	apphttp "leadline_backend/internal/http"
	"leadline_backend/platform/clock"
	"leadline_backend/platform/config"
	"leadline_backend/platform/httpkit"
	"leadline_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Module is the screen-pop bounded context module implementing http.Module.
// It owns the SSE stream the device listens on and the single-flight gate
// in front of it.
type Module struct {
	stream *Stream
	gate   *Gate
}

// NewModule creates the screen-pop module and subscribes the stream to the
// call-record events connected devices should refresh on.
func NewModule(cfg config.ScreenConfig, eventBus events.Bus, log *logger.Logger) *Module {
	stream := NewStream(log)
	gate := NewGate(stream, clock.New(), cfg, log)
	registerSubscribers(eventBus, stream)
	return &Module{stream: stream, gate: gate}
}

func registerSubscribers(bus events.Bus, stream *Stream) {
	refresh := events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		switch ev := e.(type) {
		case events.LeadCallFinalized:
			stream.CallUpdated(ev.LeadID, ev.Phone)
		case events.LeadCallCorrected:
			stream.CallUpdated(ev.LeadID, ev.Phone)
		}
		return nil
	})
	bus.Subscribe(events.LeadCallFinalized{}.EventName(), refresh)
	bus.Subscribe(events.LeadCallCorrected{}.EventName(), refresh)
}

// Name returns the module identifier.
func (m *Module) Name() string { return "screenpop" }

// Gate exposes the single-flight gate; it implements the reconciliation
// engine's ScreenOpener port.
func (m *Module) Gate() *Gate { return m.gate }

// RegisterRoutes mounts the SSE endpoint on the authenticated device group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Device.GET("/screen-events", m.stream.Handler(func(c *gin.Context) (string, bool) {
		deviceID := httpkit.GetDeviceID(c)
		return deviceID, deviceID != ""
	}))
}
