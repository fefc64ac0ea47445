package devicelog

import (
	apphttp "leadline_backend/internal/http"
	"leadline_backend/platform/validator"
)

// Module is the devicelog bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates the devicelog module around an enqueuer (nil-safe: a nil
// *Client silently drops jobs when redis is not configured).
func NewModule(enqueuer ResyncEnqueuer, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(enqueuer, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "devicelog" }

// RegisterRoutes mounts the resync route on the authenticated device group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Device)
}
