// Package auth provides device token issuance for the mobile app.
package auth

import (
	"leadline_backend/internal/auth/handler"
	"leadline_backend/internal/auth/service"
	apphttp "leadline_backend/internal/http"
	"leadline_backend/platform/config"
	"leadline_backend/platform/validator"
)

// Module is the device auth module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates the auth module.
func NewModule(cfg config.DeviceAuthConfig, val *validator.Validator) *Module {
	svc := service.New(cfg)
	return &Module{
		handler: handler.New(svc, val),
		svc:     svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "auth" }

// Service exposes the token service for other modules.
func (m *Module) Service() *service.Service { return m.svc }

// RegisterRoutes mounts the auth routes. Token issuance sits on the public
// group behind the stricter auth rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/auth")
	group.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterRoutes(group)
}
