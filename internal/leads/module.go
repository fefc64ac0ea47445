// Package leads provides the lead storage bounded context module.
package leads

import (
	"leadline_backend/internal/events"
	apphttp "leadline_backend/internal/http"
	"leadline_backend/internal/leads/handler"
	"leadline_backend/internal/leads/repository"
	"leadline_backend/internal/leads/service"
	"leadline_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)

	return &Module{
		handler: handler.New(svc),
		svc:     svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "leads" }

// Service exposes the lead service; it implements the reconciliation
// engine's LeadRecorder port.
func (m *Module) Service() *service.Service { return m.svc }

// Repository exposes the repository for the background worker.
func (m *Module) Repository() *repository.Repository { return m.repo }

// RegisterRoutes mounts the lead routes on the authenticated device group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Device.Group("/leads"))
}
