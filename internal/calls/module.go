// Package calls provides the call-event reconciliation bounded context module.
// This file defines the module that encapsulates all calls setup and route registration.
package calls

import (
	"leadline_backend/internal/calls/domain"
	"leadline_backend/internal/calls/engine"
	"leadline_backend/internal/calls/handler"
	"leadline_backend/internal/calls/service"
	apphttp "leadline_backend/internal/http"
	"leadline_backend/platform/clock"
	"leadline_backend/platform/config"
	"leadline_backend/platform/logger"
	"leadline_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

// ModuleConfig combines the config slices the calls module reads.
type ModuleConfig interface {
	config.ReconcilerConfig
	config.ClassifierConfig
	config.WebhookConfig
}

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	reconciler *engine.Reconciler
	svc        *service.Service
}

// NewModule creates and initializes the calls module. The lead recorder and
// the screen gate are injected by the composition root so this module stays
// decoupled from storage and the push surface.
func NewModule(recorder engine.LeadRecorder, screens engine.ScreenOpener, closer service.ScreenCloser, rdb *redis.Client, val *validator.Validator, cfg ModuleConfig, log *logger.Logger) (*Module, error) {
	classifier := domain.NewClassifier()
	if path := cfg.GetOutcomeAliasFile(); path != "" {
		loaded, err := domain.NewClassifierFromFile(path)
		if err != nil {
			return nil, err
		}
		classifier = loaded
	}

	reconciler := engine.New(recorder, screens, classifier, clock.New(), engine.WindowsFrom(cfg), log)
	svc := service.New(reconciler, closer, rdb, cfg, log)

	return &Module{
		handler:    handler.New(svc, val),
		reconciler: reconciler,
		svc:        svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string { return "calls" }

// Reconciler exposes the engine, e.g. for shutdown draining.
func (m *Module) Reconciler() *engine.Reconciler { return m.reconciler }

// RegisterRoutes mounts the device upload routes on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Device)
}
