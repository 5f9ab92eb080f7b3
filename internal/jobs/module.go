// Package jobs provides the job lifecycle bounded context module.
package jobs

import (
	"roofing_backend/internal/events"
	apphttp "roofing_backend/internal/http"
	"roofing_backend/internal/jobs/handler"
	"roofing_backend/internal/jobs/repository"
	"roofing_backend/internal/jobs/service"
	"roofing_backend/internal/jobs/transport"
	"roofing_backend/platform/logger"
	"roofing_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the jobs bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the jobs module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, snapshots service.SnapshotCache, log *logger.Logger) (*Module, error) {
	if err := transport.RegisterValidations(val); err != nil {
		return nil, err
	}

	svc := service.New(repository.New(pool), snapshots, eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "jobs"
}

// Service returns the job service for the reports module.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts jobs routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/jobs"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
