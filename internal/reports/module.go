// Package reports provides the pipeline reporting module: receivables aging
// and the combined dashboard.
package reports

import (
	apphttp "roofing_backend/internal/http"
	"roofing_backend/internal/reports/handler"
	"roofing_backend/internal/reports/repository"
	"roofing_backend/internal/reports/service"
	"roofing_backend/platform/logger"
	"roofing_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the reports module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the reports service to the lead and job services.
func NewModule(pool *pgxpool.Pool, leads service.LeadFunnel, jobs service.JobBoard, val *validator.Validator, snapshots service.SnapshotCache, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), leads, jobs, snapshots, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reports"
}

// RegisterRoutes mounts report routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/reports"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
