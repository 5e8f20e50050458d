// Package appointments provides the appointments domain module.
package appointments

import (
	"fieldservice_backend/internal/appointments/handler"
	"fieldservice_backend/internal/appointments/repository"
	"fieldservice_backend/internal/appointments/service"
	"fieldservice_backend/internal/assignment"
	apphttp "fieldservice_backend/internal/http"
	"fieldservice_backend/internal/scheduler"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/httpkit"
	"fieldservice_backend/platform/logger"
	"fieldservice_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the appointments domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new appointments module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, assignments scheduler.AssignmentScheduler, cfg config.AssignmentConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	filter := assignment.NewFilter(repo, cfg.GetServiceLocation(), cfg.GetAssignmentFilterConcurrency())
	svc := service.New(repo, filter, assignments, service.Settings{
		InitialDelay:    cfg.GetAssignmentInitialDelay(),
		RecheckSchedule: cfg.GetAcceptRecheckSchedule(),
	}, log)

	return NewModuleWithService(svc, val)
}

// NewModuleWithService wires the HTTP layer around an existing service.
func NewModuleWithService(svc *service.Service, val *validator.Validator) *Module {
	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "appointments"
}

// RegisterRoutes registers customer, technician and operator routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterCustomerRoutes(ctx.Protected.Group("/appointments"))

	jobs := ctx.Protected.Group("/technician/jobs")
	jobs.Use(httpkit.RequireRole(httpkit.RoleTechnician))
	m.handler.RegisterTechnicianRoutes(jobs)

	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/appointments"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
