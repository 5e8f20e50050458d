// Package catalog provides the skills, work areas and working hours module.
package catalog

import (
	"fieldservice_backend/internal/catalog/handler"
	"fieldservice_backend/internal/catalog/repository"
	"fieldservice_backend/internal/catalog/service"
	apphttp "fieldservice_backend/internal/http"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/httpkit"
	"fieldservice_backend/platform/logger"
	"fieldservice_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, cfg config.AssignmentConfig, log *logger.Logger) *Module {
	return NewModuleWithRepository(repository.New(pool), val, cfg, log)
}

// NewModuleWithRepository wires the module around any catalog store.
func NewModuleWithRepository(repo repository.Repository, val *validator.Validator, cfg config.AssignmentConfig, log *logger.Logger) *Module {
	svc := service.New(repo, cfg.GetServiceLocation(), log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Read-only reference data for any signed-in user
	ctx.Protected.GET("/skills", m.handler.ListSkills)
	ctx.Protected.GET("/skills/:id", m.handler.GetSkillByID)
	ctx.Protected.GET("/work-areas", m.handler.ListWorkAreas)

	hours := ctx.Protected.Group("/technician/working-hours")
	hours.Use(httpkit.RequireRole(httpkit.RoleTechnician))
	hours.GET("", m.handler.ListWorkingHours)
	hours.POST("", m.handler.CreateWorkingHours)

	ctx.Admin.POST("/skills", m.handler.CreateSkill)
	ctx.Admin.PATCH("/skills/:id", m.handler.UpdateSkillStatus)
	ctx.Admin.POST("/work-areas", m.handler.CreateWorkArea)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
