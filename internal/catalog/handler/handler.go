package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldservice_backend/internal/catalog/service"
	"fieldservice_backend/internal/catalog/transport"
	"fieldservice_backend/platform/httpkit"
	"fieldservice_backend/platform/validator"
)

// Handler handles HTTP requests for the skills and coverage catalog.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid skill id"
)

// New creates a new catalog handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListSkills retrieves skills.
// GET /api/v1/skills
func (h *Handler) ListSkills(c *gin.Context) {
	var req transport.ListSkillsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationError(c, err)
		return
	}

	result, err := h.svc.ListSkills(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetSkillByID retrieves a skill by ID.
// GET /api/v1/skills/:id
func (h *Handler) GetSkillByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.GetSkillByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateSkill creates a new skill.
// POST /api/v1/admin/skills
func (h *Handler) CreateSkill(c *gin.Context) {
	var req transport.CreateSkillRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.CreateSkill(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateSkillStatus activates or deactivates a skill.
// PATCH /api/v1/admin/skills/:id
func (h *Handler) UpdateSkillStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.UpdateSkillStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.SetSkillActive(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListWorkAreas retrieves work areas.
// GET /api/v1/work-areas
func (h *Handler) ListWorkAreas(c *gin.Context) {
	includeInactive := c.Query("includeInactive") == "true"

	result, err := h.svc.ListWorkAreas(c.Request.Context(), includeInactive)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateWorkArea creates a new work area.
// POST /api/v1/admin/work-areas
func (h *Handler) CreateWorkArea(c *gin.Context) {
	var req transport.CreateWorkAreaRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.CreateWorkArea(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListWorkingHours retrieves the caller's working hours.
// GET /api/v1/technician/working-hours
func (h *Handler) ListWorkingHours(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListWorkingHours(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateWorkingHours adds a working-hours record for the caller.
// POST /api/v1/technician/working-hours
func (h *Handler) CreateWorkingHours(c *gin.Context) {
	var req transport.CreateWorkingHoursRequest
	if !h.bindJSON(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.CreateWorkingHours(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationError(c, err)
		return false
	}
	return true
}
