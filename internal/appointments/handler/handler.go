package handler

import (
	"net/http"

	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/internal/appointments/service"
	"fieldservice_backend/internal/appointments/transport"
	"fieldservice_backend/platform/httpkit"
	"fieldservice_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid appointment ID"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new appointments handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterCustomerRoutes registers the customer booking routes
func (h *Handler) RegisterCustomerRoutes(rg *gin.RouterGroup) {
	rg.POST("", httpkit.RequireRole(httpkit.RoleCustomer), h.Create)
	rg.GET("", httpkit.RequireRole(httpkit.RoleCustomer), h.List)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/feedback", httpkit.RequireRole(httpkit.RoleCustomer), h.SubmitFeedback)
}

// RegisterTechnicianRoutes registers the technician job routes
func (h *Handler) RegisterTechnicianRoutes(rg *gin.RouterGroup) {
	rg.GET("/available", h.ListOffers)
	rg.GET("/my", h.ListMyJobs)
	rg.POST("/:id/accept", h.Accept)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

// RegisterAdminRoutes registers operator routes
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/assignment", h.RequeueAssignment)
}

// actorFor maps the caller's roles to a state machine actor. Operator wins
// over technician, technician over customer.
func actorFor(identity httpkit.Identity) domain.Actor {
	switch {
	case identity.HasRole(httpkit.RoleOperator):
		return domain.Operator{ID: identity.UserID()}
	case identity.HasRole(httpkit.RoleTechnician):
		return domain.Technician{ID: identity.UserID()}
	case identity.HasRole(httpkit.RoleCustomer):
		return domain.Customer{ID: identity.UserID()}
	}
	return nil
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// bindJSON decodes and validates the body into req.
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

func (h *Handler) bindList(c *gin.Context) (transport.ListAppointmentsRequest, bool) {
	var req transport.ListAppointmentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return req, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationError(c, err)
		return req, false
	}
	return req, true
}

// Create handles POST /api/v1/appointments
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateAppointmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// List handles GET /api/v1/appointments
func (h *Handler) List(c *gin.Context) {
	req, ok := h.bindList(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListForCustomer(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// GetByID handles GET /api/v1/appointments/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	actor := actorFor(identity)
	if actor == nil {
		httpkit.HandleError(c, domain.ErrAccessDenied("no role grants access to appointments"))
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id, actor)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// SubmitFeedback handles POST /api/v1/appointments/:id/feedback
func (h *Handler) SubmitFeedback(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.SubmitFeedbackRequest
	if !h.bindJSON(c, &req) {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.SubmitFeedback(c.Request.Context(), id, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ListOffers handles GET /api/v1/technician/jobs/available
func (h *Handler) ListOffers(c *gin.Context) {
	req, ok := h.bindList(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListOffers(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ListMyJobs handles GET /api/v1/technician/jobs/my
func (h *Handler) ListMyJobs(c *gin.Context) {
	req, ok := h.bindList(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListMyJobs(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Accept handles POST /api/v1/technician/jobs/:id/accept
func (h *Handler) Accept(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Accept(c.Request.Context(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// UpdateStatus handles PATCH /api/v1/technician/jobs/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateJobStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.UpdateStatus(c.Request.Context(), id, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// RequeueAssignment handles POST /api/v1/admin/appointments/:id/assignment
func (h *Handler) RequeueAssignment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.RequeueAssignmentRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.RequeueAssignment(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusAccepted, result)
}
