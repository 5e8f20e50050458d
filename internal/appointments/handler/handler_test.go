package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fieldservice_backend/internal/appointments"
	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/internal/appointments/repository/repositorytest"
	"fieldservice_backend/internal/appointments/service"
	"fieldservice_backend/internal/appointments/transport"
	"fieldservice_backend/internal/assignment"
	apphttp "fieldservice_backend/internal/http"
	"fieldservice_backend/internal/http/router"
	"fieldservice_backend/internal/scheduler"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/httpkit"
	"fieldservice_backend/platform/logger"
	"fieldservice_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type nopScheduler struct {
	calls int
}

func (s *nopScheduler) EnqueueAssignment(context.Context, scheduler.AssignmentPayload, time.Duration) error {
	s.calls++
	return nil
}

type server struct {
	engine   *gin.Engine
	store    *repositorytest.Memory
	queue    *nopScheduler
	area     uuid.UUID
	skill    uuid.UUID
	customer uuid.UUID
	tech     uuid.UUID
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &server{
		store:    repositorytest.NewMemory(),
		queue:    &nopScheduler{},
		area:     uuid.New(),
		skill:    uuid.New(),
		customer: uuid.New(),
		tech:     uuid.New(),
	}
	s.store.AddSkill(domain.Skill{ID: s.skill, Name: "Basic Plumbing", Category: "plumbing", Active: true})
	s.store.AddWorkArea(domain.WorkArea{ID: s.area, Name: "Downtown", ZipCodes: []string{"62701"}, Active: true})
	s.store.AddTechnician(assignment.TechnicianProfile{
		ID: s.tech, Active: true, SkillIDs: []uuid.UUID{s.skill}, WorkAreaIDs: []uuid.UUID{s.area},
	})

	log := logger.Nop()
	svc := service.New(s.store, assignment.NewFilter(s.store, time.UTC, 2), s.queue, service.Settings{InitialDelay: 5 * time.Second}, log)

	cfg := &config.Config{
		JWTAccessSecret: secret,
		CORSOrigins:     []string{"http://localhost:3000"},
		RateLimitRPS:    1000,
		RateLimitBurst:  1000,
	}
	s.engine = router.New(&apphttp.App{
		Config:  cfg,
		Logger:  log,
		Modules: []apphttp.Module{appointments.NewModuleWithService(svc, validator.New())},
	})
	return s
}

func token(t *testing.T, sub uuid.UUID, roles ...string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub.String(),
		"type":  "access",
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (s *server) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func createBody() map[string]any {
	return map[string]any{
		"title":       "Leaking kitchen sink",
		"description": "Water drips under the sink cabinet",
		"serviceType": "plumbing",
		"address": map[string]any{
			"street":  "1 Main St",
			"city":    "Springfield",
			"state":   "IL",
			"zipCode": "62701",
		},
		"scheduledDateTime": time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpkit.ErrorResponse {
	t.Helper()
	var resp httpkit.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateAndFetchAppointment(t *testing.T) {
	s := newServer(t)
	customerToken := token(t, s.customer, httpkit.RoleCustomer)

	rec := s.do(t, http.MethodPost, "/api/v1/appointments", customerToken, createBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created transport.AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 1, s.queue.calls)

	rec = s.do(t, http.MethodGet, "/api/v1/appointments/"+created.ID.String(), customerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	stranger := token(t, uuid.New(), httpkit.RoleCustomer)
	rec = s.do(t, http.MethodGet, "/api/v1/appointments/"+created.ID.String(), stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.CodeAccessDenied, decodeError(t, rec).Code)

	rec = s.do(t, http.MethodGet, "/api/v1/appointments?limit=5", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list transport.AppointmentListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 5, list.Pagination.Limit)
}

func TestCreateValidation(t *testing.T) {
	s := newServer(t)
	customerToken := token(t, s.customer, httpkit.RoleCustomer)

	body := createBody()
	body["address"].(map[string]any)["zipCode"] = "ABCDE"
	rec := s.do(t, http.MethodPost, "/api/v1/appointments", customerToken, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)

	body = createBody()
	body["estimatedDuration"] = 15
	rec = s.do(t, http.MethodPost, "/api/v1/appointments", customerToken, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = createBody()
	body["address"].(map[string]any)["zipCode"] = "10001"
	rec = s.do(t, http.MethodPost, "/api/v1/appointments", customerToken, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.CodeNoServiceArea, decodeError(t, rec).Code)
	assert.Equal(t, 0, s.queue.calls)
}

func TestAuthAndRoles(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/appointments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	techToken := token(t, s.tech, httpkit.RoleTechnician)
	rec = s.do(t, http.MethodPost, "/api/v1/appointments", techToken, createBody())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	customerToken := token(t, s.customer, httpkit.RoleCustomer)
	rec = s.do(t, http.MethodGet, "/api/v1/technician/jobs/available", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/admin/appointments/"+uuid.NewString()+"/assignment", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTechnicianJobFlow(t *testing.T) {
	s := newServer(t)
	techToken := token(t, s.tech, httpkit.RoleTechnician)

	id := uuid.New()
	tech := s.tech
	s.store.PutAppointment(domain.Appointment{
		ID: id, CustomerID: s.customer, TechnicianID: &tech, WorkAreaID: s.area,
		RequiredSkillIDs: []uuid.UUID{s.skill}, ScheduledAt: time.Now().Add(24 * time.Hour),
		EstimatedDuration: 120, Status: domain.StatusAssigned, Priority: domain.PriorityHigh,
	})

	rec := s.do(t, http.MethodGet, "/api/v1/technician/jobs/available", techToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var offers transport.AppointmentListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offers))
	require.Len(t, offers.Items, 1)

	rec = s.do(t, http.MethodPost, "/api/v1/technician/jobs/"+id.String()+"/accept", techToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/technician/jobs/"+id.String()+"/accept", techToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.CodeInvalidTransition, decodeError(t, rec).Code)

	rec = s.do(t, http.MethodPatch, "/api/v1/technician/jobs/"+id.String()+"/status", techToken, map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/v1/technician/jobs/"+id.String()+"/status", techToken, map[string]any{"status": "in_progress"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/technician/jobs/my", techToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine transport.AppointmentListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "in_progress", mine.Items[0].Status)

	rec = s.do(t, http.MethodPost, "/api/v1/technician/jobs/not-a-uuid/accept", techToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperatorRequeue(t *testing.T) {
	s := newServer(t)
	opToken := token(t, uuid.New(), httpkit.RoleOperator)

	id := uuid.New()
	s.store.PutAppointment(domain.Appointment{ID: id, CustomerID: s.customer, Status: domain.StatusPending, Priority: domain.PriorityLow})

	rec := s.do(t, http.MethodPost, "/api/v1/admin/appointments/"+id.String()+"/assignment", opToken, map[string]any{"delaySeconds": 30})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, 1, s.queue.calls)

	rec = s.do(t, http.MethodPost, "/api/v1/admin/appointments/"+uuid.NewString()+"/assignment", opToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.CodeAppointmentNotFound, decodeError(t, rec).Code)
}
