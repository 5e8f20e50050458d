package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/internal/appointments/repository"
	"fieldservice_backend/internal/appointments/transport"
	"fieldservice_backend/internal/assignment"
	"fieldservice_backend/internal/scheduler"
	"fieldservice_backend/platform/apperr"
	"fieldservice_backend/platform/logger"
	"fieldservice_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultDuration = 120
	defaultPageSize = 10
	maxPageSize     = 100
)

// Repository is the persistence the service needs.
type Repository interface {
	CreateAppointment(ctx context.Context, appt *domain.Appointment) error
	GetAppointment(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	ApplyTransition(ctx context.Context, t domain.Transition) (bool, error)
	SaveFeedback(ctx context.Context, id, customerID uuid.UUID, fb domain.Feedback) (bool, error)
	ListAppointments(ctx context.Context, params repository.ListParams) (*repository.ListResult, error)
	FindWorkAreaByZip(ctx context.Context, zip string) (*domain.WorkArea, error)
	ListActiveSkillIDs(ctx context.Context, category string) ([]uuid.UUID, error)
	GetTechnicianProfile(ctx context.Context, id uuid.UUID) (*assignment.TechnicianProfile, error)
}

// EligibilityChecker re-verifies a technician at accept time.
type EligibilityChecker interface {
	Recheck(ctx context.Context, appt *domain.Appointment, tech assignment.TechnicianProfile, withSchedule bool) error
}

// Settings holds the assignment timings the service applies.
type Settings struct {
	InitialDelay    time.Duration
	RecheckSchedule bool
}

// Service provides business logic for customer and technician appointment flows
type Service struct {
	repo        Repository
	eligibility EligibilityChecker
	assignments scheduler.AssignmentScheduler
	settings    Settings
	log         *logger.Logger
	now         func() time.Time
}

// New creates a new appointments service
func New(repo Repository, eligibility EligibilityChecker, assignments scheduler.AssignmentScheduler, settings Settings, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		eligibility: eligibility,
		assignments: assignments,
		settings:    settings,
		log:         log,
		now:         time.Now,
	}
}

// Create books a new pending appointment and schedules its first assignment attempt.
func (s *Service) Create(ctx context.Context, customerID uuid.UUID, req transport.CreateAppointmentRequest) (*transport.AppointmentResponse, error) {
	now := s.now().UTC()
	if !req.ScheduledDateTime.After(now) {
		return nil, domain.ErrValidation("appointment must be scheduled for a future date")
	}

	area, err := s.repo.FindWorkAreaByZip(ctx, req.Address.ZipCode)
	if err != nil {
		return nil, err
	}
	if area == nil {
		return nil, apperr.Validation("service is not available in this area").WithCode(domain.CodeNoServiceArea)
	}

	skillIDs, err := s.resolveSkills(ctx, req.ServiceType, req.RequiredSkills)
	if err != nil {
		return nil, err
	}

	duration := defaultDuration
	if req.EstimatedDuration != nil {
		duration = *req.EstimatedDuration
	}
	priority := domain.PriorityMedium
	if req.Priority != nil {
		priority = domain.Priority(*req.Priority)
	}

	appt := &domain.Appointment{
		ID:               uuid.New(),
		ReferenceNumber:  domain.NewReferenceNumber(now),
		CustomerID:       customerID,
		WorkAreaID:       area.ID,
		Title:            sanitize.Text(req.Title),
		Description:      sanitize.Text(req.Description),
		ServiceType:      domain.ServiceType(req.ServiceType),
		RequiredSkillIDs: skillIDs,
		Address: domain.Address{
			Street:    strings.TrimSpace(req.Address.Street),
			City:      strings.TrimSpace(req.Address.City),
			State:     strings.TrimSpace(req.Address.State),
			ZipCode:   req.Address.ZipCode,
			Latitude:  req.Address.Latitude,
			Longitude: req.Address.Longitude,
		},
		ScheduledAt:       req.ScheduledDateTime.UTC(),
		EstimatedDuration: duration,
		Status:            domain.StatusPending,
		Priority:          priority,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.CreateAppointment(ctx, appt); err != nil {
		return nil, err
	}

	payload := scheduler.AssignmentPayload{AppointmentID: appt.ID.String()}
	if err := s.assignments.EnqueueAssignment(ctx, payload, s.settings.InitialDelay); err != nil {
		// The row stays pending; an operator requeue recovers it.
		s.log.WithContext(ctx).Error("failed to schedule assignment", "appointmentId", appt.ID, "error", err)
		return nil, fmt.Errorf("schedule assignment for %s: %w", appt.ID, err)
	}

	s.log.WithContext(ctx).Info("appointment created", "appointmentId", appt.ID, "reference", appt.ReferenceNumber)
	resp := toResponse(appt)
	return &resp, nil
}

// resolveSkills returns the active skills of the service type's category,
// narrowed to the client's selection when one is given.
func (s *Service) resolveSkills(ctx context.Context, serviceType string, selected []uuid.UUID) ([]uuid.UUID, error) {
	active, err := s.repo.ListActiveSkillIDs(ctx, serviceType)
	if err != nil {
		return nil, err
	}

	if len(selected) > 0 {
		allowed := make(map[uuid.UUID]struct{}, len(active))
		for _, id := range active {
			allowed[id] = struct{}{}
		}
		narrowed := make([]uuid.UUID, 0, len(selected))
		seen := make(map[uuid.UUID]struct{}, len(selected))
		for _, id := range selected {
			if _, ok := allowed[id]; !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			narrowed = append(narrowed, id)
		}
		active = narrowed
	}

	if len(active) == 0 {
		return nil, apperr.Validation("no skills found for this service type").WithCode(domain.CodeNoSkillsFound)
	}
	return active, nil
}

// ListForCustomer returns the customer's own appointments, newest first.
func (s *Service) ListForCustomer(ctx context.Context, customerID uuid.UUID, req transport.ListAppointmentsRequest) (*transport.AppointmentListResponse, error) {
	params := repository.ListParams{
		CustomerID: &customerID,
		Order:      repository.OrderNewest,
	}
	if req.Status != "" {
		params.Statuses = []domain.Status{domain.Status(req.Status)}
	}
	return s.list(ctx, params, req)
}

// GetByID returns the appointment when actor may view it.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID, actor domain.Actor) (*transport.AppointmentResponse, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanView(appt, actor) {
		return nil, domain.ErrAccessDenied("you do not have access to this appointment")
	}
	resp := toResponse(appt)
	return &resp, nil
}

// SubmitFeedback attaches the customer's rating to a completed appointment.
func (s *Service) SubmitFeedback(ctx context.Context, id uuid.UUID, customerID uuid.UUID, req transport.SubmitFeedbackRequest) (*transport.AppointmentResponse, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	fb, err := domain.PlanFeedback(appt, domain.Customer{ID: customerID}, req.Rating, sanitize.TextPtr(req.Comment), s.now().UTC())
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.SaveFeedback(ctx, id, customerID, fb)
	if err != nil {
		return nil, err
	}
	if !saved {
		return nil, domain.ErrFeedbackExists()
	}

	appt.Feedback = &fb
	appt.UpdatedAt = fb.SubmittedAt
	resp := toResponse(appt)
	return &resp, nil
}

// ListOffers returns jobs assigned to the technician that await acceptance,
// most urgent first.
func (s *Service) ListOffers(ctx context.Context, technicianID uuid.UUID, req transport.ListAppointmentsRequest) (*transport.AppointmentListResponse, error) {
	return s.list(ctx, repository.ListParams{
		TechnicianID: &technicianID,
		Statuses:     []domain.Status{domain.StatusAssigned},
		Order:        repository.OrderPriority,
	}, req)
}

// ListMyJobs returns the technician's accepted, running and finished jobs.
func (s *Service) ListMyJobs(ctx context.Context, technicianID uuid.UUID, req transport.ListAppointmentsRequest) (*transport.AppointmentListResponse, error) {
	params := repository.ListParams{
		TechnicianID: &technicianID,
		Statuses:     []domain.Status{domain.StatusAccepted, domain.StatusInProgress, domain.StatusCompleted},
		Order:        repository.OrderScheduled,
	}
	if req.Status != "" {
		params.Statuses = []domain.Status{domain.Status(req.Status)}
	}
	return s.list(ctx, params, req)
}

// Accept confirms an assignment after re-verifying the technician still qualifies.
func (s *Service) Accept(ctx context.Context, id uuid.UUID, technicianID uuid.UUID) (*transport.AppointmentResponse, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	t, err := domain.Plan(appt, domain.Technician{ID: technicianID}, domain.Change{To: domain.StatusAccepted}, s.now().UTC())
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.GetTechnicianProfile(ctx, technicianID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, domain.ErrStaleEligibility("technician profile missing")
		}
		return nil, err
	}
	if err := s.eligibility.Recheck(ctx, appt, *profile, s.settings.RecheckSchedule); err != nil {
		s.log.WithContext(ctx).Warn("accept rejected", "appointmentId", id, "technicianId", technicianID, "error", err)
		return nil, err
	}

	return s.commit(ctx, appt, t)
}

// UpdateStatus moves an accepted job to in_progress or an in-progress job to completed.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, technicianID uuid.UUID, req transport.UpdateJobStatusRequest) (*transport.AppointmentResponse, error) {
	to := domain.Status(req.Status)
	if to != domain.StatusInProgress && to != domain.StatusCompleted {
		return nil, domain.ErrInvalidStatus("status must be in_progress or completed")
	}

	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	notes := sanitize.TextPtr(req.CompletionNotes)
	t, err := domain.Plan(appt, domain.Technician{ID: technicianID}, domain.Change{To: to, Notes: notes}, s.now().UTC())
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, appt, t)
}

// RequeueAssignment schedules another assignment attempt for a pending appointment.
func (s *Service) RequeueAssignment(ctx context.Context, id uuid.UUID, req transport.RequeueAssignmentRequest) (*transport.RequeueResponse, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != domain.StatusPending {
		return nil, domain.ErrInvalidStatus("only pending appointments can be requeued")
	}

	delay := time.Duration(req.DelaySeconds) * time.Second
	if err := s.assignments.EnqueueAssignment(ctx, scheduler.AssignmentPayload{AppointmentID: id.String()}, delay); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("assignment requeued", "appointmentId", id, "delay", delay)
	return &transport.RequeueResponse{AppointmentID: id, DelaySeconds: req.DelaySeconds}, nil
}

// commit persists t with a conditional update. A lost race surfaces as a
// conflict against the status observed before planning.
func (s *Service) commit(ctx context.Context, appt *domain.Appointment, t domain.Transition) (*transport.AppointmentResponse, error) {
	applied, err := s.repo.ApplyTransition(ctx, t)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domain.ErrInvalidTransition(t.From, t.To).
			WithDetails(map[string]string{"from": string(t.From), "to": string(t.To), "reason": "appointment changed concurrently"})
	}

	updated := domain.Apply(*appt, t)
	s.log.WithContext(ctx).Info("appointment status updated", "appointmentId", appt.ID, "from", t.From, "to", t.To)
	resp := toResponse(&updated)
	return &resp, nil
}

func (s *Service) list(ctx context.Context, params repository.ListParams, req transport.ListAppointmentsRequest) (*transport.AppointmentListResponse, error) {
	params.Page = req.Page
	if params.Page < 1 {
		params.Page = 1
	}
	params.PageSize = req.Limit
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	result, err := s.repo.ListAppointments(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]transport.AppointmentResponse, len(result.Items))
	for i := range result.Items {
		items[i] = toResponse(&result.Items[i])
	}

	return &transport.AppointmentListResponse{
		Items: items,
		Pagination: transport.Pagination{
			Page:  result.Page,
			Limit: result.PageSize,
			Total: result.Total,
			Pages: result.TotalPages,
		},
	}, nil
}

func toResponse(appt *domain.Appointment) transport.AppointmentResponse {
	resp := transport.AppointmentResponse{
		ID:              appt.ID,
		ReferenceNumber: appt.ReferenceNumber,
		CustomerID:      appt.CustomerID,
		TechnicianID:    appt.TechnicianID,
		WorkAreaID:      appt.WorkAreaID,
		Title:           appt.Title,
		Description:     appt.Description,
		ServiceType:     string(appt.ServiceType),
		RequiredSkills:  appt.RequiredSkillIDs,
		Address: transport.AddressResponse{
			Street:    appt.Address.Street,
			City:      appt.Address.City,
			State:     appt.Address.State,
			ZipCode:   appt.Address.ZipCode,
			Latitude:  appt.Address.Latitude,
			Longitude: appt.Address.Longitude,
		},
		ScheduledDateTime: appt.ScheduledAt,
		EstimatedDuration: appt.EstimatedDuration,
		Status:            string(appt.Status),
		Priority:          string(appt.Priority),
		AssignedAt:        appt.AssignedAt,
		AcceptedAt:        appt.AcceptedAt,
		StartedAt:         appt.StartedAt,
		CompletedAt:       appt.CompletedAt,
		CompletionNotes:   appt.CompletionNotes,
		CreatedAt:         appt.CreatedAt,
		UpdatedAt:         appt.UpdatedAt,
	}
	if resp.RequiredSkills == nil {
		resp.RequiredSkills = []uuid.UUID{}
	}
	if appt.Feedback != nil {
		resp.Feedback = &transport.FeedbackResponse{
			Rating:      appt.Feedback.Rating,
			Comment:     appt.Feedback.Comment,
			SubmittedAt: appt.Feedback.SubmittedAt,
		}
	}
	return resp
}
