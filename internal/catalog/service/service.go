package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/internal/catalog/repository"
	"fieldservice_backend/internal/catalog/transport"
	"fieldservice_backend/platform/logger"
	"fieldservice_backend/platform/sanitize"
)

// Service provides business logic for the skills and coverage catalog.
type Service struct {
	repo repository.Repository
	loc  *time.Location
	log  *logger.Logger
	now  func() time.Time
}

// New creates a new catalog service. loc decides the default effective date
// of new working-hours records.
func New(repo repository.Repository, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, log: log, now: time.Now}
}

// ListSkills lists skills, optionally by category.
func (s *Service) ListSkills(ctx context.Context, req transport.ListSkillsRequest) ([]transport.SkillResponse, error) {
	skills, err := s.repo.ListSkills(ctx, req.Category, req.IncludeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]transport.SkillResponse, len(skills))
	for i, skill := range skills {
		out[i] = toSkillResponse(skill)
	}
	return out, nil
}

// GetSkillByID retrieves a skill by ID.
func (s *Service) GetSkillByID(ctx context.Context, id uuid.UUID) (transport.SkillResponse, error) {
	skill, err := s.repo.GetSkillByID(ctx, id)
	if err != nil {
		return transport.SkillResponse{}, err
	}
	return toSkillResponse(skill), nil
}

// CreateSkill creates a new skill.
func (s *Service) CreateSkill(ctx context.Context, req transport.CreateSkillRequest) (transport.SkillResponse, error) {
	skill, err := s.repo.CreateSkill(ctx, repository.CreateSkillParams{
		Name:        strings.TrimSpace(req.Name),
		Category:    req.Category,
		Description: sanitize.TextPtr(req.Description),
	})
	if err != nil {
		return transport.SkillResponse{}, err
	}

	s.log.Info("skill created", "id", skill.ID, "name", skill.Name)
	return toSkillResponse(skill), nil
}

// SetSkillActive toggles a skill. Deactivated skills stop counting toward
// eligibility immediately, including at accept time.
func (s *Service) SetSkillActive(ctx context.Context, id uuid.UUID, req transport.UpdateSkillStatusRequest) (transport.SkillResponse, error) {
	skill, err := s.repo.SetSkillActive(ctx, id, *req.Active)
	if err != nil {
		return transport.SkillResponse{}, err
	}

	s.log.Info("skill status changed", "id", skill.ID, "active", skill.Active)
	return toSkillResponse(skill), nil
}

// ListWorkAreas lists work areas.
func (s *Service) ListWorkAreas(ctx context.Context, includeInactive bool) ([]transport.WorkAreaResponse, error) {
	areas, err := s.repo.ListWorkAreas(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]transport.WorkAreaResponse, len(areas))
	for i, area := range areas {
		out[i] = toWorkAreaResponse(area)
	}
	return out, nil
}

// CreateWorkArea creates a new work area.
func (s *Service) CreateWorkArea(ctx context.Context, req transport.CreateWorkAreaRequest) (transport.WorkAreaResponse, error) {
	zips := make([]string, 0, len(req.ZipCodes))
	seen := make(map[string]struct{}, len(req.ZipCodes))
	for _, zip := range req.ZipCodes {
		zip = strings.TrimSpace(zip)
		if _, ok := seen[zip]; ok {
			continue
		}
		seen[zip] = struct{}{}
		zips = append(zips, zip)
	}

	area, err := s.repo.CreateWorkArea(ctx, repository.CreateWorkAreaParams{
		Name:     strings.TrimSpace(req.Name),
		City:     strings.TrimSpace(req.City),
		State:    strings.TrimSpace(req.State),
		ZipCodes: zips,
	})
	if err != nil {
		return transport.WorkAreaResponse{}, err
	}

	s.log.Info("work area created", "id", area.ID, "name", area.Name, "zipCodes", len(area.ZipCodes))
	return toWorkAreaResponse(area), nil
}

// ListWorkingHours lists the technician's own records.
func (s *Service) ListWorkingHours(ctx context.Context, technicianID uuid.UUID) ([]transport.WorkingHoursResponse, error) {
	hours, err := s.repo.ListWorkingHours(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.WorkingHoursResponse, len(hours))
	for i, wh := range hours {
		out[i] = toWorkingHoursResponse(wh)
	}
	return out, nil
}

// CreateWorkingHours adds a record that supersedes earlier ones for the same
// weekday from its effective date on. The date defaults to today.
func (s *Service) CreateWorkingHours(ctx context.Context, technicianID uuid.UUID, req transport.CreateWorkingHoursRequest) (transport.WorkingHoursResponse, error) {
	wh := domain.WorkingHours{
		ID:           uuid.New(),
		TechnicianID: technicianID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		IsAvailable:  true,
	}
	if req.DayOfWeek != nil {
		wh.DayOfWeek = *req.DayOfWeek
	}
	if req.IsAvailable != nil {
		wh.IsAvailable = *req.IsAvailable
	}

	if req.EffectiveDate != "" {
		date, err := time.Parse(domain.DateLayout, req.EffectiveDate)
		if err != nil {
			return transport.WorkingHoursResponse{}, domain.ErrValidation("effectiveDate must be YYYY-MM-DD").WithCode(domain.CodeInvalidWorkingHours)
		}
		wh.EffectiveDate = date
	} else {
		wh.EffectiveDate = domain.SlotIn(s.now(), s.loc).Date
	}

	if err := wh.Validate(); err != nil {
		return transport.WorkingHoursResponse{}, err
	}

	created, err := s.repo.CreateWorkingHours(ctx, wh)
	if err != nil {
		return transport.WorkingHoursResponse{}, err
	}

	s.log.Info("working hours created", "technicianId", technicianID, "dayOfWeek", created.DayOfWeek)
	return toWorkingHoursResponse(created), nil
}

func toSkillResponse(skill domain.Skill) transport.SkillResponse {
	return transport.SkillResponse{
		ID:          skill.ID,
		Name:        skill.Name,
		Category:    skill.Category,
		Description: skill.Description,
		Active:      skill.Active,
	}
}

func toWorkAreaResponse(area domain.WorkArea) transport.WorkAreaResponse {
	zips := area.ZipCodes
	if zips == nil {
		zips = []string{}
	}
	return transport.WorkAreaResponse{
		ID:       area.ID,
		Name:     area.Name,
		City:     area.City,
		State:    area.State,
		ZipCodes: zips,
		Active:   area.Active,
	}
}

func toWorkingHoursResponse(wh domain.WorkingHours) transport.WorkingHoursResponse {
	return transport.WorkingHoursResponse{
		ID:            wh.ID,
		DayOfWeek:     wh.DayOfWeek,
		StartTime:     wh.StartTime,
		EndTime:       wh.EndTime,
		IsAvailable:   wh.IsAvailable,
		EffectiveDate: wh.EffectiveDate.Format(domain.DateLayout),
		CreatedAt:     wh.CreatedAt,
	}
}
