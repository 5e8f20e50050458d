package repository

import (
	"context"

	"fieldservice_backend/internal/appointments/domain"

	"github.com/google/uuid"
)

// CreateSkillParams contains data for creating a skill.
type CreateSkillParams struct {
	Name        string
	Category    string
	Description *string
}

// CreateWorkAreaParams contains data for creating a work area.
type CreateWorkAreaParams struct {
	Name     string
	City     string
	State    string
	ZipCodes []string
}

// Repository defines catalog storage operations.
type Repository interface {
	ListSkills(ctx context.Context, category string, includeInactive bool) ([]domain.Skill, error)
	GetSkillByID(ctx context.Context, id uuid.UUID) (domain.Skill, error)
	CreateSkill(ctx context.Context, params CreateSkillParams) (domain.Skill, error)
	SetSkillActive(ctx context.Context, id uuid.UUID, active bool) (domain.Skill, error)

	ListWorkAreas(ctx context.Context, includeInactive bool) ([]domain.WorkArea, error)
	CreateWorkArea(ctx context.Context, params CreateWorkAreaParams) (domain.WorkArea, error)

	ListWorkingHours(ctx context.Context, technicianID uuid.UUID) ([]domain.WorkingHours, error)
	CreateWorkingHours(ctx context.Context, wh domain.WorkingHours) (domain.WorkingHours, error)
}
