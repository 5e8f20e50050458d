// Package assignment decides which technician should take a pending
// appointment: eligibility filtering, workload annotation and ranking.
package assignment

import (
	"context"
	"time"

	"fieldservice_backend/internal/appointments/domain"

	"github.com/google/uuid"
)

// TechnicianProfile is the technician as seen by the matcher. SkillIDs only
// contains active skills.
type TechnicianProfile struct {
	ID          uuid.UUID
	EmployeeID  string
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Active      bool
	SkillIDs    []uuid.UUID
	WorkAreaIDs []uuid.UUID
}

// CountQuery selects a technician's appointments for conflict and workload counts.
type CountQuery struct {
	TechnicianID uuid.UUID
	Statuses     []domain.Status
	After        *time.Time // scheduled_at > After
	Before       *time.Time // scheduled_at < Before
	From         *time.Time // scheduled_at >= From
	ExcludeID    *uuid.UUID
}

// Repository is the read side the matcher needs.
type Repository interface {
	// ListCandidateTechnicians returns active technicians holding at least one of
	// skillIDs (active skills only) and serving workAreaID, in a stable order.
	ListCandidateTechnicians(ctx context.Context, skillIDs []uuid.UUID, workAreaID uuid.UUID) ([]TechnicianProfile, error)
	// LatestWorkingHours returns the record with the greatest effective date on or
	// before date for (technicianID, dayOfWeek), or nil when none exists.
	LatestWorkingHours(ctx context.Context, technicianID uuid.UUID, dayOfWeek int, date time.Time) (*domain.WorkingHours, error)
	CountAppointments(ctx context.Context, q CountQuery) (int, error)
}

// Candidate is an eligible technician annotated for ranking.
type Candidate struct {
	Technician TechnicianProfile
	SkillMatch int
	Workload   int
}
