package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/internal/assignment"
	"fieldservice_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const technicianProfileColumns = `t.id, t.employee_id, t.first_name, t.last_name, t.email, COALESCE(t.phone, ''), t.is_active,
	COALESCE((SELECT array_agg(ts.skill_id ORDER BY ts.skill_id)
		FROM technician_skills ts JOIN skills s ON s.id = ts.skill_id
		WHERE ts.technician_id = t.id AND s.is_active), '{}'),
	COALESCE((SELECT array_agg(twa.work_area_id ORDER BY twa.work_area_id)
		FROM technician_work_areas twa WHERE twa.technician_id = t.id), '{}')`

func scanTechnicianProfile(row pgx.Row) (*assignment.TechnicianProfile, error) {
	var p assignment.TechnicianProfile
	if err := row.Scan(
		&p.ID, &p.EmployeeID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Active,
		&p.SkillIDs, &p.WorkAreaIDs,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListCandidateTechnicians returns active technicians in workAreaID holding
// at least one active skill from skillIDs, ordered by creation time.
func (r *Repository) ListCandidateTechnicians(ctx context.Context, skillIDs []uuid.UUID, workAreaID uuid.UUID) ([]assignment.TechnicianProfile, error) {
	query := `SELECT ` + technicianProfileColumns + `
		FROM technicians t
		WHERE t.is_active
		  AND EXISTS (SELECT 1 FROM technician_work_areas twa WHERE twa.technician_id = t.id AND twa.work_area_id = $2)
		  AND EXISTS (
			SELECT 1 FROM technician_skills ts JOIN skills s ON s.id = ts.skill_id
			WHERE ts.technician_id = t.id AND s.is_active AND ts.skill_id = ANY($1))
		ORDER BY t.created_at, t.id`

	rows, err := r.pool.Query(ctx, query, skillIDs, workAreaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate technicians: %w", err)
	}
	defer rows.Close()

	var profiles []assignment.TechnicianProfile
	for rows.Next() {
		p, err := scanTechnicianProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan technician: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate technicians: %w", err)
	}
	return profiles, nil
}

// GetTechnicianProfile loads one technician regardless of active state.
func (r *Repository) GetTechnicianProfile(ctx context.Context, id uuid.UUID) (*assignment.TechnicianProfile, error) {
	query := `SELECT ` + technicianProfileColumns + ` FROM technicians t WHERE t.id = $1`

	p, err := scanTechnicianProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("technician not found").WithCode("TECHNICIAN_NOT_FOUND")
		}
		return nil, fmt.Errorf("failed to get technician: %w", err)
	}
	return p, nil
}

// LatestWorkingHours returns the governing record for the weekday on date.
func (r *Repository) LatestWorkingHours(ctx context.Context, technicianID uuid.UUID, dayOfWeek int, date time.Time) (*domain.WorkingHours, error) {
	query := `
		SELECT id, technician_id, day_of_week, start_time, end_time, is_available, effective_date, created_at
		FROM working_hours
		WHERE technician_id = $1 AND day_of_week = $2 AND effective_date <= $3::date
		ORDER BY effective_date DESC, created_at DESC
		LIMIT 1`

	var wh domain.WorkingHours
	err := r.pool.QueryRow(ctx, query, technicianID, dayOfWeek, date.Format(domain.DateLayout)).Scan(
		&wh.ID, &wh.TechnicianID, &wh.DayOfWeek, &wh.StartTime, &wh.EndTime, &wh.IsAvailable,
		&wh.EffectiveDate, &wh.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get working hours: %w", err)
	}
	return &wh, nil
}

// CountAppointments counts a technician's appointments matching q.
func (r *Repository) CountAppointments(ctx context.Context, q assignment.CountQuery) (int, error) {
	query := `SELECT COUNT(*) FROM appointments a WHERE a.technician_id = $1`
	args := []interface{}{q.TechnicianID}
	argIndex := 2

	addFilter(&query, &args, &argIndex, len(q.Statuses) > 0, " AND a.status = ANY($%d)", statusStrings(q.Statuses))
	addFilter(&query, &args, &argIndex, q.After != nil, " AND a.scheduled_at > $%d", derefTime(q.After))
	addFilter(&query, &args, &argIndex, q.Before != nil, " AND a.scheduled_at < $%d", derefTime(q.Before))
	addFilter(&query, &args, &argIndex, q.From != nil, " AND a.scheduled_at >= $%d", derefTime(q.From))
	addFilter(&query, &args, &argIndex, q.ExcludeID != nil, " AND a.id <> $%d", derefUUID(q.ExcludeID))

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

// FindWorkAreaByZip returns the active work area containing zip, or nil.
func (r *Repository) FindWorkAreaByZip(ctx context.Context, zip string) (*domain.WorkArea, error) {
	query := `SELECT id, name, city, state, zip_codes, is_active FROM work_areas
		WHERE is_active AND $1 = ANY(zip_codes) ORDER BY created_at LIMIT 1`

	var area domain.WorkArea
	err := r.pool.QueryRow(ctx, query, zip).Scan(&area.ID, &area.Name, &area.City, &area.State, &area.ZipCodes, &area.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find work area: %w", err)
	}
	return &area, nil
}

// ListActiveSkillIDs returns the IDs of active skills in category, ordered by name.
func (r *Repository) ListActiveSkillIDs(ctx context.Context, category string) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM skills WHERE is_active AND category = $1 ORDER BY name`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to collect skills: %w", err)
	}
	return ids, nil
}

// GetCustomer returns customer contact data.
func (r *Repository) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	return r.getPerson(ctx, `SELECT id, first_name, last_name, email, COALESCE(phone, '') FROM customers WHERE id = $1`, id, "customer")
}

// GetTechnician returns technician contact data.
func (r *Repository) GetTechnician(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	return r.getPerson(ctx, `SELECT id, first_name, last_name, email, COALESCE(phone, '') FROM technicians WHERE id = $1`, id, "technician")
}

func (r *Repository) getPerson(ctx context.Context, query string, id uuid.UUID, kind string) (*domain.Person, error) {
	var p domain.Person
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(kind + " not found")
		}
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	return &p, nil
}

func derefTime(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return *value
}

var _ assignment.Repository = (*Repository)(nil)
