package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/platform/apperr"
)

const (
	skillNotFoundMessage = "skill not found"

	CodeSkillNotFound = "SKILL_NOT_FOUND"
	CodeDuplicateName = "DUPLICATE_NAME"

	uniqueViolation = "23505"
)

// Repo implements the catalog repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const skillColumns = `id, name, category, description, is_active, created_at`

func scanSkill(row pgx.Row) (domain.Skill, error) {
	var s domain.Skill
	err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Description, &s.Active, &s.CreatedAt)
	return s, err
}

// ListSkills lists skills ordered by category and name.
func (r *Repo) ListSkills(ctx context.Context, category string, includeInactive bool) ([]domain.Skill, error) {
	query := `SELECT ` + skillColumns + ` FROM skills
		WHERE ($1 = '' OR category = $1) AND ($2 OR is_active)
		ORDER BY category, name`

	rows, err := r.pool.Query(ctx, query, category, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	skills := make([]domain.Skill, 0)
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skills: %w", err)
	}
	return skills, nil
}

// GetSkillByID retrieves a skill by ID.
func (r *Repo) GetSkillByID(ctx context.Context, id uuid.UUID) (domain.Skill, error) {
	s, err := scanSkill(r.pool.QueryRow(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Skill{}, apperr.NotFound(skillNotFoundMessage).WithCode(CodeSkillNotFound)
		}
		return domain.Skill{}, fmt.Errorf("get skill: %w", err)
	}
	return s, nil
}

// CreateSkill creates an active skill.
func (r *Repo) CreateSkill(ctx context.Context, params CreateSkillParams) (domain.Skill, error) {
	query := `
		INSERT INTO skills (id, name, category, description)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + skillColumns

	s, err := scanSkill(r.pool.QueryRow(ctx, query, uuid.New(), params.Name, params.Category, params.Description))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Skill{}, apperr.Conflict("a skill with this name already exists").WithCode(CodeDuplicateName)
		}
		return domain.Skill{}, fmt.Errorf("create skill: %w", err)
	}
	return s, nil
}

// SetSkillActive activates or deactivates a skill.
func (r *Repo) SetSkillActive(ctx context.Context, id uuid.UUID, active bool) (domain.Skill, error) {
	query := `
		UPDATE skills SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + skillColumns

	s, err := scanSkill(r.pool.QueryRow(ctx, query, id, active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Skill{}, apperr.NotFound(skillNotFoundMessage).WithCode(CodeSkillNotFound)
		}
		return domain.Skill{}, fmt.Errorf("update skill: %w", err)
	}
	return s, nil
}

// ListWorkAreas lists work areas ordered by name.
func (r *Repo) ListWorkAreas(ctx context.Context, includeInactive bool) ([]domain.WorkArea, error) {
	query := `
		SELECT id, name, city, state, zip_codes, is_active
		FROM work_areas
		WHERE $1 OR is_active
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list work areas: %w", err)
	}
	defer rows.Close()

	areas := make([]domain.WorkArea, 0)
	for rows.Next() {
		var a domain.WorkArea
		if err := rows.Scan(&a.ID, &a.Name, &a.City, &a.State, &a.ZipCodes, &a.Active); err != nil {
			return nil, fmt.Errorf("scan work area: %w", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work areas: %w", err)
	}
	return areas, nil
}

// CreateWorkArea creates an active work area.
func (r *Repo) CreateWorkArea(ctx context.Context, params CreateWorkAreaParams) (domain.WorkArea, error) {
	query := `
		INSERT INTO work_areas (id, name, city, state, zip_codes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, city, state, zip_codes, is_active`

	var a domain.WorkArea
	err := r.pool.QueryRow(ctx, query, uuid.New(), params.Name, params.City, params.State, params.ZipCodes).
		Scan(&a.ID, &a.Name, &a.City, &a.State, &a.ZipCodes, &a.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WorkArea{}, apperr.Conflict("a work area with this name already exists").WithCode(CodeDuplicateName)
		}
		return domain.WorkArea{}, fmt.Errorf("create work area: %w", err)
	}
	return a, nil
}

// ListWorkingHours lists a technician's records, newest effective date first per weekday.
func (r *Repo) ListWorkingHours(ctx context.Context, technicianID uuid.UUID) ([]domain.WorkingHours, error) {
	query := `
		SELECT id, technician_id, day_of_week, start_time, end_time, is_available, effective_date, created_at
		FROM working_hours
		WHERE technician_id = $1
		ORDER BY day_of_week, effective_date DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, technicianID)
	if err != nil {
		return nil, fmt.Errorf("list working hours: %w", err)
	}
	defer rows.Close()

	hours := make([]domain.WorkingHours, 0)
	for rows.Next() {
		var wh domain.WorkingHours
		if err := rows.Scan(&wh.ID, &wh.TechnicianID, &wh.DayOfWeek, &wh.StartTime, &wh.EndTime,
			&wh.IsAvailable, &wh.EffectiveDate, &wh.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan working hours: %w", err)
		}
		hours = append(hours, wh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate working hours: %w", err)
	}
	return hours, nil
}

// CreateWorkingHours stores a working-hours record.
func (r *Repo) CreateWorkingHours(ctx context.Context, wh domain.WorkingHours) (domain.WorkingHours, error) {
	query := `
		INSERT INTO working_hours (id, technician_id, day_of_week, start_time, end_time, is_available, effective_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		wh.ID, wh.TechnicianID, wh.DayOfWeek, wh.StartTime, wh.EndTime, wh.IsAvailable,
		wh.EffectiveDate.Format(domain.DateLayout),
	).Scan(&wh.CreatedAt)
	if err != nil {
		return domain.WorkingHours{}, fmt.Errorf("create working hours: %w", err)
	}
	return wh, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
