// Package repository is the PostgreSQL persistence for appointments and the
// technician data the assignment engine reads.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldservice_backend/internal/appointments/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides database operations for appointments
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new appointments repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const appointmentColumns = `a.id, a.reference_number, a.customer_id, a.technician_id, a.work_area_id,
	a.title, a.description, a.service_type, a.street, a.city, a.state, a.zip_code, a.latitude, a.longitude,
	a.scheduled_at, a.estimated_duration, a.status, a.priority,
	a.assigned_at, a.accepted_at, a.started_at, a.completed_at, a.completion_notes,
	a.feedback_rating, a.feedback_comment, a.feedback_at, a.created_at, a.updated_at,
	COALESCE((SELECT array_agg(rs.skill_id ORDER BY rs.position)
		FROM appointment_required_skills rs WHERE rs.appointment_id = a.id), '{}')`

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var (
		appt           domain.Appointment
		serviceType    string
		status         string
		priority       string
		feedbackRating *int
		feedbackNote   *string
		feedbackAt     *time.Time
	)
	err := row.Scan(
		&appt.ID, &appt.ReferenceNumber, &appt.CustomerID, &appt.TechnicianID, &appt.WorkAreaID,
		&appt.Title, &appt.Description, &serviceType,
		&appt.Address.Street, &appt.Address.City, &appt.Address.State, &appt.Address.ZipCode,
		&appt.Address.Latitude, &appt.Address.Longitude,
		&appt.ScheduledAt, &appt.EstimatedDuration, &status, &priority,
		&appt.AssignedAt, &appt.AcceptedAt, &appt.StartedAt, &appt.CompletedAt, &appt.CompletionNotes,
		&feedbackRating, &feedbackNote, &feedbackAt, &appt.CreatedAt, &appt.UpdatedAt,
		&appt.RequiredSkillIDs,
	)
	if err != nil {
		return nil, err
	}
	appt.ServiceType = domain.ServiceType(serviceType)
	appt.Status = domain.Status(status)
	appt.Priority = domain.Priority(priority)
	if feedbackRating != nil && feedbackAt != nil {
		appt.Feedback = &domain.Feedback{Rating: *feedbackRating, Comment: feedbackNote, SubmittedAt: *feedbackAt}
	}
	return &appt, nil
}

// CreateAppointment inserts a new appointment and its ordered required skills.
func (r *Repository) CreateAppointment(ctx context.Context, appt *domain.Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO appointments (
			id, reference_number, customer_id, technician_id, work_area_id, title, description, service_type,
			street, city, state, zip_code, latitude, longitude, scheduled_at, estimated_duration,
			status, priority, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)`

	_, err = tx.Exec(ctx, query,
		appt.ID, appt.ReferenceNumber, appt.CustomerID, appt.TechnicianID, appt.WorkAreaID,
		appt.Title, appt.Description, string(appt.ServiceType),
		appt.Address.Street, appt.Address.City, appt.Address.State, appt.Address.ZipCode,
		appt.Address.Latitude, appt.Address.Longitude, appt.ScheduledAt, appt.EstimatedDuration,
		string(appt.Status), string(appt.Priority), appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO appointment_required_skills (appointment_id, skill_id, position)
		SELECT $1, s.id, s.ord FROM unnest($2::uuid[]) WITH ORDINALITY AS s(id, ord)`,
		appt.ID, appt.RequiredSkillIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to store required skills: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit appointment: %w", err)
	}
	return nil
}

// GetAppointment retrieves an appointment by its ID
func (r *Repository) GetAppointment(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments a WHERE a.id = $1`

	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAppointmentNotFound()
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

// ApplyTransition persists t if the appointment is still in t.From (and, for
// technician-driven changes, still held by t.ExpectTechnician). It reports
// whether the row was updated; false means another writer got there first.
func (r *Repository) ApplyTransition(ctx context.Context, t domain.Transition) (bool, error) {
	set := "status = $3, updated_at = $4"
	args := []interface{}{t.AppointmentID, string(t.From), string(t.To), t.At}

	switch t.To {
	case domain.StatusAssigned:
		set += ", technician_id = $5, assigned_at = $4"
		args = append(args, t.TechnicianID)
	case domain.StatusAccepted:
		set += ", accepted_at = $4"
	case domain.StatusInProgress:
		set += ", started_at = $4"
	case domain.StatusCompleted:
		set += ", completed_at = $4, completion_notes = $5"
		args = append(args, t.Notes)
	case domain.StatusCancelled:
		set += ", technician_id = NULL"
	}

	query := "UPDATE appointments SET " + set + " WHERE id = $1 AND status = $2"
	if t.ExpectTechnician != nil {
		query += fmt.Sprintf(" AND technician_id = $%d", len(args)+1)
		args = append(args, *t.ExpectTechnician)
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to apply %s transition: %w", t.To, err)
	}
	return result.RowsAffected() == 1, nil
}

// SaveFeedback stores feedback once, only on a completed appointment owned by customerID.
func (r *Repository) SaveFeedback(ctx context.Context, id, customerID uuid.UUID, fb domain.Feedback) (bool, error) {
	query := `
		UPDATE appointments SET feedback_rating = $3, feedback_comment = $4, feedback_at = $5, updated_at = $5
		WHERE id = $1 AND customer_id = $2 AND status = 'completed' AND feedback_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id, customerID, fb.Rating, fb.Comment, fb.SubmittedAt)
	if err != nil {
		return false, fmt.Errorf("failed to save feedback: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ListOrder selects the sort order of a listing.
type ListOrder int

const (
	// OrderNewest sorts by creation time, newest first.
	OrderNewest ListOrder = iota
	// OrderScheduled sorts by scheduled time, earliest first.
	OrderScheduled
	// OrderPriority sorts urgent first, then by scheduled time.
	OrderPriority
)

// ListParams contains parameters for listing appointments
type ListParams struct {
	CustomerID   *uuid.UUID
	TechnicianID *uuid.UUID
	Statuses     []domain.Status
	Order        ListOrder
	Page         int
	PageSize     int
}

// ListResult contains the result of listing appointments
type ListResult struct {
	Items      []domain.Appointment
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// ListAppointments retrieves appointments with optional filtering
func (r *Repository) ListAppointments(ctx context.Context, params ListParams) (*ListResult, error) {
	baseQuery := `FROM appointments a WHERE TRUE`
	args := []interface{}{}
	argIndex := 1

	addFilter(&baseQuery, &args, &argIndex, params.CustomerID != nil, " AND a.customer_id = $%d", derefUUID(params.CustomerID))
	addFilter(&baseQuery, &args, &argIndex, params.TechnicianID != nil, " AND a.technician_id = $%d", derefUUID(params.TechnicianID))
	addFilter(&baseQuery, &args, &argIndex, len(params.Statuses) > 0, " AND a.status = ANY($%d)", statusStrings(params.Statuses))

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	page, pageSize := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	totalPages := (total + pageSize - 1) / pageSize
	offset := (page - 1) * pageSize

	var orderBy string
	switch params.Order {
	case OrderScheduled:
		orderBy = "a.scheduled_at ASC"
	case OrderPriority:
		orderBy = `CASE a.priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC, a.scheduled_at ASC`
	default:
		orderBy = "a.created_at DESC"
	}

	selectQuery := fmt.Sprintf(`SELECT %s %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		appointmentColumns, baseQuery, orderBy, argIndex, argIndex+1)
	args = append(args, pageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Appointment, 0, pageSize)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		items = append(items, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func addFilter(baseQuery *string, args *[]interface{}, argIndex *int, apply bool, clause string, value interface{}) {
	if !apply {
		return
	}
	*baseQuery += fmt.Sprintf(clause, *argIndex)
	*args = append(*args, value)
	*argIndex++
}

func derefUUID(value *uuid.UUID) uuid.UUID {
	if value == nil {
		return uuid.UUID{}
	}
	return *value
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
