package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Beginner opens a transaction. *pgxpool.Pool satisfies it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Summary counts the rows written per table.
type Summary struct {
	Skills       int
	WorkAreas    int
	Customers    int
	Technicians  int
	WorkingHours int
}

// Apply upserts the fixture in one transaction. Names and emails are the
// natural keys; running the same fixture twice leaves the data unchanged.
func Apply(ctx context.Context, db Beginner, f *Fixture) (Summary, error) {
	var sum Summary

	tx, err := db.Begin(ctx)
	if err != nil {
		return sum, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	skillIDs := make(map[string]uuid.UUID, len(f.Skills))
	for _, s := range f.Skills {
		var id uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO skills (id, name, category, description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO UPDATE
			SET category = EXCLUDED.category, description = EXCLUDED.description, updated_at = now()
			RETURNING id`,
			stableID("skill", s.Name), s.Name, s.Category, s.Description,
		).Scan(&id)
		if err != nil {
			return sum, fmt.Errorf("seed skill %q: %w", s.Name, err)
		}
		skillIDs[s.Name] = id
		sum.Skills++
	}

	areaIDs := make(map[string]uuid.UUID, len(f.WorkAreas))
	for _, a := range f.WorkAreas {
		var id uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO work_areas (id, name, city, state, zip_codes)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (name) DO UPDATE
			SET city = EXCLUDED.city, state = EXCLUDED.state, zip_codes = EXCLUDED.zip_codes, updated_at = now()
			RETURNING id`,
			stableID("area", a.Name), a.Name, a.City, a.State, a.ZipCodes,
		).Scan(&id)
		if err != nil {
			return sum, fmt.Errorf("seed work area %q: %w", a.Name, err)
		}
		areaIDs[a.Name] = id
		sum.WorkAreas++
	}

	for _, c := range f.Customers {
		_, err := tx.Exec(ctx, `
			INSERT INTO customers (id, email, first_name, last_name, phone)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''))
			ON CONFLICT (email) DO UPDATE
			SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, phone = EXCLUDED.phone, updated_at = now()`,
			c.id("customer"), c.Email, c.FirstName, c.LastName, c.Phone,
		)
		if err != nil {
			return sum, fmt.Errorf("seed customer %q: %w", c.Email, err)
		}
		sum.Customers++
	}

	for _, t := range f.Technicians {
		n, err := seedTechnician(ctx, tx, t, skillIDs, areaIDs)
		if err != nil {
			return sum, fmt.Errorf("seed technician %q: %w", t.Email, err)
		}
		sum.Technicians++
		sum.WorkingHours += n
	}

	if err := tx.Commit(ctx); err != nil {
		return sum, fmt.Errorf("commit seed: %w", err)
	}
	return sum, nil
}

func seedTechnician(ctx context.Context, tx pgx.Tx, t TechnicianDef, skillIDs, areaIDs map[string]uuid.UUID) (int, error) {
	active := t.Active == nil || *t.Active

	var id uuid.UUID
	err := tx.QueryRow(ctx, `
		INSERT INTO technicians (id, employee_id, email, first_name, last_name, phone, hourly_rate, is_active)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		ON CONFLICT (email) DO UPDATE
		SET employee_id = EXCLUDED.employee_id, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone, hourly_rate = EXCLUDED.hourly_rate, is_active = EXCLUDED.is_active, updated_at = now()
		RETURNING id`,
		t.id("technician"), t.EmployeeID, t.Email, t.FirstName, t.LastName, t.Phone, t.HourlyRate, active,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM technician_skills WHERE technician_id = $1`, id)
	for _, name := range t.Skills {
		batch.Queue(`INSERT INTO technician_skills (technician_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, skillIDs[name])
	}
	batch.Queue(`DELETE FROM technician_work_areas WHERE technician_id = $1`, id)
	for _, name := range t.WorkAreas {
		batch.Queue(`INSERT INTO technician_work_areas (technician_id, work_area_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, areaIDs[name])
	}

	for _, h := range t.Hours {
		wh, err := h.toDomain(id)
		if err != nil {
			return 0, err
		}
		batch.Queue(`
			INSERT INTO working_hours (id, technician_id, day_of_week, start_time, end_time, is_available, effective_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time, is_available = EXCLUDED.is_available`,
			wh.ID, wh.TechnicianID, wh.DayOfWeek, wh.StartTime, wh.EndTime, wh.IsAvailable, wh.EffectiveDate,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, err
	}
	return len(t.Hours), nil
}
