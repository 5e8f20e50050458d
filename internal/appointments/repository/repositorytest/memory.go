// Package repositorytest provides an in-memory appointment store for tests.
package repositorytest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/internal/appointments/repository"
	"fieldservice_backend/internal/assignment"
	"fieldservice_backend/platform/apperr"

	"github.com/google/uuid"
)

// Memory is an in-process store with the same method set as Repository.
// It backs package tests and local experiments without PostgreSQL.
type Memory struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]domain.Appointment
	technicians  []assignment.TechnicianProfile // insertion order is repository order
	customers    map[uuid.UUID]domain.Person
	skills       map[uuid.UUID]domain.Skill
	workAreas    []domain.WorkArea
	hours        []domain.WorkingHours

	// Err, when set, is returned by every read and write.
	Err error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		appointments: make(map[uuid.UUID]domain.Appointment),
		customers:    make(map[uuid.UUID]domain.Person),
		skills:       make(map[uuid.UUID]domain.Skill),
	}
}

// AddSkill stores a skill.
func (m *Memory) AddSkill(s domain.Skill) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skills[s.ID] = s
}

// SetSkillActive toggles a skill.
func (m *Memory) SetSkillActive(id uuid.UUID, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.skills[id]
	s.Active = active
	m.skills[id] = s
}

// AddWorkArea stores a work area.
func (m *Memory) AddWorkArea(w domain.WorkArea) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workAreas = append(m.workAreas, w)
}

// AddCustomer stores a customer.
func (m *Memory) AddCustomer(p domain.Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[p.ID] = p
}

// AddTechnician stores a technician. SkillIDs may include inactive skills;
// they are hidden on read like the SQL implementation does.
func (m *Memory) AddTechnician(p assignment.TechnicianProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.technicians = append(m.technicians, p)
}

// AddWorkingHours stores a working-hours record.
func (m *Memory) AddWorkingHours(wh domain.WorkingHours) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hours = append(m.hours, wh)
}

// PutAppointment stores appt as-is, bypassing the state machine.
func (m *Memory) PutAppointment(appt domain.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[appt.ID] = appt
}

// CreateAppointment stores a new appointment.
func (m *Memory) CreateAppointment(_ context.Context, appt *domain.Appointment) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[appt.ID] = *appt
	return nil
}

// GetAppointment returns a copy of the stored appointment.
func (m *Memory) GetAppointment(_ context.Context, id uuid.UUID) (*domain.Appointment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	appt, ok := m.appointments[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound()
	}
	return &appt, nil
}

// ApplyTransition applies t when the stored status still equals t.From.
func (m *Memory) ApplyTransition(_ context.Context, t domain.Transition) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appointments[t.AppointmentID]
	if !ok || appt.Status != t.From {
		return false, nil
	}
	if t.ExpectTechnician != nil && !appt.AssignedTo(*t.ExpectTechnician) {
		return false, nil
	}
	m.appointments[t.AppointmentID] = domain.Apply(appt, t)
	return true, nil
}

// SaveFeedback stores feedback once on a completed appointment.
func (m *Memory) SaveFeedback(_ context.Context, id, customerID uuid.UUID, fb domain.Feedback) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appointments[id]
	if !ok || appt.CustomerID != customerID || appt.Status != domain.StatusCompleted || appt.Feedback != nil {
		return false, nil
	}
	appt.Feedback = &fb
	appt.UpdatedAt = fb.SubmittedAt
	m.appointments[id] = appt
	return true, nil
}

// ListAppointments filters, sorts and pages like the SQL implementation.
func (m *Memory) ListAppointments(_ context.Context, params repository.ListParams) (*repository.ListResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []domain.Appointment
	for _, appt := range m.appointments {
		if params.CustomerID != nil && appt.CustomerID != *params.CustomerID {
			continue
		}
		if params.TechnicianID != nil && !appt.AssignedTo(*params.TechnicianID) {
			continue
		}
		if len(params.Statuses) > 0 && !slices.Contains(params.Statuses, appt.Status) {
			continue
		}
		items = append(items, appt)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch params.Order {
		case repository.OrderScheduled:
			return a.ScheduledAt.Before(b.ScheduledAt)
		case repository.OrderPriority:
			if a.Priority.Weight() != b.Priority.Weight() {
				return a.Priority.Weight() > b.Priority.Weight()
			}
			return a.ScheduledAt.Before(b.ScheduledAt)
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})

	page, pageSize := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	total := len(items)
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	return &repository.ListResult{
		Items:      items[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// ListCandidateTechnicians mirrors the SQL candidate query.
func (m *Memory) ListCandidateTechnicians(_ context.Context, skillIDs []uuid.UUID, workAreaID uuid.UUID) ([]assignment.TechnicianProfile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []assignment.TechnicianProfile
	for _, tech := range m.technicians {
		p := m.visibleProfile(tech)
		if !p.Active || !slices.Contains(p.WorkAreaIDs, workAreaID) {
			continue
		}
		if assignment.SkillMatch(p.SkillIDs, skillIDs) == 0 {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// GetTechnicianProfile returns one technician with active skills only.
func (m *Memory) GetTechnicianProfile(_ context.Context, id uuid.UUID) (*assignment.TechnicianProfile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, tech := range m.technicians {
		if tech.ID == id {
			p := m.visibleProfile(tech)
			return &p, nil
		}
	}
	return nil, apperr.NotFound("technician not found").WithCode("TECHNICIAN_NOT_FOUND")
}

// SetTechnicianActive toggles a technician.
func (m *Memory) SetTechnicianActive(id uuid.UUID, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.technicians {
		if m.technicians[i].ID == id {
			m.technicians[i].Active = active
		}
	}
}

func (m *Memory) visibleProfile(tech assignment.TechnicianProfile) assignment.TechnicianProfile {
	p := tech
	p.SkillIDs = nil
	for _, id := range tech.SkillIDs {
		if s, ok := m.skills[id]; ok && s.Active {
			p.SkillIDs = append(p.SkillIDs, id)
		}
	}
	return p
}

// LatestWorkingHours returns the governing record, or nil.
func (m *Memory) LatestWorkingHours(_ context.Context, technicianID uuid.UUID, dayOfWeek int, date time.Time) (*domain.WorkingHours, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *domain.WorkingHours
	for i := range m.hours {
		wh := m.hours[i]
		if wh.TechnicianID != technicianID || wh.DayOfWeek != dayOfWeek || wh.EffectiveDate.After(date) {
			continue
		}
		if best == nil || !wh.EffectiveDate.Before(best.EffectiveDate) {
			best = &wh
		}
	}
	return best, nil
}

// CountAppointments mirrors the SQL count.
func (m *Memory) CountAppointments(_ context.Context, q assignment.CountQuery) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, appt := range m.appointments {
		if !appt.AssignedTo(q.TechnicianID) {
			continue
		}
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, appt.Status) {
			continue
		}
		if q.After != nil && !appt.ScheduledAt.After(*q.After) {
			continue
		}
		if q.Before != nil && !appt.ScheduledAt.Before(*q.Before) {
			continue
		}
		if q.From != nil && appt.ScheduledAt.Before(*q.From) {
			continue
		}
		if q.ExcludeID != nil && appt.ID == *q.ExcludeID {
			continue
		}
		n++
	}
	return n, nil
}

// FindWorkAreaByZip returns the first active area serving zip.
func (m *Memory) FindWorkAreaByZip(_ context.Context, zip string) (*domain.WorkArea, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, area := range m.workAreas {
		if area.Active && area.Serves(zip) {
			a := area
			return &a, nil
		}
	}
	return nil, nil
}

// ListActiveSkillIDs returns active skills in category ordered by name.
func (m *Memory) ListActiveSkillIDs(_ context.Context, category string) ([]uuid.UUID, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var skills []domain.Skill
	for _, s := range m.skills {
		if s.Active && s.Category == category {
			skills = append(skills, s)
		}
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	ids := make([]uuid.UUID, len(skills))
	for i, s := range skills {
		ids[i] = s.ID
	}
	return ids, nil
}

// GetCustomer returns customer contact data.
func (m *Memory) GetCustomer(_ context.Context, id uuid.UUID) (*domain.Person, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.customers[id]
	if !ok {
		return nil, apperr.NotFound("customer not found")
	}
	return &p, nil
}

// GetTechnician returns technician contact data.
func (m *Memory) GetTechnician(_ context.Context, id uuid.UUID) (*domain.Person, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.technicians {
		if t.ID == id {
			return &domain.Person{ID: t.ID, FirstName: t.FirstName, LastName: t.LastName, Email: t.Email, Phone: t.Phone}, nil
		}
	}
	return nil, apperr.NotFound("technician not found")
}

var _ assignment.Repository = (*Memory)(nil)
