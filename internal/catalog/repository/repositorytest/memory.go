// Package repositorytest provides an in-memory catalog store for tests.
package repositorytest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/internal/catalog/repository"
	"fieldservice_backend/platform/apperr"

	"github.com/google/uuid"
)

// Memory is an in-process catalog store for tests.
type Memory struct {
	mu     sync.RWMutex
	skills []domain.Skill
	areas  []domain.WorkArea
	hours  []domain.WorkingHours
}

// NewMemory creates an empty catalog store.
func NewMemory() *Memory {
	return &Memory{}
}

var _ repository.Repository = (*Memory)(nil)

func (m *Memory) ListSkills(_ context.Context, category string, includeInactive bool) ([]domain.Skill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Skill, 0, len(m.skills))
	for _, s := range m.skills {
		if category != "" && s.Category != category {
			continue
		}
		if !includeInactive && !s.Active {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) GetSkillByID(_ context.Context, id uuid.UUID) (domain.Skill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.skills {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Skill{}, apperr.NotFound("skill not found").WithCode(repository.CodeSkillNotFound)
}

func (m *Memory) CreateSkill(_ context.Context, params repository.CreateSkillParams) (domain.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.skills {
		if s.Name == params.Name {
			return domain.Skill{}, apperr.Conflict("a skill with this name already exists").WithCode(repository.CodeDuplicateName)
		}
	}
	s := domain.Skill{
		ID:          uuid.New(),
		Name:        params.Name,
		Category:    params.Category,
		Description: params.Description,
		Active:      true,
		CreatedAt:   time.Now(),
	}
	m.skills = append(m.skills, s)
	return s, nil
}

func (m *Memory) SetSkillActive(_ context.Context, id uuid.UUID, active bool) (domain.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.skills {
		if m.skills[i].ID == id {
			m.skills[i].Active = active
			return m.skills[i], nil
		}
	}
	return domain.Skill{}, apperr.NotFound("skill not found").WithCode(repository.CodeSkillNotFound)
}

func (m *Memory) ListWorkAreas(_ context.Context, includeInactive bool) ([]domain.WorkArea, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.WorkArea, 0, len(m.areas))
	for _, a := range m.areas {
		if includeInactive || a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) CreateWorkArea(_ context.Context, params repository.CreateWorkAreaParams) (domain.WorkArea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.areas {
		if a.Name == params.Name {
			return domain.WorkArea{}, apperr.Conflict("a work area with this name already exists").WithCode(repository.CodeDuplicateName)
		}
	}
	a := domain.WorkArea{
		ID:       uuid.New(),
		Name:     params.Name,
		City:     params.City,
		State:    params.State,
		ZipCodes: slices.Clone(params.ZipCodes),
		Active:   true,
	}
	m.areas = append(m.areas, a)
	return a, nil
}

func (m *Memory) ListWorkingHours(_ context.Context, technicianID uuid.UUID) ([]domain.WorkingHours, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.WorkingHours, 0)
	for _, wh := range m.hours {
		if wh.TechnicianID == technicianID {
			out = append(out, wh)
		}
	}
	return out, nil
}

func (m *Memory) CreateWorkingHours(_ context.Context, wh domain.WorkingHours) (domain.WorkingHours, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wh.CreatedAt = time.Now()
	m.hours = append(m.hours, wh)
	return wh, nil
}
