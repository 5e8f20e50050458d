package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/internal/catalog/repository"
	"fieldservice_backend/internal/catalog/repository/repositorytest"
	"fieldservice_backend/internal/catalog/transport"
	"fieldservice_backend/platform/apperr"
	"fieldservice_backend/platform/logger"
)

func newTestService(repo repository.Repository) *Service {
	svc := New(repo, time.UTC, logger.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC) }
	return svc
}

func intPtr(v int) *int { return &v }

func mustCreateSkill(t *testing.T, repo repository.Repository, name, category string) domain.Skill {
	t.Helper()
	s, err := repo.CreateSkill(context.Background(), repository.CreateSkillParams{Name: name, Category: category})
	require.NoError(t, err)
	return s
}

func TestListSkillsFiltersByCategory(t *testing.T) {
	repo := repositorytest.NewMemory()
	svc := newTestService(repo)
	ctx := context.Background()
	mustCreateSkill(t, repo, "Pipe repair", "plumbing")
	mustCreateSkill(t, repo, "Wiring", "electrical")
	drain := mustCreateSkill(t, repo, "Drain jetting", "plumbing")
	_, err := repo.SetSkillActive(ctx, drain.ID, false)
	require.NoError(t, err)

	result, err := svc.ListSkills(ctx, transport.ListSkillsRequest{Category: "plumbing"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Pipe repair", result[0].Name)

	result, err = svc.ListSkills(ctx, transport.ListSkillsRequest{Category: "plumbing", IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Drain jetting", result[0].Name)
}

func TestGetSkillByIDNotFound(t *testing.T) {
	svc := newTestService(repositorytest.NewMemory())

	_, err := svc.GetSkillByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, repository.CodeSkillNotFound, apperr.GetCode(err))
}

func TestCreateSkillTrimsInput(t *testing.T) {
	svc := newTestService(repositorytest.NewMemory())
	blank := "   "

	result, err := svc.CreateSkill(context.Background(), transport.CreateSkillRequest{
		Name:        "  Panel upgrade ",
		Category:    "electrical",
		Description: &blank,
	})
	require.NoError(t, err)
	assert.Equal(t, "Panel upgrade", result.Name)
	assert.Nil(t, result.Description)
	assert.True(t, result.Active)
}

func TestSetSkillActive(t *testing.T) {
	repo := repositorytest.NewMemory()
	svc := newTestService(repo)
	skill := mustCreateSkill(t, repo, "Wiring", "electrical")
	inactive := false

	result, err := svc.SetSkillActive(context.Background(), skill.ID, transport.UpdateSkillStatusRequest{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, result.Active)

	stored, err := repo.GetSkillByID(context.Background(), skill.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestCreateWorkAreaDedupesZipCodes(t *testing.T) {
	svc := newTestService(repositorytest.NewMemory())

	result, err := svc.CreateWorkArea(context.Background(), transport.CreateWorkAreaRequest{
		Name:     "Downtown",
		City:     "Springfield",
		State:    "IL",
		ZipCodes: []string{"62701", " 62702", "62701"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"62701", "62702"}, result.ZipCodes)
}

func TestCreateWorkingHoursDefaultsEffectiveDate(t *testing.T) {
	repo := repositorytest.NewMemory()
	svc := newTestService(repo)
	techID := uuid.New()

	result, err := svc.CreateWorkingHours(context.Background(), techID, transport.CreateWorkingHoursRequest{
		DayOfWeek: intPtr(1),
		StartTime: "08:00",
		EndTime:   "17:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04", result.EffectiveDate)
	assert.True(t, result.IsAvailable)

	listed, err := svc.ListWorkingHours(context.Background(), techID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, result.ID, listed[0].ID)

	other, err := svc.ListWorkingHours(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCreateWorkingHoursRejectsInvertedRange(t *testing.T) {
	repo := repositorytest.NewMemory()
	svc := newTestService(repo)
	techID := uuid.New()

	_, err := svc.CreateWorkingHours(context.Background(), techID, transport.CreateWorkingHoursRequest{
		DayOfWeek: intPtr(2),
		StartTime: "17:00",
		EndTime:   "08:00",
	})
	require.Error(t, err)
	assert.Equal(t, domain.CodeInvalidWorkingHours, apperr.GetCode(err))

	listed, err := repo.ListWorkingHours(context.Background(), techID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCreateWorkingHoursExplicitDate(t *testing.T) {
	svc := newTestService(repositorytest.NewMemory())
	unavailable := false

	result, err := svc.CreateWorkingHours(context.Background(), uuid.New(), transport.CreateWorkingHoursRequest{
		DayOfWeek:     intPtr(6),
		StartTime:     "09:00",
		EndTime:       "12:00",
		IsAvailable:   &unavailable,
		EffectiveDate: "2026-04-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-04-01", result.EffectiveDate)
	assert.False(t, result.IsAvailable)
}
