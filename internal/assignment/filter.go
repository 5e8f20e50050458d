package assignment

import (
	"context"
	"fmt"
	"slices"
	"time"

	"fieldservice_backend/internal/appointments/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Filter returns the technicians allowed to take an appointment.
type Filter struct {
	repo        Repository
	loc         *time.Location
	concurrency int
}

// NewFilter creates a filter evaluating schedules in loc.
func NewFilter(repo Repository, loc *time.Location, concurrency int) *Filter {
	if loc == nil {
		loc = time.UTC
	}
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	return &Filter{repo: repo, loc: loc, concurrency: concurrency}
}

// Eligible returns technicians that are active, share a required skill, serve
// the work area, work at the scheduled time and have no conflicting
// appointment. Order follows the repository. An empty result is not an error.
func (f *Filter) Eligible(ctx context.Context, appt *domain.Appointment) ([]TechnicianProfile, error) {
	techs, err := f.repo.ListCandidateTechnicians(ctx, appt.RequiredSkillIDs, appt.WorkAreaID)
	if err != nil {
		return nil, fmt.Errorf("list candidate technicians: %w", err)
	}

	ok := make([]bool, len(techs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i := range techs {
		i := i
		tech := techs[i]
		if qualifies(tech, appt) != "" {
			continue
		}
		g.Go(func() error {
			free, err := f.scheduleAllows(gctx, tech.ID, appt)
			if err != nil {
				return err
			}
			ok[i] = free
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	eligible := make([]TechnicianProfile, 0, len(techs))
	for i, tech := range techs {
		if ok[i] {
			eligible = append(eligible, tech)
		}
	}
	return eligible, nil
}

// Recheck verifies at accept time that tech still qualifies for appt. The
// schedule part is only evaluated when withSchedule is set.
func (f *Filter) Recheck(ctx context.Context, appt *domain.Appointment, tech TechnicianProfile, withSchedule bool) error {
	if reason := qualifies(tech, appt); reason != "" {
		return domain.ErrStaleEligibility(reason)
	}
	if !withSchedule {
		return nil
	}
	free, err := f.scheduleAllows(ctx, tech.ID, appt)
	if err != nil {
		return err
	}
	if !free {
		return domain.ErrStaleEligibility("schedule no longer available")
	}
	return nil
}

// qualifies returns an empty string when tech passes the static checks.
func qualifies(tech TechnicianProfile, appt *domain.Appointment) string {
	switch {
	case !tech.Active:
		return "technician inactive"
	case SkillMatch(tech.SkillIDs, appt.RequiredSkillIDs) == 0:
		return "insufficient skills"
	case !slices.Contains(tech.WorkAreaIDs, appt.WorkAreaID):
		return "outside work area"
	}
	return ""
}

func (f *Filter) scheduleAllows(ctx context.Context, techID uuid.UUID, appt *domain.Appointment) (bool, error) {
	slot := domain.SlotIn(appt.ScheduledAt, f.loc)

	hours, err := f.repo.LatestWorkingHours(ctx, techID, slot.DayOfWeek, slot.Date)
	if err != nil {
		return false, fmt.Errorf("working hours for %s: %w", techID, err)
	}
	if hours == nil || !hours.Covers(slot.MinuteOfDay) {
		return false, nil
	}

	after := appt.ScheduledAt.Add(-appt.Duration())
	before := appt.ScheduledAt.Add(appt.Duration())
	apptID := appt.ID
	conflicts, err := f.repo.CountAppointments(ctx, CountQuery{
		TechnicianID: techID,
		Statuses:     domain.ActiveStatuses,
		After:        &after,
		Before:       &before,
		ExcludeID:    &apptID,
	})
	if err != nil {
		return false, fmt.Errorf("count conflicts for %s: %w", techID, err)
	}
	return conflicts == 0, nil
}

// SkillMatch counts how many of required the technician holds.
func SkillMatch(techSkills, required []uuid.UUID) int {
	n := 0
	for _, id := range required {
		if slices.Contains(techSkills, id) {
			n++
		}
	}
	return n
}
