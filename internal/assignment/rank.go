package assignment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fieldservice_backend/internal/appointments/domain"

	"golang.org/x/sync/errgroup"
)

// Rank orders candidates by skill match (desc), then workload (asc), keeping
// the input order for ties. The input slice is not modified.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].SkillMatch != ranked[j].SkillMatch {
			return ranked[i].SkillMatch > ranked[j].SkillMatch
		}
		return ranked[i].Workload < ranked[j].Workload
	})
	return ranked
}

// Matcher runs the filter, annotates each technician and ranks them.
type Matcher struct {
	filter *Filter
	repo   Repository
}

// NewMatcher creates a matcher over repo.
func NewMatcher(repo Repository, loc *time.Location, concurrency int) *Matcher {
	return &Matcher{filter: NewFilter(repo, loc, concurrency), repo: repo}
}

// Match returns ranked candidates for appt; the first one is the pick.
func (m *Matcher) Match(ctx context.Context, appt *domain.Appointment) ([]Candidate, error) {
	eligible, err := m.filter.Eligible(ctx, appt)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	candidates := make([]Candidate, len(eligible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.filter.concurrency)

	for i := range eligible {
		i := i
		tech := eligible[i]
		g.Go(func() error {
			from := appt.ScheduledAt
			apptID := appt.ID
			workload, err := m.repo.CountAppointments(gctx, CountQuery{
				TechnicianID: tech.ID,
				Statuses:     domain.ActiveStatuses,
				From:         &from,
				ExcludeID:    &apptID,
			})
			if err != nil {
				return fmt.Errorf("count workload for %s: %w", tech.ID, err)
			}
			candidates[i] = Candidate{
				Technician: tech,
				SkillMatch: SkillMatch(tech.SkillIDs, appt.RequiredSkillIDs),
				Workload:   workload,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Rank(candidates), nil
}
