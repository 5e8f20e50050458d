package scheduler

import (
	"context"
	"fmt"
	"time"

	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/internal/assignment"
	"fieldservice_backend/platform/logger"

	"github.com/google/uuid"
)

// Outcome is the result of one successful assignment attempt.
type Outcome string

const (
	OutcomeAssigned    Outcome = "assigned"
	OutcomeSuperseded  Outcome = "superseded"
	OutcomeRescheduled Outcome = "rescheduled"
)

// AppointmentStore is the authoritative appointment state.
type AppointmentStore interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	ApplyTransition(ctx context.Context, t domain.Transition) (bool, error)
}

// Matcher ranks eligible technicians for an appointment.
type Matcher interface {
	Match(ctx context.Context, appt *domain.Appointment) ([]assignment.Candidate, error)
}

// Metrics receives assignment observations.
type Metrics interface {
	AssignmentOutcome(outcome string)
	AssignmentSearch(candidates int, elapsed time.Duration)
}

// AssignmentProcessor runs one assignment attempt per call. It keeps no
// state between calls; everything is re-read from the store.
type AssignmentProcessor struct {
	store           AppointmentStore
	matcher         Matcher
	queue           Enqueuer
	metrics         Metrics
	log             *logger.Logger
	noCandidateWait time.Duration
	now             func() time.Time
}

// NewAssignmentProcessor wires a processor. noCandidateWait is the fixed delay
// before retrying an appointment nobody can take.
func NewAssignmentProcessor(store AppointmentStore, matcher Matcher, queue Enqueuer, metrics Metrics, log *logger.Logger, noCandidateWait time.Duration) *AssignmentProcessor {
	if noCandidateWait <= 0 {
		noCandidateWait = 30 * time.Minute
	}
	return &AssignmentProcessor{
		store:           store,
		matcher:         matcher,
		queue:           queue,
		metrics:         metrics,
		log:             log,
		noCandidateWait: noCandidateWait,
		now:             time.Now,
	}
}

// Process runs one attempt. A NotFound error means the job should be
// dropped; any other error is transient and should be retried.
func (p *AssignmentProcessor) Process(ctx context.Context, payload AssignmentPayload, appointmentID uuid.UUID) (Outcome, error) {
	log := p.log.WithContext(ctx).With("appointment_id", appointmentID.String())

	appt, err := p.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return "", err
	}

	if appt.Status != domain.StatusPending {
		log.Info("assignment skipped, appointment no longer pending", "status", appt.Status)
		return p.record(OutcomeSuperseded), nil
	}

	started := time.Now()
	candidates, err := p.matcher.Match(ctx, appt)
	if err != nil {
		return "", fmt.Errorf("match technicians: %w", err)
	}
	if p.metrics != nil {
		p.metrics.AssignmentSearch(len(candidates), time.Since(started))
	}

	if len(candidates) == 0 {
		next := AssignmentPayload{
			AppointmentID: payload.AppointmentID,
			Reschedule:    payload.Reschedule + 1,
			Parent:        payload.TaskID,
		}
		if err := p.queue.EnqueueAssignment(ctx, next, p.noCandidateWait); err != nil {
			return "", fmt.Errorf("reschedule assignment: %w", err)
		}
		log.Info("no eligible technicians, assignment rescheduled",
			"delay", p.noCandidateWait.String(),
			"reschedule", next.Reschedule,
		)
		return p.record(OutcomeRescheduled), nil
	}

	best := candidates[0]
	transition, err := domain.Plan(appt, domain.Assigner{}, domain.Change{
		To:           domain.StatusAssigned,
		TechnicianID: best.Technician.ID,
	}, p.now())
	if err != nil {
		return "", err
	}

	applied, err := p.store.ApplyTransition(ctx, transition)
	if err != nil {
		return "", fmt.Errorf("assign technician: %w", err)
	}
	if !applied {
		log.Info("assignment superseded by concurrent update")
		return p.record(OutcomeSuperseded), nil
	}

	log.Info("appointment assigned",
		"technician_id", best.Technician.ID.String(),
		"skill_match", best.SkillMatch,
		"workload", best.Workload,
		"candidates", len(candidates),
	)

	notify := NotificationPayload{
		AppointmentID: appt.ID.String(),
		TechnicianID:  best.Technician.ID.String(),
		CustomerID:    appt.CustomerID.String(),
	}
	if err := p.queue.EnqueueNotification(ctx, notify); err != nil {
		log.Error("failed to enqueue assignment notification", "error", err)
	}

	return p.record(OutcomeAssigned), nil
}

func (p *AssignmentProcessor) record(o Outcome) Outcome {
	if p.metrics != nil {
		p.metrics.AssignmentOutcome(string(o))
	}
	return o
}
