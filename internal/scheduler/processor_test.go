package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/internal/appointments/repository/repositorytest"
	"fieldservice_backend/internal/assignment"
	"fieldservice_backend/platform/apperr"
	"fieldservice_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enqueued struct {
	payload AssignmentPayload
	delay   time.Duration
}

type fakeQueue struct {
	mu            sync.Mutex
	assignments   []enqueued
	notifications []NotificationPayload
	assignErr     error
	notifyErr     error
}

func (q *fakeQueue) EnqueueAssignment(_ context.Context, payload AssignmentPayload, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.assignErr != nil {
		return q.assignErr
	}
	q.assignments = append(q.assignments, enqueued{payload: payload, delay: delay})
	return nil
}

func (q *fakeQueue) EnqueueNotification(_ context.Context, payload NotificationPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.notifyErr != nil {
		return q.notifyErr
	}
	q.notifications = append(q.notifications, payload)
	return nil
}

type fakeMetrics struct {
	outcomes []string
	failures []string
}

func (m *fakeMetrics) AssignmentOutcome(o string)          { m.outcomes = append(m.outcomes, o) }
func (m *fakeMetrics) AssignmentSearch(int, time.Duration) {}
func (m *fakeMetrics) TaskFailure(taskType string, _ bool) { m.failures = append(m.failures, taskType) }

// Monday 2026-03-16 10:00 UTC.
var slot = time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)

type harness struct {
	store     *repositorytest.Memory
	queue     *fakeQueue
	metrics   *fakeMetrics
	processor *AssignmentProcessor
	area      uuid.UUID
	skill     uuid.UUID
}

func newHarness() *harness {
	h := &harness{
		store:   repositorytest.NewMemory(),
		queue:   &fakeQueue{},
		metrics: &fakeMetrics{},
		area:    uuid.New(),
		skill:   uuid.New(),
	}
	h.store.AddSkill(domain.Skill{ID: h.skill, Name: "Basic Plumbing", Category: "plumbing", Active: true})
	matcher := assignment.NewMatcher(h.store, time.UTC, 2)
	h.processor = NewAssignmentProcessor(h.store, matcher, h.queue, h.metrics, logger.Nop(), 30*time.Minute)
	return h
}

func (h *harness) technician() uuid.UUID {
	id := uuid.New()
	h.store.AddTechnician(assignment.TechnicianProfile{
		ID: id, Active: true, SkillIDs: []uuid.UUID{h.skill}, WorkAreaIDs: []uuid.UUID{h.area},
	})
	h.store.AddWorkingHours(domain.WorkingHours{
		ID: uuid.New(), TechnicianID: id, DayOfWeek: int(time.Monday),
		StartTime: "08:00", EndTime: "17:00", IsAvailable: true,
		EffectiveDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	return id
}

func (h *harness) pending() domain.Appointment {
	appt := domain.Appointment{
		ID: uuid.New(), CustomerID: uuid.New(), WorkAreaID: h.area, RequiredSkillIDs: []uuid.UUID{h.skill},
		ScheduledAt: slot, EstimatedDuration: 120, Status: domain.StatusPending, Priority: domain.PriorityMedium,
	}
	h.store.PutAppointment(appt)
	return appt
}

func payloadFor(appt domain.Appointment) AssignmentPayload {
	return AssignmentPayload{AppointmentID: appt.ID.String()}
}

func TestProcessAssignsBestCandidate(t *testing.T) {
	h := newHarness()
	tech := h.technician()
	appt := h.pending()

	outcome, err := h.processor.Process(context.Background(), payloadFor(appt), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, outcome)

	stored, err := h.store.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, stored.Status)
	require.NotNil(t, stored.TechnicianID)
	assert.Equal(t, tech, *stored.TechnicianID)
	assert.NotNil(t, stored.AssignedAt)

	require.Len(t, h.queue.notifications, 1)
	assert.Equal(t, NotificationPayload{
		AppointmentID: appt.ID.String(),
		TechnicianID:  tech.String(),
		CustomerID:    appt.CustomerID.String(),
	}, h.queue.notifications[0])
	assert.Empty(t, h.queue.assignments)
	assert.Equal(t, []string{"assigned"}, h.metrics.outcomes)
}

func TestProcessWithoutCandidatesReschedulesOnce(t *testing.T) {
	h := newHarness()
	appt := h.pending()

	outcome, err := h.processor.Process(context.Background(), payloadFor(appt), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRescheduled, outcome)

	stored, err := h.store.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt, *stored, "appointment must not be mutated")

	require.Len(t, h.queue.assignments, 1)
	assert.Equal(t, 30*time.Minute, h.queue.assignments[0].delay)
	assert.Equal(t, appt.ID.String(), h.queue.assignments[0].payload.AppointmentID)
	assert.Equal(t, 1, h.queue.assignments[0].payload.Reschedule)
	assert.Empty(t, h.queue.notifications)
}

func TestRescheduleCarriesRunningTaskAsParent(t *testing.T) {
	h := newHarness()
	appt := h.pending()

	payload := payloadFor(appt)
	payload.Reschedule = 4
	payload.TaskID = "assign-next:task-7"
	_, err := h.processor.Process(context.Background(), payload, appt.ID)
	require.NoError(t, err)

	require.Len(t, h.queue.assignments, 1)
	next := h.queue.assignments[0].payload
	assert.Equal(t, 5, next.Reschedule)
	assert.Equal(t, "assign-next:task-7", next.Parent)
	assert.Len(t, rescheduleTaskID(next), len(rescheduleTaskID(AssignmentPayload{Parent: "x"})))
}

func TestRescheduleTaskIDDependsOnParentOnly(t *testing.T) {
	a := AssignmentPayload{AppointmentID: "a", Reschedule: 1, Parent: "t-1"}
	b := AssignmentPayload{AppointmentID: "a", Reschedule: 1, Parent: "t-9"}
	assert.Equal(t, rescheduleTaskID(a), rescheduleTaskID(a))
	assert.NotEqual(t, rescheduleTaskID(a), rescheduleTaskID(b))
}

func TestProcessRedeliveryIsNoop(t *testing.T) {
	h := newHarness()
	h.technician()
	appt := h.pending()

	_, err := h.processor.Process(context.Background(), payloadFor(appt), appt.ID)
	require.NoError(t, err)
	after, err := h.store.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)

	outcome, err := h.processor.Process(context.Background(), payloadFor(appt), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuperseded, outcome)

	again, err := h.store.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, after, again)
	assert.Len(t, h.queue.notifications, 1, "no duplicate notification")
}

func TestProcessMissingAppointmentIsNotFound(t *testing.T) {
	h := newHarness()
	id := uuid.New()

	_, err := h.processor.Process(context.Background(), AssignmentPayload{AppointmentID: id.String()}, id)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestProcessNotificationFailureKeepsAssignment(t *testing.T) {
	h := newHarness()
	h.technician()
	appt := h.pending()
	h.queue.notifyErr = errors.New("redis unavailable")

	outcome, err := h.processor.Process(context.Background(), payloadFor(appt), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, outcome)

	stored, err := h.store.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, stored.Status)
}

func TestProcessRepositoryFailureIsRetryable(t *testing.T) {
	h := newHarness()
	appt := h.pending()
	h.store.Err = errors.New("connection refused")

	_, err := h.processor.Process(context.Background(), payloadFor(appt), appt.ID)
	require.Error(t, err)
	assert.False(t, apperr.Is(err, apperr.KindNotFound))
}

func TestProcessRescheduleFailureIsRetryable(t *testing.T) {
	h := newHarness()
	appt := h.pending()
	h.queue.assignErr = errors.New("redis unavailable")

	_, err := h.processor.Process(context.Background(), payloadFor(appt), appt.ID)
	require.Error(t, err)
}

// lostRace flips the appointment to assigned between read and write.
type lostRace struct {
	*repositorytest.Memory
	winner uuid.UUID
}

func (s lostRace) ApplyTransition(ctx context.Context, t domain.Transition) (bool, error) {
	if _, err := s.Memory.ApplyTransition(ctx, domain.Transition{
		AppointmentID: t.AppointmentID, From: domain.StatusPending, To: domain.StatusAssigned,
		TechnicianID: &s.winner, At: t.At,
	}); err != nil {
		return false, err
	}
	return s.Memory.ApplyTransition(ctx, t)
}

func TestProcessConcurrentAssignmentIsSuperseded(t *testing.T) {
	h := newHarness()
	h.technician()
	appt := h.pending()
	winner := uuid.New()

	store := lostRace{Memory: h.store, winner: winner}
	p := NewAssignmentProcessor(store, assignment.NewMatcher(h.store, time.UTC, 1), h.queue, nil, logger.Nop(), time.Minute)

	outcome, err := p.Process(context.Background(), payloadFor(appt), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuperseded, outcome)
	assert.Empty(t, h.queue.notifications)

	stored, err := h.store.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, winner, *stored.TechnicianID)
}

func TestHandleAssignmentDropsMissingAppointment(t *testing.T) {
	h := newHarness()
	w := &Worker{processor: h.processor, log: logger.Nop()}

	task, err := NewAssignmentTask(AssignmentPayload{AppointmentID: uuid.NewString()})
	require.NoError(t, err)

	err = w.handleAssignment(context.Background(), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleAssignmentRejectsMalformedPayload(t *testing.T) {
	w := &Worker{processor: newHarness().processor, log: logger.Nop()}

	err := w.handleAssignment(context.Background(), asynq.NewTask(TaskAssignAppointment, []byte(`{"appointmentId":"nope"}`)))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleAssignmentTransientErrorRetries(t *testing.T) {
	h := newHarness()
	appt := h.pending()
	h.store.Err = errors.New("timeout")
	w := &Worker{processor: h.processor, log: logger.Nop()}

	task, err := NewAssignmentTask(payloadFor(appt))
	require.NoError(t, err)

	err = w.handleAssignment(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

type failingNotifier struct{ calls int }

func (n *failingNotifier) Notify(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error {
	n.calls++
	return errors.New("smtp down")
}

func TestHandleNotificationSwallowsErrors(t *testing.T) {
	n := &failingNotifier{}
	w := &Worker{notifier: n, log: logger.Nop()}

	task, err := NewNotificationTask(NotificationPayload{
		AppointmentID: uuid.NewString(), TechnicianID: uuid.NewString(), CustomerID: uuid.NewString(),
	})
	require.NoError(t, err)

	require.NoError(t, w.handleNotification(context.Background(), task))
	assert.Equal(t, 1, n.calls)
}

func TestHandleErrorCountsFailures(t *testing.T) {
	m := &fakeMetrics{}
	w := &Worker{failures: m, log: logger.Nop()}

	w.handleError(context.Background(), asynq.NewTask(TaskAssignAppointment, nil), errors.New("boom"))
	assert.Equal(t, []string{TaskAssignAppointment}, m.failures)
}

func TestExponentialBackoff(t *testing.T) {
	backoff := ExponentialBackoff(2 * time.Second)
	assert.Equal(t, 2*time.Second, backoff(0, nil, nil))
	assert.Equal(t, 4*time.Second, backoff(1, nil, nil))
	assert.Equal(t, 8*time.Second, backoff(2, nil, nil))
}
