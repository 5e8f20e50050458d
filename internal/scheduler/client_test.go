package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQueue = "assignments"

func newRedisClient(t *testing.T) (*Client, *asynq.Inspector) {
	t.Helper()
	srv := miniredis.RunT(t)
	opt := asynq.RedisClientOpt{Addr: srv.Addr()}

	client := NewClientWithOpt(opt, testQueue, 3)
	inspector := asynq.NewInspector(opt)
	t.Cleanup(func() {
		_ = client.Close()
		_ = inspector.Close()
	})
	return client, inspector
}

func scheduledCount(t *testing.T, inspector *asynq.Inspector) int {
	t.Helper()
	tasks, err := inspector.ListScheduledTasks(testQueue)
	require.NoError(t, err)
	return len(tasks)
}

func TestEnqueueRescheduleDedupesRedeliveredAttempt(t *testing.T) {
	client, inspector := newRedisClient(t)
	ctx := context.Background()

	next := AssignmentPayload{AppointmentID: uuid.NewString(), Reschedule: 1, Parent: "attempt-1"}
	require.NoError(t, client.EnqueueAssignment(ctx, next, 30*time.Minute))
	require.NoError(t, client.EnqueueAssignment(ctx, next, 30*time.Minute))

	assert.Equal(t, 1, scheduledCount(t, inspector))
}

func TestEnqueueRescheduleAfterArchivedChain(t *testing.T) {
	client, inspector := newRedisClient(t)
	ctx := context.Background()
	apptID := uuid.NewString()

	// A reschedule from an earlier chain exhausted its retries and was archived.
	old := AssignmentPayload{AppointmentID: apptID, Reschedule: 1, Parent: "attempt-old"}
	require.NoError(t, client.EnqueueAssignment(ctx, old, 30*time.Minute))
	require.NoError(t, inspector.ArchiveTask(testQueue, rescheduleTaskID(old)))
	require.Equal(t, 0, scheduledCount(t, inspector))

	// A requeued chain reaching the same reschedule count must still be scheduled.
	fresh := AssignmentPayload{AppointmentID: apptID, Reschedule: 1, Parent: "attempt-new"}
	require.NoError(t, client.EnqueueAssignment(ctx, fresh, 30*time.Minute))

	tasks, err := inspector.ListScheduledTasks(testQueue)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, rescheduleTaskID(fresh), tasks[0].ID)
}

func TestEnqueueInitialAssignmentHasNoFixedID(t *testing.T) {
	client, inspector := newRedisClient(t)
	ctx := context.Background()

	first := AssignmentPayload{AppointmentID: uuid.NewString()}
	require.NoError(t, client.EnqueueAssignment(ctx, first, 5*time.Second))
	require.NoError(t, client.EnqueueAssignment(ctx, first, 5*time.Second))

	assert.Equal(t, 2, scheduledCount(t, inspector))
}
