package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/redisx"

	"github.com/hibiken/asynq"
)

// Client enqueues assignment and notification tasks.
type Client struct {
	client      *asynq.Client
	queue       string
	maxAttempts int
}

// AssignmentScheduler is what request handlers need to start or re-trigger
// assignment.
type AssignmentScheduler interface {
	EnqueueAssignment(ctx context.Context, payload AssignmentPayload, delay time.Duration) error
}

// Enqueuer is the full producer side used by the processor.
type Enqueuer interface {
	AssignmentScheduler
	EnqueueNotification(ctx context.Context, payload NotificationPayload) error
}

// ClientConfig combines the settings the client reads.
type ClientConfig interface {
	config.SchedulerConfig
	GetAssignmentMaxAttempts() int
}

func NewClient(cfg ClientConfig) (*Client, error) {
	opt, err := redisx.AsynqOpt(cfg)
	if err != nil {
		return nil, err
	}
	return NewClientWithOpt(opt, cfg.GetAsynqQueueName(), cfg.GetAssignmentMaxAttempts()), nil
}

// NewClientWithOpt builds a client from explicit connection options.
func NewClientWithOpt(opt asynq.RedisConnOpt, queue string, maxAttempts int) *Client {
	if queue == "" {
		queue = "default"
	}
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &Client{
		client:      asynq.NewClient(opt),
		queue:       queue,
		maxAttempts: maxAttempts,
	}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueAssignment schedules an assignment attempt after delay. Reschedules
// produced by a queued attempt (payload.Parent set) carry a task ID derived
// from that attempt; a duplicate is treated as already enqueued.
func (c *Client) EnqueueAssignment(ctx context.Context, payload AssignmentPayload, delay time.Duration) error {
	task, err := NewAssignmentTask(payload)
	if err != nil {
		return err
	}

	opts := []asynq.Option{
		asynq.Queue(c.queue),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(c.maxAttempts - 1),
	}
	if payload.Parent != "" {
		opts = append(opts, asynq.TaskID(rescheduleTaskID(payload)))
	}

	if _, err := c.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue assignment for %s: %w", payload.AppointmentID, err)
	}
	return nil
}

// EnqueueNotification schedules the assignment notification right away.
func (c *Client) EnqueueNotification(ctx context.Context, payload NotificationPayload) error {
	task, err := NewNotificationTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(c.maxAttempts-1),
		asynq.TaskID(notificationTaskID(payload)),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue notification for %s: %w", payload.AppointmentID, err)
	}
	return nil
}

var _ Enqueuer = (*Client)(nil)
