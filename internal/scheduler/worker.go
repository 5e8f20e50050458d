package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldservice_backend/platform/apperr"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"
	"fieldservice_backend/platform/redisx"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Notifier delivers the assignment notification.
type Notifier interface {
	Notify(ctx context.Context, appointmentID, technicianID, customerID uuid.UUID) error
}

// FailureMetrics counts failed task executions.
type FailureMetrics interface {
	TaskFailure(taskType string, exhausted bool)
}

// WorkerConfig combines the settings the worker reads.
type WorkerConfig interface {
	config.SchedulerConfig
	GetAssignmentBackoffBase() time.Duration
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor *AssignmentProcessor
	notifier  Notifier
	failures  FailureMetrics
	log       *logger.Logger
}

func NewWorker(cfg WorkerConfig, processor *AssignmentProcessor, notifier Notifier, failures FailureMetrics, log *logger.Logger) (*Worker, error) {
	opt, err := redisx.AsynqOpt(cfg)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	w := &Worker{
		mux:       asynq.NewServeMux(),
		processor: processor,
		notifier:  notifier,
		failures:  failures,
		log:       log,
	}

	w.server = asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
		RetryDelayFunc: ExponentialBackoff(cfg.GetAssignmentBackoffBase()),
		ErrorHandler:   asynq.ErrorHandlerFunc(w.handleError),
		Logger:         asynqLogger{log: log},
	})

	w.mux.HandleFunc(TaskAssignAppointment, w.handleAssignment)
	w.mux.HandleFunc(TaskSendAssignmentNotification, w.handleNotification)

	return w, nil
}

// ExponentialBackoff waits base·2^n before retry n+1 (2s, 4s, ... for base 2s).
func ExponentialBackoff(base time.Duration) asynq.RetryDelayFunc {
	if base <= 0 {
		base = 2 * time.Second
	}
	return func(n int, _ error, _ *asynq.Task) time.Duration {
		if n < 0 {
			n = 0
		}
		if n > 20 {
			n = 20
		}
		return base << n
	}
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("assignment worker stopped", "error", err)
	}
}

// Handler exposes the task mux, mainly for tests.
func (w *Worker) Handler() asynq.Handler {
	return w.mux
}

func (w *Worker) handleAssignment(ctx context.Context, task *asynq.Task) error {
	ctx = withTaskID(ctx)

	payload, apptID, err := ParseAssignmentPayload(task)
	if err != nil {
		return fmt.Errorf("malformed assignment payload: %v: %w", err, asynq.SkipRetry)
	}
	payload.TaskID, _ = asynq.GetTaskID(ctx)

	outcome, err := w.processor.Process(ctx, payload, apptID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			w.log.WithContext(ctx).Warn("assignment dropped, appointment not found", "appointment_id", apptID.String())
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	w.log.WithContext(ctx).JobEvent(task.Type(), "processed",
		"appointment_id", apptID.String(),
		"outcome", string(outcome),
	)
	return nil
}

// handleNotification never fails the task: delivery problems are logged.
func (w *Worker) handleNotification(ctx context.Context, task *asynq.Task) error {
	ctx = withTaskID(ctx)
	log := w.log.WithContext(ctx)

	payload, err := ParseNotificationPayload(task)
	if err != nil {
		log.Error("malformed notification payload", "error", err)
		return nil
	}

	apptID, err1 := uuid.Parse(payload.AppointmentID)
	techID, err2 := uuid.Parse(payload.TechnicianID)
	custID, err3 := uuid.Parse(payload.CustomerID)
	if err := errors.Join(err1, err2, err3); err != nil {
		log.Error("invalid notification payload", "error", err)
		return nil
	}

	if w.notifier == nil {
		return nil
	}
	if err := w.notifier.Notify(ctx, apptID, techID, custID); err != nil {
		log.Error("assignment notification failed", "appointment_id", payload.AppointmentID, "error", err)
	}
	return nil
}

func (w *Worker) handleError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	exhausted := retried >= maxRetry || errors.Is(err, asynq.SkipRetry)

	log := w.log.WithContext(withTaskID(ctx))
	if exhausted {
		log.Error("task failed permanently",
			"task_type", task.Type(),
			"attempts", retried+1,
			"error", err,
		)
	} else {
		log.Warn("task failed, will retry",
			"task_type", task.Type(),
			"attempt", retried+1,
			"max_attempts", maxRetry+1,
			"error", err,
		)
	}

	if w.failures != nil {
		w.failures.TaskFailure(task.Type(), exhausted)
	}
}

func withTaskID(ctx context.Context) context.Context {
	if id, ok := asynq.GetTaskID(ctx); ok {
		return context.WithValue(ctx, logger.TaskIDKey, id)
	}
	return ctx
}

// asynqLogger routes asynq's internal logs through the application logger.
type asynqLogger struct {
	log *logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
