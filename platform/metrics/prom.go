// Package metrics exposes Prometheus collectors for the assignment engine.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records assignment engine events in Prometheus metrics.
type Recorder struct {
	outcomes      *prometheus.CounterVec
	candidates    prometheus.Histogram
	duration      prometheus.Histogram
	notifications *prometheus.CounterVec
	taskFailures  *prometheus.CounterVec
}

// NewRecorder registers the collectors on reg. If reg is nil, the default
// registerer is used. Already registered collectors are reused.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_assignment_outcomes_total",
		Help: "Assignment attempts by outcome",
	}, []string{"outcome"})
	candidates := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fsm_assignment_candidates",
		Help:    "Number of eligible technicians found per assignment attempt",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fsm_assignment_duration_seconds",
		Help:    "Time spent filtering and ranking technicians",
		Buckets: prometheus.DefBuckets,
	})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_notifications_total",
		Help: "Notification deliveries by channel and result",
	}, []string{"channel", "result"})
	taskFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_task_failures_total",
		Help: "Queue task failures by task type and whether retries are exhausted",
	}, []string{"task_type", "exhausted"})

	var err error
	if outcomes, err = register(reg, outcomes); err != nil {
		return nil, err
	}
	if candidates, err = register(reg, candidates); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if notifications, err = register(reg, notifications); err != nil {
		return nil, err
	}
	if taskFailures, err = register(reg, taskFailures); err != nil {
		return nil, err
	}

	return &Recorder{
		outcomes:      outcomes,
		candidates:    candidates,
		duration:      duration,
		notifications: notifications,
		taskFailures:  taskFailures,
	}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// AssignmentOutcome counts one processed assignment attempt.
func (r *Recorder) AssignmentOutcome(outcome string) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(outcome).Inc()
}

// AssignmentSearch records candidate count and matching latency.
func (r *Recorder) AssignmentSearch(candidates int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.candidates.Observe(float64(candidates))
	r.duration.Observe(elapsed.Seconds())
}

// Notification counts one delivery attempt.
func (r *Recorder) Notification(channel string, err error) {
	if r == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	r.notifications.WithLabelValues(channel, result).Inc()
}

// TaskFailure counts one failed task execution.
func (r *Recorder) TaskFailure(taskType string, exhausted bool) {
	if r == nil {
		return
	}
	label := "false"
	if exhausted {
		label = "true"
	}
	r.taskFailures.WithLabelValues(taskType, label).Inc()
}
