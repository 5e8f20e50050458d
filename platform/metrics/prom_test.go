package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	require.NoError(t, err)

	rec.AssignmentOutcome("assigned")
	rec.AssignmentOutcome("assigned")
	rec.AssignmentOutcome("rescheduled")
	rec.AssignmentSearch(2, 15*time.Millisecond)
	rec.Notification("sms", nil)
	rec.Notification("email", errors.New("smtp down"))
	rec.TaskFailure("appointment:assign", true)

	require.Equal(t, 2.0, testutil.ToFloat64(rec.outcomes.WithLabelValues("assigned")))
	require.Equal(t, 1.0, testutil.ToFloat64(rec.outcomes.WithLabelValues("rescheduled")))
	require.Equal(t, 1.0, testutil.ToFloat64(rec.notifications.WithLabelValues("email", "failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(rec.taskFailures.WithLabelValues("appointment:assign", "true")))
	require.Equal(t, 1, testutil.CollectAndCount(rec.candidates))
}

func TestRecorderReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewRecorder(reg)
	require.NoError(t, err)
	second, err := NewRecorder(reg)
	require.NoError(t, err)

	first.AssignmentOutcome("superseded")
	require.Equal(t, 1.0, testutil.ToFloat64(second.outcomes.WithLabelValues("superseded")))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.AssignmentOutcome("assigned")
	rec.AssignmentSearch(0, time.Second)
	rec.Notification("sms", nil)
	rec.TaskFailure("x", false)
}
