package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskAssignAppointment = "appointments.assign"

const TaskSendAssignmentNotification = "appointments.assignment_notification"

// AssignmentPayload identifies one assignment attempt. Reschedule counts
// no-candidate reschedules so far. Parent is the task ID of the attempt that
// rescheduled this one and keys the deduplicating task ID.
type AssignmentPayload struct {
	AppointmentID string `json:"appointmentId"`
	Reschedule    int    `json:"reschedule,omitempty"`
	Parent        string `json:"parent,omitempty"`

	// TaskID is the queue ID of the running attempt, filled in by the worker.
	TaskID string `json:"-"`
}

type NotificationPayload struct {
	AppointmentID string `json:"appointmentId"`
	TechnicianID  string `json:"technicianId"`
	CustomerID    string `json:"customerId"`
}

func NewAssignmentTask(payload AssignmentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssignAppointment, data), nil
}

func ParseAssignmentPayload(task *asynq.Task) (AssignmentPayload, uuid.UUID, error) {
	var payload AssignmentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AssignmentPayload{}, uuid.Nil, err
	}
	id, err := uuid.Parse(payload.AppointmentID)
	if err != nil {
		return AssignmentPayload{}, uuid.Nil, fmt.Errorf("invalid appointment id: %w", err)
	}
	return payload, id, nil
}

func NewNotificationTask(payload NotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendAssignmentNotification, data), nil
}

func ParseNotificationPayload(task *asynq.Task) (NotificationPayload, error) {
	var payload NotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NotificationPayload{}, err
	}
	return payload, nil
}

// rescheduleTaskID is derived from the attempt that produced the reschedule,
// so a redelivered attempt cannot enqueue its follow-up twice while separate
// chains for the same appointment never share an ID. The parent is hashed to
// keep the ID length fixed along the chain.
func rescheduleTaskID(payload AssignmentPayload) string {
	return "assign-next:" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(payload.Parent)).String()
}

func notificationTaskID(payload NotificationPayload) string {
	return fmt.Sprintf("notify:%s:%s", payload.AppointmentID, payload.TechnicianID)
}
