package domain

import (
	"time"

	"github.com/google/uuid"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether the table allows from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Change is a requested status change.
type Change struct {
	To Status
	// TechnicianID is the technician to assign; only used for pending -> assigned.
	TechnicianID uuid.UUID
	// Notes are recorded when completing.
	Notes *string
}

// Transition is a validated change ready to persist with a conditional
// update on From (and on ExpectTechnician when set).
type Transition struct {
	AppointmentID    uuid.UUID
	From             Status
	To               Status
	ExpectTechnician *uuid.UUID
	TechnicianID     *uuid.UUID
	At               time.Time
	Notes            *string
}

// Plan checks that actor may apply change to appt and returns the transition.
// Every status change in the system is planned here.
func Plan(appt *Appointment, actor Actor, change Change, now time.Time) (Transition, error) {
	if !CanTransition(appt.Status, change.To) {
		return Transition{}, ErrInvalidTransition(appt.Status, change.To)
	}

	t := Transition{
		AppointmentID: appt.ID,
		From:          appt.Status,
		To:            change.To,
		At:            now,
	}

	switch change.To {
	case StatusAssigned:
		if _, ok := actor.(Assigner); !ok {
			return Transition{}, ErrAccessDenied("only the assignment engine may assign technicians")
		}
		if change.TechnicianID == uuid.Nil {
			return Transition{}, ErrInvalidTransition(appt.Status, change.To)
		}
		techID := change.TechnicianID
		t.TechnicianID = &techID

	case StatusAccepted, StatusInProgress, StatusCompleted:
		tech, ok := actor.(Technician)
		if !ok || !appt.AssignedTo(tech.ID) {
			return Transition{}, ErrAccessDenied("appointment is not assigned to you")
		}
		techID := tech.ID
		t.ExpectTechnician = &techID
		t.TechnicianID = &techID
		if change.To == StatusCompleted {
			t.Notes = change.Notes
		}

	case StatusCancelled:
		switch act := actor.(type) {
		case Operator:
		case Customer:
			if appt.CustomerID != act.ID {
				return Transition{}, ErrAccessDenied("appointment does not belong to you")
			}
		default:
			return Transition{}, ErrAccessDenied("cancellation requires the customer or an operator")
		}
	}

	return t, nil
}

// Apply returns a copy of appt with t applied. Callers persist first and
// apply only after the conditional update succeeded.
func Apply(appt Appointment, t Transition) Appointment {
	appt.Status = t.To
	appt.UpdatedAt = t.At
	at := t.At

	switch t.To {
	case StatusAssigned:
		appt.TechnicianID = t.TechnicianID
		appt.AssignedAt = &at
	case StatusAccepted:
		appt.AcceptedAt = &at
	case StatusInProgress:
		appt.StartedAt = &at
	case StatusCompleted:
		appt.CompletedAt = &at
		appt.CompletionNotes = t.Notes
	case StatusCancelled:
		appt.TechnicianID = nil
	}
	return appt
}

// PlanFeedback checks that actor may attach feedback to appt.
func PlanFeedback(appt *Appointment, actor Actor, rating int, comment *string, now time.Time) (Feedback, error) {
	cust, ok := actor.(Customer)
	if !ok || appt.CustomerID != cust.ID {
		return Feedback{}, ErrAccessDenied("only the customer may rate this appointment")
	}
	if appt.Status != StatusCompleted {
		return Feedback{}, ErrInvalidStatus("feedback can only be submitted for completed appointments")
	}
	if appt.Feedback != nil {
		return Feedback{}, ErrFeedbackExists()
	}
	if rating < 1 || rating > 5 {
		return Feedback{}, ErrValidation("rating must be between 1 and 5")
	}
	return Feedback{Rating: rating, Comment: comment, SubmittedAt: now}, nil
}
