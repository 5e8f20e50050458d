package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Address is the service location.
type Address struct {
	Street    string
	City      string
	State     string
	ZipCode   string
	Latitude  *float64
	Longitude *float64
}

// Feedback is the single rating a customer may attach to completed work.
type Feedback struct {
	Rating      int
	Comment     *string
	SubmittedAt time.Time
}

// Appointment is a customer service request and its assignment state.
type Appointment struct {
	ID                uuid.UUID
	ReferenceNumber   string
	CustomerID        uuid.UUID
	TechnicianID      *uuid.UUID
	WorkAreaID        uuid.UUID
	Title             string
	Description       string
	ServiceType       ServiceType
	RequiredSkillIDs  []uuid.UUID
	Address           Address
	ScheduledAt       time.Time
	EstimatedDuration int // minutes
	Status            Status
	Priority          Priority
	AssignedAt        *time.Time
	AcceptedAt        *time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CompletionNotes   *string
	Feedback          *Feedback
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Duration returns the estimated duration.
func (a *Appointment) Duration() time.Duration {
	return time.Duration(a.EstimatedDuration) * time.Minute
}

// AssignedTo reports whether the appointment is held by technicianID.
func (a *Appointment) AssignedTo(technicianID uuid.UUID) bool {
	return a.TechnicianID != nil && *a.TechnicianID == technicianID
}

// CheckInvariant verifies that a technician is set exactly when the status requires one.
func (a *Appointment) CheckInvariant() error {
	if !a.Status.Valid() {
		return fmt.Errorf("unknown status %q", a.Status)
	}
	if a.Status.HoldsTechnician() && a.TechnicianID == nil {
		return fmt.Errorf("status %s requires a technician", a.Status)
	}
	if !a.Status.HoldsTechnician() && a.TechnicianID != nil {
		return fmt.Errorf("status %s must not carry a technician", a.Status)
	}
	return nil
}

// CanView reports whether actor may read the appointment.
func CanView(a *Appointment, actor Actor) bool {
	switch act := actor.(type) {
	case Customer:
		return a.CustomerID == act.ID
	case Technician:
		return a.AssignedTo(act.ID)
	case Operator, Assigner:
		return true
	}
	return false
}
