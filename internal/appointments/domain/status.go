// Package domain holds the appointment vocabulary and the state machine that
// every status change goes through.
package domain

import "slices"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ActiveStatuses are the statuses that occupy a technician's schedule.
var ActiveStatuses = []Status{StatusAssigned, StatusAccepted, StatusInProgress}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// HoldsTechnician reports whether an appointment in this status must carry a technician.
func (s Status) HoldsTechnician() bool {
	switch s {
	case StatusAssigned, StatusAccepted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority orders work offered to technicians.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Weight returns the sort weight, higher first.
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ServiceType is the trade requested by the customer. It doubles as the
// skill category used to derive required skills.
type ServiceType string

// ServiceTypes lists every bookable service type.
var ServiceTypes = []ServiceType{
	"plumbing", "electrical", "roofing", "hvac",
	"general_repair", "carpentry", "painting", "landscaping",
}

// Valid reports whether t is a bookable service type.
func (t ServiceType) Valid() bool {
	return slices.Contains(ServiceTypes, t)
}
