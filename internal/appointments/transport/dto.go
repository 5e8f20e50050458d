package transport

import (
	"time"

	"github.com/google/uuid"
)

// AddressRequest is the service location submitted by a customer.
type AddressRequest struct {
	Street    string   `json:"street" validate:"required,max=200"`
	City      string   `json:"city" validate:"required,max=100"`
	State     string   `json:"state" validate:"required,max=100"`
	ZipCode   string   `json:"zipCode" validate:"required,zipcode"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// CreateAppointmentRequest is the request body for booking a service visit
type CreateAppointmentRequest struct {
	Title             string         `json:"title" validate:"required,min=5,max=100"`
	Description       string         `json:"description" validate:"required,min=10,max=1000"`
	ServiceType       string         `json:"serviceType" validate:"required,oneof=plumbing electrical roofing hvac general_repair carpentry painting landscaping"`
	Address           AddressRequest `json:"address"`
	ScheduledDateTime time.Time      `json:"scheduledDateTime" validate:"required"`
	EstimatedDuration *int           `json:"estimatedDuration,omitempty" validate:"omitempty,min=30,max=480"`
	Priority          *string        `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	RequiredSkills    []uuid.UUID    `json:"requiredSkills,omitempty" validate:"omitempty,dive,required"`
}

// SubmitFeedbackRequest is the request body for rating completed work
type SubmitFeedbackRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

// UpdateJobStatusRequest is the request body for technician progress updates
type UpdateJobStatusRequest struct {
	Status          string  `json:"status" validate:"required,oneof=in_progress completed"`
	CompletionNotes *string `json:"completionNotes,omitempty" validate:"omitempty,max=1000"`
}

// RequeueAssignmentRequest is the request body for re-triggering assignment
type RequeueAssignmentRequest struct {
	DelaySeconds int `json:"delaySeconds" validate:"min=0,max=604800"`
}

// ListAppointmentsRequest is the query parameters for listing appointments
type ListAppointmentsRequest struct {
	Status string `form:"status" validate:"omitempty,oneof=pending assigned accepted in_progress completed cancelled"`
	Page   int    `form:"page" validate:"omitempty,min=1"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

// AddressResponse is the service location in responses
type AddressResponse struct {
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	ZipCode   string   `json:"zipCode"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// FeedbackResponse is the customer rating attached to a completed appointment
type FeedbackResponse struct {
	Rating      int       `json:"rating"`
	Comment     *string   `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// AppointmentResponse is the response body for an appointment
type AppointmentResponse struct {
	ID                uuid.UUID         `json:"id"`
	ReferenceNumber   string            `json:"referenceNumber"`
	CustomerID        uuid.UUID         `json:"customerId"`
	TechnicianID      *uuid.UUID        `json:"technicianId,omitempty"`
	WorkAreaID        uuid.UUID         `json:"workAreaId"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	ServiceType       string            `json:"serviceType"`
	RequiredSkills    []uuid.UUID       `json:"requiredSkills"`
	Address           AddressResponse   `json:"address"`
	ScheduledDateTime time.Time         `json:"scheduledDateTime"`
	EstimatedDuration int               `json:"estimatedDuration"`
	Status            string            `json:"status"`
	Priority          string            `json:"priority"`
	AssignedAt        *time.Time        `json:"assignedAt,omitempty"`
	AcceptedAt        *time.Time        `json:"acceptedAt,omitempty"`
	StartedAt         *time.Time        `json:"startedAt,omitempty"`
	CompletedAt       *time.Time        `json:"completedAt,omitempty"`
	CompletionNotes   *string           `json:"completionNotes,omitempty"`
	Feedback          *FeedbackResponse `json:"feedback,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Pagination describes a page of results
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// AppointmentListResponse is the response for listing appointments
type AppointmentListResponse struct {
	Items      []AppointmentResponse `json:"items"`
	Pagination Pagination            `json:"pagination"`
}

// RequeueResponse acknowledges an operator re-trigger
type RequeueResponse struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	DelaySeconds  int       `json:"delaySeconds"`
}
