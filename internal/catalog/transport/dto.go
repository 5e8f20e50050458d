package transport

import (
	"time"

	"github.com/google/uuid"
)

// ListSkillsRequest defines filters for listing skills.
type ListSkillsRequest struct {
	Category        string `form:"category" validate:"omitempty,oneof=plumbing electrical roofing hvac general_repair carpentry painting landscaping"`
	IncludeInactive bool   `form:"includeInactive"`
}

// CreateSkillRequest is the request body for creating a skill.
type CreateSkillRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Category    string  `json:"category" validate:"required,oneof=plumbing electrical roofing hvac general_repair carpentry painting landscaping"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// UpdateSkillStatusRequest toggles a skill.
type UpdateSkillStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// SkillResponse is the response body for a skill.
type SkillResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description *string   `json:"description,omitempty"`
	Active      bool      `json:"active"`
}

// CreateWorkAreaRequest is the request body for creating a work area.
type CreateWorkAreaRequest struct {
	Name     string   `json:"name" validate:"required,min=2,max=100"`
	City     string   `json:"city" validate:"required,max=100"`
	State    string   `json:"state" validate:"required,max=100"`
	ZipCodes []string `json:"zipCodes" validate:"required,min=1,dive,zipcode"`
}

// WorkAreaResponse is the response body for a work area.
type WorkAreaResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	City     string    `json:"city"`
	State    string    `json:"state"`
	ZipCodes []string  `json:"zipCodes"`
	Active   bool      `json:"active"`
}

// CreateWorkingHoursRequest is the request body for a working-hours record.
type CreateWorkingHoursRequest struct {
	DayOfWeek     *int   `json:"dayOfWeek" validate:"required,min=0,max=6"`
	StartTime     string `json:"startTime" validate:"required,clock"`
	EndTime       string `json:"endTime" validate:"required,clock"`
	IsAvailable   *bool  `json:"isAvailable,omitempty"`
	EffectiveDate string `json:"effectiveDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// WorkingHoursResponse is the response body for a working-hours record.
type WorkingHoursResponse struct {
	ID            uuid.UUID `json:"id"`
	DayOfWeek     int       `json:"dayOfWeek"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	IsAvailable   bool      `json:"isAvailable"`
	EffectiveDate string    `json:"effectiveDate"`
	CreatedAt     time.Time `json:"createdAt"`
}
