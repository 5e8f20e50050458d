package domain

import (
	"fmt"

	"fieldservice_backend/platform/apperr"
)

// Machine-readable error codes returned to API clients.
const (
	CodeAppointmentNotFound = "APPOINTMENT_NOT_FOUND"
	CodeInvalidTransition   = "INVALID_STATUS_TRANSITION"
	CodeInvalidStatus       = "INVALID_STATUS"
	CodeStaleEligibility    = "STALE_ELIGIBILITY"
	CodeAccessDenied        = "ACCESS_DENIED"
	CodeFeedbackExists      = "FEEDBACK_ALREADY_SUBMITTED"
	CodeNoServiceArea       = "NO_SERVICE_AREA"
	CodeNoSkillsFound       = "NO_SKILLS_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidWorkingHours = "INVALID_WORKING_HOURS"
)

// ErrAppointmentNotFound builds the not-found error for an appointment.
func ErrAppointmentNotFound() *apperr.Error {
	return apperr.NotFound("appointment not found").WithCode(CodeAppointmentNotFound)
}

// ErrInvalidTransition reports a move the transition table does not allow.
func ErrInvalidTransition(from, to Status) *apperr.Error {
	return apperr.Conflict(fmt.Sprintf("cannot transition from %s to %s", from, to)).
		WithCode(CodeInvalidTransition).
		WithDetails(map[string]string{"from": string(from), "to": string(to)})
}

// ErrAccessDenied reports an actor acting outside its capabilities.
func ErrAccessDenied(message string) *apperr.Error {
	return apperr.Forbidden(message).WithCode(CodeAccessDenied)
}

// ErrStaleEligibility reports a technician who no longer qualifies at accept time.
func ErrStaleEligibility(reason string) *apperr.Error {
	return apperr.Conflict("technician no longer eligible: " + reason).
		WithCode(CodeStaleEligibility).
		WithDetails(map[string]string{"reason": reason})
}

// ErrInvalidStatus reports an operation not allowed in the current status.
func ErrInvalidStatus(message string) *apperr.Error {
	return apperr.BadRequest(message).WithCode(CodeInvalidStatus)
}

// ErrFeedbackExists reports a second feedback attempt.
func ErrFeedbackExists() *apperr.Error {
	return apperr.Conflict("feedback already submitted").WithCode(CodeFeedbackExists)
}

// ErrValidation reports invalid input.
func ErrValidation(message string) *apperr.Error {
	return apperr.Validation(message).WithCode(CodeValidation)
}
