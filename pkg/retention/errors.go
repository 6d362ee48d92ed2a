package retention

import (
	"fmt"
	"strings"
)

// ValidationError reports invalid organizer-supplied retention settings.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// RunError represents a failure in one phase of a retention run.
type RunError struct {
	RunID string // Identifier of the run
	Phase string // "sync", "plan", "apply", "sweep"
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	return fmt.Sprintf("retention run error [run_id=%s, phase=%s]: %v", e.RunID, e.Phase, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RunError) Unwrap() error {
	return e.Cause
}

// NewRunError creates a new RunError.
func NewRunError(runID, phase string, cause error) *RunError {
	return &RunError{
		RunID: runID,
		Phase: phase,
		Cause: cause,
	}
}

// ScheduleError represents an invalid cron schedule.
type ScheduleError struct {
	Schedule string
	Cause    error
}

// Error implements the error interface.
func (e *ScheduleError) Error() string {
	return fmt.Sprintf("invalid cron schedule %q: %v", strings.TrimSpace(e.Schedule), e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ScheduleError) Unwrap() error {
	return e.Cause
}
