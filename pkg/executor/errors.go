package executor

import "fmt"

// CommandError reports a failed command for one event.
type CommandError struct {
	Command string // "notify", "archive", "delete", ...
	EventID string // Event the command was applied to
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Command, e.EventID, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *CommandError) Unwrap() error {
	return e.Cause
}

// NewCommandError creates a new CommandError.
func NewCommandError(command, eventID string, cause error) *CommandError {
	return &CommandError{
		Command: command,
		EventID: eventID,
		Cause:   cause,
	}
}
