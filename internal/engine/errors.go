package engine

import (
	"errors"
	"fmt"
)

// RaceError represents an error detected by the race engine.
//
// Race errors include:
//   - Validation: a command was issued without its preconditions (no schedule)
//   - Run failure: a run could not be executed; the loop stops advancing
//   - Busy: roster or schedule changes requested while a race is running
type RaceError struct {
	// Code identifies the error category.
	Code RaceErrorCode

	// Message is a human-readable description.
	Message string

	// Session identifies the affected race session, if any.
	Session string

	// Run is the index of the affected run, or -1.
	Run int

	// Err is the underlying cause, if any.
	Err error
}

// RaceErrorCode categorizes race errors.
type RaceErrorCode string

const (
	// CodeValidation indicates a command's preconditions were not met.
	CodeValidation RaceErrorCode = "VALIDATION"

	// CodeRunFailed indicates a run could not be executed.
	CodeRunFailed RaceErrorCode = "RUN_FAILED"

	// CodeBusy indicates the command is not allowed while a race is running.
	CodeBusy RaceErrorCode = "BUSY"
)

// ErrAlreadyRunning is returned by Start when a race is already running.
// The command is ignored: no state changes and no collaborator is called.
var ErrAlreadyRunning = errors.New("race already running")

// ErrBusy is returned when the roster or schedule is changed mid-race.
var ErrBusy = &RaceError{Code: CodeBusy, Message: "race in progress", Run: -1}

// Error implements the error interface.
func (e *RaceError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Session != "" && e.Run >= 0 {
		msg = fmt.Sprintf("%s (session=%s, run=%d)", msg, e.Session, e.Run)
	} else if e.Session != "" {
		msg = fmt.Sprintf("%s (session=%s)", msg, e.Session)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RaceError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a RaceError for an unmet precondition.
func NewValidationError(message string) *RaceError {
	return &RaceError{Code: CodeValidation, Message: message, Run: -1}
}

// NewRunFailedError creates a RaceError for a run that could not be executed.
func NewRunFailedError(session string, run int, err error) *RaceError {
	return &RaceError{
		Code:    CodeRunFailed,
		Message: "run failed",
		Session: session,
		Run:     run,
		Err:     err,
	}
}

// IsValidation returns true if the error is a validation error.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	var re *RaceError
	if errors.As(err, &re) {
		return re.Code == CodeValidation
	}
	return false
}

// IsRunFailed returns true if the error is a run failure.
// Uses errors.As to handle wrapped errors.
func IsRunFailed(err error) bool {
	var re *RaceError
	if errors.As(err, &re) {
		return re.Code == CodeRunFailed
	}
	return false
}
