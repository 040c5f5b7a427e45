package engine

import (
	"errors"
	"fmt"
)

// CommandError represents a command that failed at the command boundary.
//
// Command errors include:
//   - Unknown command: the ID is not registered
//   - Open failed: a goto target could not be opened or shown
//   - Persist failed: the Slot Store could not read or write the table
//   - Refresh failed: markers could not be recomputed after a change
//   - Pick failed: the picker reported something other than a dismissal
//
// Warnings (no active view, empty slot) and a dismissed picker are not errors.
type CommandError struct {
	// Code identifies the error category.
	Code CommandErrorCode

	// Message is a human-readable description.
	Message string

	// Command is the command or event that failed.
	Command string

	// Slot is the slot involved, or -1.
	Slot int

	// Err is the underlying failure.
	Err error
}

// CommandErrorCode categorizes command errors.
type CommandErrorCode string

const (
	// ErrCodeUnknownCommand indicates the command ID is not registered.
	ErrCodeUnknownCommand CommandErrorCode = "UNKNOWN_COMMAND"

	// ErrCodeOpenFailed indicates a bookmark's document could not be opened or shown.
	ErrCodeOpenFailed CommandErrorCode = "OPEN_FAILED"

	// ErrCodePersistFailed indicates the slot table could not be read or written.
	ErrCodePersistFailed CommandErrorCode = "PERSIST_FAILED"

	// ErrCodeRefreshFailed indicates markers could not be recomputed.
	ErrCodeRefreshFailed CommandErrorCode = "REFRESH_FAILED"

	// ErrCodePickFailed indicates the picker failed.
	ErrCodePickFailed CommandErrorCode = "PICK_FAILED"
)

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Command != "" {
		msg = fmt.Sprintf("%s (command=%s)", msg, e.Command)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsOpenError returns true if err is a goto open/show failure.
// Uses errors.As to handle wrapped errors.
func IsOpenError(err error) bool {
	return hasCode(err, ErrCodeOpenFailed)
}

// IsPersistError returns true if err is a slot table persistence failure.
func IsPersistError(err error) bool {
	return hasCode(err, ErrCodePersistFailed)
}

// IsUnknownCommandError returns true if err reports an unregistered command.
func IsUnknownCommandError(err error) bool {
	return hasCode(err, ErrCodeUnknownCommand)
}

func hasCode(err error, code CommandErrorCode) bool {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// NewUnknownCommandError creates a CommandError for an unregistered command ID.
func NewUnknownCommandError(id string) *CommandError {
	return &CommandError{
		Code:    ErrCodeUnknownCommand,
		Message: "command is not registered",
		Command: id,
		Slot:    -1,
	}
}

func newCommandError(code CommandErrorCode, cmd string, slot int, message string, err error) *CommandError {
	return &CommandError{
		Code:    code,
		Message: message,
		Command: cmd,
		Slot:    slot,
		Err:     err,
	}
}
