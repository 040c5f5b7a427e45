package slots

import (
	"errors"
	"fmt"
)

// StoreError is a failure of the Slot Store's backing persistence.
//
// Callers must not assume a mutation took effect when a StoreError is
// returned: the table is written in a single Set, so on failure the persisted
// table is whatever it was before the call.
type StoreError struct {
	// Code identifies the error category.
	Code StoreErrorCode

	// Message is a human-readable description.
	Message string

	// Index is the slot being mutated, or -1 for whole-table operations.
	Index int

	// Err is the underlying failure.
	Err error
}

// StoreErrorCode categorizes Slot Store errors.
type StoreErrorCode string

const (
	// ErrCodePersistFailed indicates the key-value store rejected a read or write.
	ErrCodePersistFailed StoreErrorCode = "PERSIST_FAILED"

	// ErrCodeCorruptTable indicates the persisted value is not a valid slot table.
	ErrCodeCorruptTable StoreErrorCode = "CORRUPT_TABLE"
)

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s (slot=%d)", msg, e.Index)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsPersistError returns true if err is a persistence failure.
// Uses errors.As to handle wrapped errors.
func IsPersistError(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == ErrCodePersistFailed
	}
	return false
}

// IsCorruptError returns true if err reports an unreadable persisted table.
func IsCorruptError(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == ErrCodeCorruptTable
	}
	return false
}

func persistError(op string, index int, err error) *StoreError {
	return &StoreError{
		Code:    ErrCodePersistFailed,
		Message: op + " failed",
		Index:   index,
		Err:     err,
	}
}

func corruptError(err error) *StoreError {
	return &StoreError{
		Code:    ErrCodeCorruptTable,
		Message: "persisted slot table is unreadable",
		Index:   -1,
		Err:     err,
	}
}
