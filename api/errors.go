// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for asyncio.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrNotSupported    = fmt.Errorf("operation not supported")

	// ErrTimerNotArmed is returned by DisableTimer when the timer is
	// not present in the armed set.
	ErrTimerNotArmed = fmt.Errorf("timer is not armed")

	// ErrNothingToWatch is returned by a wait that has no descriptors,
	// no armed timers, and no caller timeout to bound it.
	ErrNothingToWatch = fmt.Errorf("nothing to watch and no timeout")

	// ErrHandleReleased is returned when an operation targets a handle
	// that has already been released.
	ErrHandleReleased = fmt.Errorf("handle has been released")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeNotSupported
	ErrCodeBackend
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
