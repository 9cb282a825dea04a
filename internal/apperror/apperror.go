package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError is the error type every layer below the HTTP boundary returns.
// The HTTP layer maps the wrapped sentinel to a status code; Message is
// what clients see, so it must never carry store or blob internals.
type AppError struct {
	Err     error    // sentinel classifying the failure
	Message string   // human-readable, client-safe message
	Details []string // optional per-field details for the envelope's errors array
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(message string, details ...string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Details: details,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized returns an AppError the HTTP layer maps to 401.
// Credential and token failures deliberately share a small set of
// messages so the response shape never reveals whether an account exists.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
