// Package apperror defines the application's error taxonomy.
//
// Every expected domain outcome is signalled through one of the sentinel
// errors below, wrapped in an *AppError carrying the human-readable message.
// The HTTP layer maps sentinels to status codes in exactly one place
// (handler.writeError); services and repositories never reference HTTP codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrUnprocessable = errors.New("unprocessable")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel discriminant
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
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

// NotFoundMessage returns an ErrNotFound with a caller-supplied message.
// Used where the message itself carries a diagnostic distinction, such as
// "category is deleted" versus "category not found" — both 404s on the wire.
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unprocessable marks a request that is well-formed JSON but violates a
// domain rule: run type mismatch, malformed duration, negative score,
// negative pagination parameters. Maps to 422, distinct from the 400 used
// for a body that does not parse at all.
func Unprocessable(field, message string) *AppError {
	return &AppError{
		Err:     ErrUnprocessable,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError indicating missing or invalid credentials.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
