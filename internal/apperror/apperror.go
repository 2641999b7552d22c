// Package apperror defines the application's typed error taxonomy.
//
// Every error a service returns wraps exactly one of the sentinel errors
// below, so handlers can classify failures with errors.Is without knowing
// anything about where they came from. The core never logs-and-swallows a
// failure — errors propagate unmodified to the HTTP boundary, which maps
// them to status codes in one place (handler.writeError).
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUnavailable        = errors.New("unavailable")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrPersistence        = errors.New("persistence failure")
)

// AppError carries a sentinel plus a human-readable message.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // Human-readable error message
	Field   string // Optional: field causing a validation error
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

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict signals a lost-update detected by an optimistic check — the
// caller should retry the whole operation.
func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s, retry the operation", resource, id),
	}
}

// Unauthorized signals missing or invalid credentials.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Unavailable signals a business-rule block: the referenced reward is
// inactive or out of stock.
func Unavailable(message string) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: message,
	}
}

// InsufficientPoints signals that the user cannot afford the reward.
func InsufficientPoints(have, need int) *AppError {
	return &AppError{
		Err:     ErrInsufficientPoints,
		Message: fmt.Sprintf("insufficient points: have %d, need %d", have, need),
	}
}

// Persistence wraps a store failure (unreachable, timeout). Retryable —
// handlers map it to 503, never to a silent partial apply.
func Persistence(op string, err error) *AppError {
	return &AppError{
		Err:     ErrPersistence,
		Message: fmt.Sprintf("storage failure during %s: %v", op, err),
	}
}
