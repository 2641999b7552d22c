package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{"NotFound wraps ErrNotFound", NotFound("user", "abc123"), ErrNotFound, true},
		{"ValidationFailed wraps ErrValidation", ValidationFailed("mode", "unrecognized mode"), ErrValidation, true},
		{"Conflict wraps ErrConflict", Conflict("user email", "a@b.com"), ErrConflict, true},
		{"Unauthorized wraps ErrUnauthorized", Unauthorized("invalid credentials"), ErrUnauthorized, true},
		{"Unavailable wraps ErrUnavailable", Unavailable("out of stock"), ErrUnavailable, true},
		{"InsufficientPoints wraps its sentinel", InsufficientPoints(100, 300), ErrInsufficientPoints, true},
		{"Persistence wraps ErrPersistence", Persistence("insert trip", errors.New("disk full")), ErrPersistence, true},
		{"NotFound does NOT match ErrValidation", NotFound("user", "abc123"), ErrValidation, false},
		{"InsufficientPoints does NOT match ErrValidation", InsufficientPoints(0, 1), ErrValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{"NotFound includes resource and id", NotFound("reward", "r-1"), "reward not found with id r-1"},
		{"ValidationFailed uses custom message", ValidationFailed("distanceKm", "distance must be greater than zero"), "distance must be greater than zero"},
		{"InsufficientPoints includes both amounts", InsufficientPoints(150, 300), "insufficient points: have 150, need 300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := InsufficientPoints(10, 20)
	if err.Unwrap() != ErrInsufficientPoints {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), ErrInsufficientPoints)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "invalid email format")
	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}

// errors.Is must survive further wrapping with fmt.Errorf %w, since
// services wrap repository errors with context before returning them.
func TestErrorsIs_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("recording trip: %w", NotFound("user", "u-1"))
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("errors.Is() failed through an fmt.Errorf %w wrap")
	}
}
