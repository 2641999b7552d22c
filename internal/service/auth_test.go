package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ecomove/ecomove/internal/apperror"
	"github.com/ecomove/ecomove/internal/auth"
)

func newAuthService(t *testing.T, f *fixture) *AuthService {
	t.Helper()
	// MinCost keeps bcrypt fast in tests; production uses the default cost.
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return NewAuthService(f.repos, passwords, tokens, f.logger)
}

// =========================================================================
// REGISTER TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(t, f)

	session, err := svc.Register(context.Background(), "Ana García", "ana@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if session.Token == "" {
		t.Error("expected a signed token")
	}
	if session.User.ID == "" {
		t.Error("expected the user to have an ID")
	}
	if session.User.Level != 1 {
		t.Errorf("Level = %d, want 1", session.User.Level)
	}
	if session.User.Points != 0 {
		t.Errorf("Points = %d, want 0", session.User.Points)
	}
	if session.User.Badges == nil {
		t.Error("Badges should be an empty slice, not nil")
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(t, f)

	session, err := svc.Register(context.Background(), "Ana", "  Ana@Example.COM ", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if session.User.Email != "ana@example.com" {
		t.Errorf("Email = %q, want lowercased and trimmed", session.User.Email)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(t, f)

	if _, err := svc.Register(context.Background(), "First", "dup@example.com", "secret123"); err != nil {
		t.Fatalf("setup: Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), "Second", "dup@example.com", "secret123")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(t, f)

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"empty name", "", "a@example.com", "secret123"},
		{"whitespace name", "   ", "a@example.com", "secret123"},
		{"invalid email", "Ana", "not-an-email", "secret123"},
		{"short password", "Ana", "a@example.com", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.userName, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(t, f)

	registered, err := svc.Register(context.Background(), "Ana", "ana@example.com", "secret123")
	if err != nil {
		t.Fatalf("setup: Register() error = %v", err)
	}

	session, err := svc.Login(context.Background(), "ana@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.Token == "" {
		t.Error("expected a signed token")
	}
	if session.User.ID != registered.User.ID {
		t.Errorf("User.ID = %q, want %q", session.User.ID, registered.User.ID)
	}
}

// Wrong email and wrong password must be indistinguishable to the caller.
func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(t, f)

	if _, err := svc.Register(context.Background(), "Ana", "ana@example.com", "secret123"); err != nil {
		t.Fatalf("setup: Register() error = %v", err)
	}

	_, wrongPassword := svc.Login(context.Background(), "ana@example.com", "wrong")
	_, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "secret123")

	for name, err := range map[string]error{"wrong password": wrongPassword, "unknown email": unknownEmail} {
		if !errors.Is(err, apperror.ErrUnauthorized) {
			t.Fatalf("%s: error = %v, want ErrUnauthorized", name, err)
		}
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("error messages differ (%q vs %q); they must not leak which emails exist",
			wrongPassword.Error(), unknownEmail.Error())
	}
}
