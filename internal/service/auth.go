package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/ecomove/ecomove/internal/apperror"
	"github.com/ecomove/ecomove/internal/auth"
	"github.com/ecomove/ecomove/internal/model"
	"github.com/ecomove/ecomove/internal/repository"
)

// MinPasswordLength is the minimum accepted credential length.
const MinPasswordLength = 6

// Session is the result of a successful register or login: the user plus a
// signed access token.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// AuthService handles registration and login.
type AuthService struct {
	repos     repository.Repos
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(repos repository.Repos, passwords *auth.PasswordService, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{repos: repos, passwords: passwords, tokens: tokens, logger: logger}
}

// Register creates an account and issues a token. Duplicate emails surface
// as ErrConflict from the unique constraint.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "invalid email address")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Level:        1,
		Badges:       []model.BadgeID{},
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user registered", slog.String("userId", user.ID))
	return &Session{Token: token, User: user}, nil
}

// Login verifies credentials and issues a token. Wrong email and wrong
// password return the same error so the endpoint doesn't leak which emails
// are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userId", user.ID))
	return &Session{Token: token, User: user}, nil
}
