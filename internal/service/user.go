package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/ecomove/ecomove/internal/apperror"
	"github.com/ecomove/ecomove/internal/auth"
	"github.com/ecomove/ecomove/internal/model"
	"github.com/ecomove/ecomove/internal/repository"
	"github.com/ecomove/ecomove/internal/scoring"
)

// Profile is a user aggregate plus derived lifetime stats and the points
// threshold of the next tier.
type Profile struct {
	model.User
	Stats           model.LifetimeStats `json:"stats"`
	NextLevelPoints int                 `json:"nextLevelPoints"`
}

// PublicProfile is another user's profile as anyone may see it: the
// non-sensitive aggregate fields plus lifetime stats and the per-mode trip
// distribution. No email, no timestamps beyond the join date.
type PublicProfile struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Points     int                 `json:"points"`
	Level      int                 `json:"level"`
	CO2Saved   float64             `json:"co2Saved"`
	Distance   float64             `json:"totalDistance"`
	Badges     []model.BadgeID     `json:"badges"`
	StreakDays int                 `json:"streakDays"`
	JoinedAt   time.Time           `json:"joinedAt"`
	Stats      model.LifetimeStats `json:"stats"`
	ByMode     []model.ModeStats   `json:"byMode"`
}

// ProfileUpdate carries the mutable profile fields. Empty strings mean
// "leave unchanged"; a password change requires the current password.
type ProfileUpdate struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UserService handles profile reads/updates, the leaderboard, and global
// platform stats.
type UserService struct {
	repos     repository.Repos
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(repos repository.Repos, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{repos: repos, passwords: passwords, logger: logger}
}

// Me returns the caller's aggregate plus lifetime trip stats.
func (s *UserService) Me(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tripCount, err := s.repos.Trips.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting trips: %w", err)
	}

	return &Profile{
		User: *user,
		Stats: model.LifetimeStats{
			TripCount: tripCount,
			Distance:  user.Distance,
			CO2Saved:  user.CO2Saved,
		},
		NextLevelPoints: scoring.PointsForLevel(user.Level + 1),
	}, nil
}

// Get returns another user's public profile: non-sensitive aggregate fields
// plus their trip stats and per-mode distribution.
func (s *UserService) Get(ctx context.Context, userID string) (*PublicProfile, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tripCount, err := s.repos.Trips.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting trips: %w", err)
	}
	byMode, err := s.repos.Trips.StatsByMode(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregating trips: %w", err)
	}

	return &PublicProfile{
		ID:         user.ID,
		Name:       user.Name,
		Points:     user.Points,
		Level:      user.Level,
		CO2Saved:   user.CO2Saved,
		Distance:   user.Distance,
		Badges:     user.Badges,
		StreakDays: user.StreakDays,
		JoinedAt:   user.CreatedAt,
		Stats: model.LifetimeStats{
			TripCount: tripCount,
			Distance:  user.Distance,
			CO2Saved:  user.CO2Saved,
		},
		ByMode: byMode,
	}, nil
}

// UpdateProfile applies name/email/password changes. Email stays unique
// (the storage constraint backs the pre-check); changing the password
// requires proving knowledge of the current one.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*model.User, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}

	// Lowercase like registration and login do: GetByEmail matches exactly,
	// so a stored mixed-case address would be unreachable at login.
	if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" && email != user.Email {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperror.ValidationFailed("email", "invalid email address")
		}
		user.Email = email
	}

	if in.NewPassword != "" {
		if in.CurrentPassword == "" {
			return nil, apperror.ValidationFailed("currentPassword", "current password is required to set a new one")
		}
		if err := s.passwords.Verify(user.PasswordHash, in.CurrentPassword); err != nil {
			return nil, apperror.Unauthorized("current password is incorrect")
		}
		if len(in.NewPassword) < MinPasswordLength {
			return nil, apperror.ValidationFailed("newPassword",
				fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
		}
		hash, err := s.passwords.Hash(in.NewPassword)
		if err != nil {
			return nil, apperror.ValidationFailed("newPassword", err.Error())
		}
		user.PasswordHash = hash
	}

	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("userId", userID))
	return user, nil
}

// Ranking returns the leaderboard, ordered by points descending.
func (s *UserService) Ranking(ctx context.Context, limit int) ([]model.RankingEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	entries, err := s.repos.Users.Ranking(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("loading ranking: %w", err)
	}
	return entries, nil
}

// GlobalStats returns platform-wide totals.
func (s *UserService) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	users, err := s.repos.Users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}
	trips, co2, distance, err := s.repos.Trips.GlobalTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing totals: %w", err)
	}
	return &model.GlobalStats{
		TotalUsers:    users,
		TotalTrips:    trips,
		TotalCO2Saved: co2,
		TotalDistance: distance,
	}, nil
}
