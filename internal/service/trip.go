// Package service contains the business logic layer: validation, the
// scoring/progression rules, and the transactional orchestration between
// repositories. Handlers above know only HTTP; repositories below know only
// SQL. Services return apperror-typed failures and never touch the
// transport layer.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecomove/ecomove/internal/apperror"
	"github.com/ecomove/ecomove/internal/model"
	"github.com/ecomove/ecomove/internal/repository"
	"github.com/ecomove/ecomove/internal/scoring"
)

// TripInput is a raw trip report as submitted by the client.
type TripInput struct {
	Mode     model.TransportMode `json:"mode"`
	Distance float64             `json:"distanceKm"`
	Origin   model.Place         `json:"origin"`
	Dest     model.Place         `json:"destination"`
	Duration int                 `json:"durationMinutes"`
}

// TripResult is the response to a recorded trip: the immutable trip record
// plus the streak state after applying it.
type TripResult struct {
	Trip       *model.Trip `json:"trip"`
	StreakDays int         `json:"streakDays"`
}

// TripService is the trip ledger: it validates a trip report, computes its
// impact, and applies every resulting delta — points, CO2, distance, level,
// streak, badges — to the user aggregate in one transaction.
type TripService struct {
	repos  repository.Repos
	atomic repository.Atomic
	calc   *scoring.Calculator
	logger *slog.Logger

	// now is injectable so streak tests can steer the calendar.
	now func() time.Time
}

// NewTripService creates a TripService.
func NewTripService(repos repository.Repos, atomic repository.Atomic, calc *scoring.Calculator, logger *slog.Logger) *TripService {
	return &TripService{
		repos:  repos,
		atomic: atomic,
		calc:   calc,
		logger: logger,
		now:    time.Now,
	}
}

// Record logs one trip for the user.
//
// The sequence: validate input, compute impact, then — inside a single
// transaction — persist the trip, re-derive streak/level/badges against the
// stored aggregate, and rewrite the aggregate. If any step fails the whole
// unit rolls back: a trip can never exist without its points having been
// credited, and vice versa.
func (s *TripService) Record(ctx context.Context, userID string, in TripInput) (*TripResult, error) {
	if err := validateTripInput(in); err != nil {
		return nil, err
	}

	impact, err := s.calc.Impact(in.Mode, in.Distance)
	if err != nil {
		return nil, err
	}

	now := s.now()
	trip := &model.Trip{
		UserID:   userID,
		Mode:     in.Mode,
		Distance: in.Distance,
		Origin:   in.Origin,
		Dest:     in.Dest,
		Duration: in.Duration,
		CO2Saved: impact.CO2Saved,
		Points:   impact.Points,
		LoggedAt: now,
	}

	var streakDays int
	err = s.atomic.Atomic(ctx, func(repos repository.Repos) error {
		user, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		streak := scoring.UpdateStreak(user.StreakDays, user.LastStreakDate, now)

		if err := repos.Trips.Create(ctx, trip); err != nil {
			return err
		}

		// Apply every delta to the aggregate, then re-derive the pure
		// projections (level, badges) from the new totals.
		user.Points += impact.Points + streak.Bonus
		user.CO2Saved += impact.CO2Saved
		user.Distance += in.Distance
		user.Level = scoring.Level(user.Points)
		user.StreakDays = streak.Days
		user.LastStreakDate = streak.Date

		tripCount, err := repos.Trips.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		user.Badges = scoring.EvaluateBadges(user.Badges, model.LifetimeStats{
			TripCount: tripCount,
			Distance:  user.Distance,
			CO2Saved:  user.CO2Saved,
		}, user.Level)

		if err := repos.Users.Update(ctx, user); err != nil {
			return err
		}

		streakDays = streak.Days
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("trip recorded",
		slog.String("userId", userID),
		slog.String("mode", string(in.Mode)),
		slog.Float64("distanceKm", in.Distance),
		slog.Int("points", impact.Points),
		slog.Int("streakDays", streakDays),
	)

	return &TripResult{Trip: trip, StreakDays: streakDays}, nil
}

// History returns the user's recent trips, newest first.
func (s *TripService) History(ctx context.Context, userID string, limit, offset int) ([]model.Trip, error) {
	trips, err := s.repos.Trips.ListByUser(ctx, userID, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	return trips, nil
}

// Stats returns the user's per-mode trip aggregation.
func (s *TripService) Stats(ctx context.Context, userID string) ([]model.ModeStats, error) {
	stats, err := s.repos.Trips.StatsByMode(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregating trip stats: %w", err)
	}
	return stats, nil
}

func validateTripInput(in TripInput) error {
	if !in.Mode.Valid() {
		return apperror.ValidationFailed("mode",
			fmt.Sprintf("mode must be one of %v", model.Modes()))
	}
	if in.Distance <= 0 {
		return apperror.ValidationFailed("distanceKm", "distance must be greater than zero")
	}
	if err := validatePlace("origin", in.Origin); err != nil {
		return err
	}
	if err := validatePlace("destination", in.Dest); err != nil {
		return err
	}
	if in.Duration < 0 {
		return apperror.ValidationFailed("durationMinutes", "duration cannot be negative")
	}
	return nil
}

func validatePlace(field string, p model.Place) error {
	if p.Lat < -90 || p.Lat > 90 {
		return apperror.ValidationFailed(field, field+" latitude must be between -90 and 90")
	}
	if p.Lng < -180 || p.Lng > 180 {
		return apperror.ValidationFailed(field, field+" longitude must be between -180 and 180")
	}
	if p.Lat == 0 && p.Lng == 0 && p.Name == "" {
		return apperror.ValidationFailed(field, field+" coordinates are required")
	}
	return nil
}
