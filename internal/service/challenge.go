package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecomove/ecomove/internal/apperror"
	"github.com/ecomove/ecomove/internal/model"
	"github.com/ecomove/ecomove/internal/repository"
)

// ChallengeService is the challenge progress engine.
//
// RECOMPUTE, DON'T CACHE:
// Progress is recomputed from the full trip history on every challenge-list
// read — not incrementally maintained on each trip. Recomputation is
// idempotent, immune to drift, and doubles as its own reconciliation path.
// The TripRepository interface would let an incrementally-maintained
// aggregate slot in behind the same read contract if scale ever demands it.
type ChallengeService struct {
	repos  repository.Repos
	logger *slog.Logger
	now    func() time.Time
}

// NewChallengeService creates a ChallengeService.
func NewChallengeService(repos repository.Repos, logger *slog.Logger) *ChallengeService {
	return &ChallengeService{repos: repos, logger: logger, now: time.Now}
}

// ListForUser returns every currently-active challenge with the caller's
// recomputed progress. A progress record is created with progress 0 on the
// first evaluation of each user×challenge pair.
//
// The completed flag LATCHES: it is read from the persisted record and only
// ever raised, never cleared — even if the fresh recompute comes out below
// the target.
func (s *ChallengeService) ListForUser(ctx context.Context, userID string) ([]model.ChallengeWithProgress, error) {
	now := s.now()

	challenges, err := s.repos.Challenges.ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("listing active challenges: %w", err)
	}
	if len(challenges) == 0 {
		return []model.ChallengeWithProgress{}, nil
	}

	// One history scan shared by every challenge in the list.
	trips, err := s.repos.Trips.AllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading trip history: %w", err)
	}

	result := make([]model.ChallengeWithProgress, 0, len(challenges))
	for _, challenge := range challenges {
		value := ProgressFor(&challenge, trips)

		record, err := s.repos.Progress.Get(ctx, userID, challenge.ID)
		if err != nil {
			if !errors.Is(err, apperror.ErrNotFound) {
				return nil, fmt.Errorf("loading challenge progress: %w", err)
			}
			record = &model.ChallengeProgress{
				UserID:      userID,
				ChallengeID: challenge.ID,
				StartedAt:   now,
			}
		}

		record.Progress = value
		if !record.Completed && value >= challenge.Target {
			record.Completed = true
			completedAt := now
			record.CompletedAt = &completedAt
			s.logger.Info("challenge completed",
				slog.String("userId", userID),
				slog.String("challengeId", challenge.ID),
				slog.Float64("progress", value),
			)
		}

		if err := s.repos.Progress.Upsert(ctx, record); err != nil {
			return nil, fmt.Errorf("saving challenge progress: %w", err)
		}

		result = append(result, model.ChallengeWithProgress{
			Challenge: challenge,
			Progress:  record.Progress,
			Completed: record.Completed,
		})
	}

	return result, nil
}

// ProgressFor computes a challenge's progress value from a trip history.
// Pure — exported for direct testing and reuse by reconciliation tooling.
func ProgressFor(challenge *model.Challenge, trips []model.Trip) float64 {
	var progress float64
	switch challenge.Goal {
	case model.GoalDistance:
		for _, t := range trips {
			progress += t.Distance
		}
	case model.GoalTripCount:
		progress = float64(len(trips))
	case model.GoalCO2:
		for _, t := range trips {
			progress += t.CO2Saved
		}
	case model.GoalModeSpecific:
		for _, t := range trips {
			if t.Mode == challenge.RequiredMode {
				progress++
			}
		}
	}
	return progress
}
