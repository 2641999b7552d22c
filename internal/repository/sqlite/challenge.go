package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/ecomove/ecomove/internal/apperror"
	"github.com/ecomove/ecomove/internal/model"
)

// Create inserts a challenge into the catalog. Used by seeding and admin
// tooling; the core otherwise treats the catalog as read-only.
func (s *challengeStore) Create(ctx context.Context, challenge *model.Challenge) error {
	if challenge.ID == "" {
		challenge.ID = xid.New().String()
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO challenges (id, title, description, goal_type, target,
		    reward_points, required_mode, starts_at, ends_at, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		challenge.ID, challenge.Title, challenge.Description,
		challenge.Goal, challenge.Target, challenge.Reward,
		challenge.RequiredMode, challenge.StartsAt, challenge.EndsAt, challenge.Active,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating challenge: %w", err)
	}
	return nil
}

// ListActive returns challenges whose window contains now.
func (s *challengeStore) ListActive(ctx context.Context, now time.Time) ([]model.Challenge, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, title, description, goal_type, target, reward_points,
		    required_mode, starts_at, ends_at, active
		 FROM challenges
		 WHERE active = 1 AND starts_at <= ? AND ends_at >= ?
		 ORDER BY ends_at ASC`,
		now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing active challenges: %w", err)
	}
	defer rows.Close()

	challenges := make([]model.Challenge, 0, 8)
	for rows.Next() {
		var c model.Challenge
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Goal, &c.Target,
			&c.Reward, &c.RequiredMode, &c.StartsAt, &c.EndsAt, &c.Active); err != nil {
			return nil, fmt.Errorf("sqlite: scanning challenge row: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating challenges: %w", err)
	}
	return challenges, nil
}

// Get returns the user×challenge progress record.
func (s *progressStore) Get(ctx context.Context, userID, challengeID string) (*model.ChallengeProgress, error) {
	var p model.ChallengeProgress
	var completedAt sql.NullTime

	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, challenge_id, progress, completed, completed_at, started_at
		 FROM challenge_progress
		 WHERE user_id = ? AND challenge_id = ?`,
		userID, challengeID,
	).Scan(&p.ID, &p.UserID, &p.ChallengeID, &p.Progress, &p.Completed,
		&completedAt, &p.StartedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("challenge progress", challengeID)
		}
		return nil, fmt.Errorf("sqlite: getting challenge progress: %w", err)
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}

// Upsert writes the recomputed progress. The completed flag only ever moves
// from 0 to 1 in storage: the MAX() in the update arm latches it so a lower
// recompute can never clear a completion.
func (s *progressStore) Upsert(ctx context.Context, progress *model.ChallengeProgress) error {
	if progress.ID == "" {
		progress.ID = xid.New().String()
	}
	if progress.StartedAt.IsZero() {
		progress.StartedAt = time.Now()
	}

	var completedAt sql.NullTime
	if progress.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *progress.CompletedAt, Valid: true}
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO challenge_progress (id, user_id, challenge_id, progress,
		    completed, completed_at, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, challenge_id) DO UPDATE SET
		    progress = excluded.progress,
		    completed = MAX(challenge_progress.completed, excluded.completed),
		    completed_at = COALESCE(challenge_progress.completed_at, excluded.completed_at)`,
		progress.ID, progress.UserID, progress.ChallengeID, progress.Progress,
		progress.Completed, completedAt, progress.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting challenge progress: %w", err)
	}
	return nil
}
