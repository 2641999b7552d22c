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

// Create inserts a reward into the catalog (seeding/admin tooling).
func (s *rewardStore) Create(ctx context.Context, reward *model.Reward) error {
	if reward.ID == "" {
		reward.ID = xid.New().String()
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO rewards (id, name, description, point_cost, category, stock, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		reward.ID, reward.Name, reward.Description, reward.Cost,
		reward.Category, reward.Stock, reward.Active,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating reward: %w", err)
	}
	return nil
}

// GetByID retrieves one reward.
func (s *rewardStore) GetByID(ctx context.Context, id string) (*model.Reward, error) {
	var r model.Reward
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, description, point_cost, category, stock, active
		 FROM rewards WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.Name, &r.Description, &r.Cost, &r.Category, &r.Stock, &r.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("reward", id)
		}
		return nil, fmt.Errorf("sqlite: getting reward %s: %w", id, err)
	}
	return &r, nil
}

// ListAvailable returns active, in-stock rewards; with maxCost >= 0 it also
// filters to what the caller can afford.
func (s *rewardStore) ListAvailable(ctx context.Context, maxCost int) ([]model.Reward, error) {
	query := `SELECT id, name, description, point_cost, category, stock, active
		 FROM rewards
		 WHERE active = 1 AND stock > 0`
	args := []any{}
	if maxCost >= 0 {
		query += ` AND point_cost <= ?`
		args = append(args, maxCost)
	}
	query += ` ORDER BY point_cost ASC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing rewards: %w", err)
	}
	defer rows.Close()

	rewards := make([]model.Reward, 0, 16)
	for rows.Next() {
		var r model.Reward
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Cost,
			&r.Category, &r.Stock, &r.Active); err != nil {
			return nil, fmt.Errorf("sqlite: scanning reward row: %w", err)
		}
		rewards = append(rewards, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating rewards: %w", err)
	}
	return rewards, nil
}

// DecrementStock takes one unit with a guarded UPDATE — the WHERE clause
// only matches while stock remains, so concurrent redemptions of the last
// unit leave exactly one winner and stock never goes below zero.
func (s *rewardStore) DecrementStock(ctx context.Context, id string) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE rewards SET stock = stock - 1 WHERE id = ? AND stock > 0`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: decrementing stock for reward %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var stock int
		err := s.q.QueryRowContext(ctx, `SELECT stock FROM rewards WHERE id = ?`, id).Scan(&stock)
		if err == sql.ErrNoRows {
			return apperror.NotFound("reward", id)
		}
		if err != nil {
			return fmt.Errorf("sqlite: reading stock for reward %s: %w", id, err)
		}
		return apperror.Unavailable("reward is out of stock")
	}
	return nil
}

// Create appends a redemption audit record. A reference-code collision
// (UNIQUE column) surfaces as ErrConflict so the service can regenerate.
func (s *redemptionStore) Create(ctx context.Context, redemption *model.Redemption) error {
	redemption.ID = xid.New().String()
	if redemption.RedeemedAt.IsZero() {
		redemption.RedeemedAt = time.Now()
	}
	if redemption.Status == "" {
		redemption.Status = model.StatusPending
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO redemptions (id, user_id, reward_id, name, description,
		    point_cost, category, reference_code, status, redeemed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		redemption.ID, redemption.UserID, redemption.RewardID,
		redemption.Name, redemption.Description, redemption.Cost,
		redemption.Category, redemption.Reference, redemption.Status,
		redemption.RedeemedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("redemption reference code", redemption.Reference)
		}
		return fmt.Errorf("sqlite: creating redemption: %w", err)
	}
	return nil
}

// GetByID retrieves one redemption record.
func (s *redemptionStore) GetByID(ctx context.Context, id string) (*model.Redemption, error) {
	var r model.Redemption
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, reward_id, name, description, point_cost,
		    category, reference_code, status, redeemed_at
		 FROM redemptions WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.UserID, &r.RewardID, &r.Name, &r.Description,
		&r.Cost, &r.Category, &r.Reference, &r.Status, &r.RedeemedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("redemption", id)
		}
		return nil, fmt.Errorf("sqlite: getting redemption %s: %w", id, err)
	}
	return &r, nil
}

// ListByUser returns the user's redemption history, newest first.
func (s *redemptionStore) ListByUser(ctx context.Context, userID string) ([]model.Redemption, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, reward_id, name, description, point_cost,
		    category, reference_code, status, redeemed_at
		 FROM redemptions
		 WHERE user_id = ?
		 ORDER BY redeemed_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing redemptions: %w", err)
	}
	defer rows.Close()

	redemptions := make([]model.Redemption, 0, 16)
	for rows.Next() {
		var r model.Redemption
		if err := rows.Scan(&r.ID, &r.UserID, &r.RewardID, &r.Name, &r.Description,
			&r.Cost, &r.Category, &r.Reference, &r.Status, &r.RedeemedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning redemption row: %w", err)
		}
		redemptions = append(redemptions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating redemptions: %w", err)
	}
	return redemptions, nil
}

// UpdateStatus rewrites the fulfilment status. Edge validation happens in
// the service; this is a plain column update.
func (s *redemptionStore) UpdateStatus(ctx context.Context, id string, status model.RedemptionStatus) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE redemptions SET status = ? WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating redemption status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("redemption", id)
	}
	return nil
}
