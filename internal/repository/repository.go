// Package repository declares the storage interfaces the service layer
// depends on. Services program against these interfaces; the sqlite
// subpackage provides the real implementation and tests provide mocks.
package repository

import (
	"context"
	"time"

	"github.com/ecomove/ecomove/internal/model"
)

// ListOptions paginates list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository reads and writes the per-user aggregate.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Update persists every mutable aggregate field (points, level, CO2,
	// distance, badges, streak, profile fields) in a single statement.
	Update(ctx context.Context, user *model.User) error
	// DebitPoints atomically subtracts cost from the user's points, but
	// only if the balance covers it. Returns ErrInsufficientPoints
	// otherwise — the balance can never go negative.
	DebitPoints(ctx context.Context, id string, cost int) (remaining int, err error)
	// SetLevel rewrites the cached level column. Callers invoke it right
	// after a points mutation, with the level re-derived from the new
	// balance.
	SetLevel(ctx context.Context, id string, level int) error
	Ranking(ctx context.Context, limit int) ([]model.RankingEntry, error)
	Count(ctx context.Context) (int, error)
}

// TripRepository stores the append-only trip log.
type TripRepository interface {
	Create(ctx context.Context, trip *model.Trip) error
	// ListByUser returns the user's trips, newest first.
	ListByUser(ctx context.Context, userID string, opts ListOptions) ([]model.Trip, error)
	// AllByUser returns the user's full trip history (challenge recompute
	// scans everything, oldest first).
	AllByUser(ctx context.Context, userID string) ([]model.Trip, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	StatsByMode(ctx context.Context, userID string) ([]model.ModeStats, error)
	GlobalTotals(ctx context.Context) (trips int, co2 float64, distance float64, err error)
}

// ChallengeRepository reads the challenge catalog.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *model.Challenge) error
	// ListActive returns challenges whose active window contains now.
	ListActive(ctx context.Context, now time.Time) ([]model.Challenge, error)
}

// ProgressRepository stores per-user×challenge progress records.
type ProgressRepository interface {
	// Get returns the progress record, or apperror.ErrNotFound if the
	// pair has never been evaluated.
	Get(ctx context.Context, userID, challengeID string) (*model.ChallengeProgress, error)
	// Upsert creates the record on first evaluation and rewrites progress
	// on subsequent ones. A persisted completed=true is never cleared.
	Upsert(ctx context.Context, progress *model.ChallengeProgress) error
}

// RewardRepository reads the reward catalog and guards its stock.
type RewardRepository interface {
	Create(ctx context.Context, reward *model.Reward) error
	GetByID(ctx context.Context, id string) (*model.Reward, error)
	// ListAvailable returns active, in-stock rewards. maxCost < 0 means no
	// affordability filter; otherwise only rewards with cost <= maxCost.
	ListAvailable(ctx context.Context, maxCost int) ([]model.Reward, error)
	// DecrementStock atomically takes one unit of stock, but only if any
	// remains. Returns ErrUnavailable when the last unit is already gone —
	// stock can never go negative.
	DecrementStock(ctx context.Context, id string) error
}

// RedemptionRepository stores the append-only redemption audit trail.
type RedemptionRepository interface {
	// Create persists the record. The reference code column is UNIQUE;
	// a collision surfaces as apperror.ErrConflict so the caller can
	// regenerate and retry.
	Create(ctx context.Context, redemption *model.Redemption) error
	GetByID(ctx context.Context, id string) (*model.Redemption, error)
	ListByUser(ctx context.Context, userID string) ([]model.Redemption, error)
	UpdateStatus(ctx context.Context, id string, status model.RedemptionStatus) error
}

// Atomic runs fn inside a single storage transaction. Every repository call
// made through the repos passed to fn either commits as one unit or rolls
// back entirely; a returned error aborts the whole transaction.
//
// Trip recording (persist trip + rewrite aggregate + badges) and redemption
// (debit points + decrement stock + append record) both run under Atomic.
type Atomic interface {
	Atomic(ctx context.Context, fn func(repos Repos) error) error
}

// Repos bundles every repository over one shared transaction (or over the
// base connection, outside Atomic).
type Repos struct {
	Users       UserRepository
	Trips       TripRepository
	Challenges  ChallengeRepository
	Progress    ProgressRepository
	Rewards     RewardRepository
	Redemptions RedemptionRepository
}
