package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ecomove/ecomove/internal/apperror"
	"github.com/ecomove/ecomove/internal/model"
	"github.com/ecomove/ecomove/internal/repository"
	"github.com/ecomove/ecomove/internal/scoring"
)

// referenceRetries bounds regeneration attempts after a reference-code
// collision. Collisions need a same-millisecond timestamp AND a matching
// 5-char random suffix, so one retry has never been observed outside tests
// that force it — but the UNIQUE column is the actual guarantee.
const referenceRetries = 3

// RedemptionResult is the response to a successful redemption.
type RedemptionResult struct {
	Redemption      *model.Redemption `json:"redemption"`
	PointsRemaining int               `json:"pointsRemaining"`
}

// RewardService is the redemption ledger: it validates affordability and
// stock, then atomically debits points, decrements stock, and appends the
// audit record.
type RewardService struct {
	repos  repository.Repos
	atomic repository.Atomic
	logger *slog.Logger
	now    func() time.Time
}

// NewRewardService creates a RewardService.
func NewRewardService(repos repository.Repos, atomic repository.Atomic, logger *slog.Logger) *RewardService {
	return &RewardService{repos: repos, atomic: atomic, logger: logger, now: time.Now}
}

// Redeem exchanges the user's points for one unit of the reward.
//
// The debit, the stock decrement, and the audit record are one transaction:
// either all three commit or none do. Both the debit and the decrement are
// guarded UPDATEs, so even concurrent redemptions racing for the last unit
// of stock (or the last points) finish with exactly one winner — the
// loser's guard fails and its transaction rolls back with the business
// error.
func (s *RewardService) Redeem(ctx context.Context, userID, rewardID string) (*RedemptionResult, error) {
	var result *RedemptionResult

	err := s.atomic.Atomic(ctx, func(repos repository.Repos) error {
		reward, err := repos.Rewards.GetByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if !reward.Active {
			return apperror.Unavailable("reward is no longer available")
		}
		if reward.Stock <= 0 {
			return apperror.Unavailable("reward is out of stock")
		}

		remaining, err := repos.Users.DebitPoints(ctx, userID, reward.Cost)
		if err != nil {
			return err
		}

		// The stored level is a cache of the points derivation: re-derive
		// it from the new balance in the same transaction, or it would
		// stay stale until the next trip.
		if err := repos.Users.SetLevel(ctx, userID, scoring.Level(remaining)); err != nil {
			return err
		}

		if err := repos.Rewards.DecrementStock(ctx, rewardID); err != nil {
			return err
		}

		redemption := &model.Redemption{
			UserID:      userID,
			RewardID:    reward.ID,
			Name:        reward.Name,
			Description: reward.Description,
			Cost:        reward.Cost,
			Category:    reward.Category,
			Status:      model.StatusPending,
			RedeemedAt:  s.now(),
		}

		// The code generator is collision-resistant; the UNIQUE column is
		// collision-proof. Regenerate on the rare conflict.
		for attempt := 0; ; attempt++ {
			redemption.Reference = newReferenceCode(s.now())
			err := repos.Redemptions.Create(ctx, redemption)
			if err == nil {
				break
			}
			if errors.Is(err, apperror.ErrConflict) && attempt < referenceRetries {
				continue
			}
			return err
		}

		result = &RedemptionResult{Redemption: redemption, PointsRemaining: remaining}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reward redeemed",
		slog.String("userId", userID),
		slog.String("rewardId", rewardID),
		slog.String("reference", result.Redemption.Reference),
		slog.Int("pointsRemaining", result.PointsRemaining),
	)

	return result, nil
}

// Catalog returns active, in-stock rewards.
func (s *RewardService) Catalog(ctx context.Context) ([]model.Reward, error) {
	rewards, err := s.repos.Rewards.ListAvailable(ctx, -1)
	if err != nil {
		return nil, fmt.Errorf("listing rewards: %w", err)
	}
	return rewards, nil
}

// Affordable returns active, in-stock rewards the user can pay for today.
func (s *RewardService) Affordable(ctx context.Context, userID string) ([]model.Reward, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	rewards, err := s.repos.Rewards.ListAvailable(ctx, user.Points)
	if err != nil {
		return nil, fmt.Errorf("listing affordable rewards: %w", err)
	}
	return rewards, nil
}

// History returns the user's redemptions, newest first.
func (s *RewardService) History(ctx context.Context, userID string) ([]model.Redemption, error) {
	redemptions, err := s.repos.Redemptions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing redemptions: %w", err)
	}
	return redemptions, nil
}

// Transition moves a redemption along the fulfilment state machine. Only
// the forward edges (pending→processing→delivered) and cancellation from a
// non-terminal state are allowed; anything else is a validation failure.
// State changes are operator actions — nothing transitions automatically.
func (s *RewardService) Transition(ctx context.Context, redemptionID string, next model.RedemptionStatus) (*model.Redemption, error) {
	if !next.Valid() {
		return nil, apperror.ValidationFailed("status", "unrecognized status: "+string(next))
	}

	var updated *model.Redemption
	err := s.atomic.Atomic(ctx, func(repos repository.Repos) error {
		redemption, err := repos.Redemptions.GetByID(ctx, redemptionID)
		if err != nil {
			return err
		}
		if !redemption.Status.CanTransitionTo(next) {
			return apperror.ValidationFailed("status",
				fmt.Sprintf("cannot transition redemption from %s to %s", redemption.Status, next))
		}
		if err := repos.Redemptions.UpdateStatus(ctx, redemptionID, next); err != nil {
			return err
		}
		redemption.Status = next
		updated = redemption
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("redemption status changed",
		slog.String("redemptionId", redemptionID),
		slog.String("status", string(next)),
	)
	return updated, nil
}

// newReferenceCode builds a redemption reference: prefix, base-36 timestamp
// (millisecond precision, so codes sort roughly by time), and a 5-char
// random suffix. Uniqueness is enforced by the storage constraint, not by
// this generator.
func newReferenceCode(now time.Time) string {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	suffix := make([]byte, 5)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand failing means the OS entropy source is broken;
			// fall back to a timestamp-derived character rather than panic.
			suffix[i] = alphabet[now.UnixNano()%int64(len(alphabet))]
			continue
		}
		suffix[i] = alphabet[n.Int64()]
	}

	return "ECO-" + ts + "-" + string(suffix)
}
