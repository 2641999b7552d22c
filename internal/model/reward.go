package model

import "time"

// RewardCategory groups catalog rewards for display filtering.
type RewardCategory string

const (
	CategoryConsole    RewardCategory = "console"
	CategoryTechnology RewardCategory = "technology"
	CategoryProduct    RewardCategory = "product"
	CategoryCash       RewardCategory = "cash"
)

// Reward is a catalog item users can redeem points for. The catalog itself
// is external to the core; the only field the core mutates is Stock, and
// only downward, never below zero.
type Reward struct {
	ID          string         `json:"id"          db:"id"`
	Name        string         `json:"name"        db:"name"`
	Description string         `json:"description" db:"description"`
	Cost        int            `json:"pointCost"   db:"point_cost"`
	Category    RewardCategory `json:"category"    db:"category"`
	Stock       int            `json:"stock"       db:"stock"` // non-negative
	Active      bool           `json:"active"      db:"active"`
}

// RedemptionStatus is the fulfilment state of a redemption.
//
// Allowed transitions (forward only, applied by external operators):
//
//	pending → processing → delivered
//	pending | processing → cancelled
type RedemptionStatus string

const (
	StatusPending    RedemptionStatus = "pending"
	StatusProcessing RedemptionStatus = "processing"
	StatusDelivered  RedemptionStatus = "delivered"
	StatusCancelled  RedemptionStatus = "cancelled"
)

// Valid reports whether s is a recognized status.
func (s RedemptionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status may move from s to next.
func (s RedemptionStatus) CanTransitionTo(next RedemptionStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusDelivered || next == StatusCancelled
	}
	// delivered and cancelled are terminal
	return false
}

// Redemption is the immutable audit record of one points-for-reward
// exchange.
//
// WHY SNAPSHOT THE REWARD FIELDS?
// The catalog can change after a redemption (price raised, item renamed,
// deactivated). The audit trail must reflect what the user actually paid
// for at the time, so name/description/cost/category are copied into the
// record rather than referenced live.
type Redemption struct {
	ID          string           `json:"id"          db:"id"`
	UserID      string           `json:"userId"      db:"user_id"`
	RewardID    string           `json:"rewardId"    db:"reward_id"`
	Name        string           `json:"name"        db:"name"`
	Description string           `json:"description" db:"description"`
	Cost        int              `json:"pointCost"   db:"point_cost"`
	Category    RewardCategory   `json:"category"    db:"category"`
	Reference   string           `json:"referenceCode" db:"reference_code"` // unique
	Status      RedemptionStatus `json:"status"      db:"status"`
	RedeemedAt  time.Time        `json:"redeemedAt"  db:"redeemed_at"`
}
