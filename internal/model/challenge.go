package model

import "time"

// GoalType is the metric a challenge measures progress against.
type GoalType string

const (
	GoalDistance     GoalType = "distance"      // sum of trip distances (km)
	GoalTripCount    GoalType = "trip_count"    // number of trips
	GoalCO2          GoalType = "co2"           // sum of CO2 saved (kg)
	GoalModeSpecific GoalType = "mode_specific" // trips using RequiredMode
)

// Valid reports whether g is a recognized goal type.
func (g GoalType) Valid() bool {
	switch g {
	case GoalDistance, GoalTripCount, GoalCO2, GoalModeSpecific:
		return true
	}
	return false
}

// Challenge is a time-boxed goal from the external catalog. The core treats
// the catalog as read-only: challenges are created by seeding/admin tooling
// and assumed immutable after creation.
type Challenge struct {
	ID          string   `json:"id"          db:"id"`
	Title       string   `json:"title"       db:"title"`
	Description string   `json:"description" db:"description"`
	Goal        GoalType `json:"goalType"    db:"goal_type"`
	Target      float64  `json:"target"      db:"target"`
	Reward      int      `json:"rewardPoints" db:"reward_points"`
	// RequiredMode is only meaningful for GoalModeSpecific challenges.
	RequiredMode TransportMode `json:"requiredMode,omitempty" db:"required_mode"`
	StartsAt     time.Time     `json:"startsAt" db:"starts_at"`
	EndsAt       time.Time     `json:"endsAt"   db:"ends_at"`
	Active       bool          `json:"active"   db:"active"`
}

// InWindow reports whether the challenge's active window contains now.
func (c *Challenge) InWindow(now time.Time) bool {
	return c.Active && !now.Before(c.StartsAt) && !now.After(c.EndsAt)
}

// ChallengeProgress is one user×challenge progress record.
//
// Progress is recomputed from the full trip history on every read — it is
// never incrementally maintained, so a recompute is always idempotent.
// Completed, however, LATCHES: once true it is never cleared, even if a
// later recompute yields a lower progress value.
type ChallengeProgress struct {
	ID          string     `json:"id"          db:"id"`
	UserID      string     `json:"userId"      db:"user_id"`
	ChallengeID string     `json:"challengeId" db:"challenge_id"`
	Progress    float64    `json:"progress"    db:"progress"`
	Completed   bool       `json:"completed"   db:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	StartedAt   time.Time  `json:"startedAt"   db:"started_at"`
}

// ChallengeWithProgress is the challenge-list response shape: catalog fields
// plus the caller's recomputed progress.
type ChallengeWithProgress struct {
	Challenge
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
}
