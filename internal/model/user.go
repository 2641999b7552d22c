// Package model defines the data structures used throughout the application.
package model

import "time"

// User is the per-user aggregate: identity plus the running gamification
// totals (points, level, CO2, distance, badges, streak).
//
// WHY IS Level STORED AT ALL?
// Level is fully derived from Points (see scoring.Level), so storing it is
// technically redundant. We persist it anyway so the ranking query can read
// it without re-deriving, but it is recomputed and rewritten on every points
// mutation — the stored value is a cache of the derivation, never an
// independent source of truth.
//
// WHY PasswordHash AND NOT Password?
// Only the bcrypt hash is ever stored. The json:"-" tag guarantees the hash
// can never leak into an API response, no matter which handler serializes
// the struct.
type User struct {
	ID           string    `json:"id"            db:"id"`
	Name         string    `json:"name"          db:"name"`
	Email        string    `json:"email"         db:"email"` // unique
	PasswordHash string    `json:"-"             db:"password_hash"`
	Points       int       `json:"points"        db:"points"` // never negative
	Level        int       `json:"level"         db:"level"`  // derived from Points
	CO2Saved     float64   `json:"co2Saved"      db:"co2_saved"`
	Distance     float64   `json:"totalDistance" db:"total_distance"`
	Badges       []BadgeID `json:"badges"        db:"badges"` // append-only
	StreakDays   int       `json:"streakDays"    db:"streak_days"`
	// LastStreakDate is the last calendar day (midnight-normalized, local
	// time) on which a streak-qualifying trip was logged. Zero means no
	// qualifying trip has ever been recorded.
	LastStreakDate time.Time `json:"lastStreakDate" db:"last_streak_date"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt"      db:"updated_at"`
}

// HasBadge reports whether the user already holds the given badge.
func (u *User) HasBadge(id BadgeID) bool {
	for _, b := range u.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// BadgeID is a stable badge identifier.
//
// The original product used display strings as identifiers. Display text
// belongs to the presentation layer; the core stores only these fixed codes.
type BadgeID string

const (
	BadgePlanetGuardian   BadgeID = "planet_guardian"   // lifetime CO2 ≥ 100 kg
	BadgeUrbanCyclist     BadgeID = "urban_cyclist"     // lifetime trips ≥ 50
	BadgeGreenMarathoner  BadgeID = "green_marathoner"  // lifetime distance ≥ 500 km
	BadgeSustainableElite BadgeID = "sustainable_elite" // level ≥ 10
)

// LifetimeStats are the accumulated trip totals a user has earned across
// their whole history. The badge evaluator reads these; they are monotonic
// non-decreasing because trips are append-only.
type LifetimeStats struct {
	TripCount int     `json:"tripCount"`
	Distance  float64 `json:"totalDistance"`
	CO2Saved  float64 `json:"co2Saved"`
}

// RankingEntry is one row of the public leaderboard, ordered by points
// descending. It deliberately exposes only non-sensitive fields.
type RankingEntry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Points     int       `json:"points"`
	Level      int       `json:"level"`
	CO2Saved   float64   `json:"co2Saved"`
	Badges     []BadgeID `json:"badges"`
	StreakDays int       `json:"streakDays"`
}

// GlobalStats are platform-wide totals shown on the landing page.
type GlobalStats struct {
	TotalUsers    int     `json:"totalUsers"`
	TotalTrips    int     `json:"totalTrips"`
	TotalCO2Saved float64 `json:"totalCo2Saved"`
	TotalDistance float64 `json:"totalDistance"`
}
