// Package scoring implements the impact-scoring and progression engine:
// the deterministic rules that turn a raw trip into CO2 savings and points,
// derive levels from points, maintain daily streaks, and unlock badges.
//
// Everything in this package is a pure function over immutable inputs — no
// I/O, no clocks (callers pass "today" in), no package-level mutable state.
// That makes every rule trivially testable and guarantees the same trip
// always scores the same way.
package scoring

import (
	"math"

	"github.com/ecomove/ecomove/internal/apperror"
	"github.com/ecomove/ecomove/internal/model"
)

// ModeFactors are the per-mode scoring constants.
type ModeFactors struct {
	// Emission is the mode's own emission factor in kg CO2 per km. CO2
	// saved is measured against the car baseline, so walking and cycling
	// (zero emission) save the full baseline per km.
	Emission float64
	// PointsPerKm is the base point rate for the mode.
	PointsPerKm float64
	// Bonus is the mode's reward multiplier; gentler modes pay more.
	Bonus float64
}

// Factors is the full scoring configuration. The table is an immutable value
// captured by the Calculator at construction: nothing can change a factor
// mid-flight, and tests can pass custom tables without touching global state.
type Factors struct {
	// CarBaseline is the reference car emission factor in kg CO2 per km.
	CarBaseline float64
	Modes       map[model.TransportMode]ModeFactors
}

// DefaultFactors returns the production scoring table.
func DefaultFactors() Factors {
	return Factors{
		CarBaseline: 0.192,
		Modes: map[model.TransportMode]ModeFactors{
			model.ModeWalk:          {Emission: 0, PointsPerKm: 18, Bonus: 1.3},
			model.ModeBike:          {Emission: 0, PointsPerKm: 15, Bonus: 1.2},
			model.ModePublicTransit: {Emission: 0.041, PointsPerKm: 8, Bonus: 1.0},
			model.ModeCarpool:       {Emission: 0.048, PointsPerKm: 10, Bonus: 1.1},
			model.ModeScooter:       {Emission: 0.025, PointsPerKm: 12, Bonus: 1.15},
		},
	}
}

// Impact is the (CO2 saved, points earned) pair computed from one trip.
type Impact struct {
	CO2Saved float64 // kg, rounded to 2 decimal places
	Points   int
}

// Calculator computes trip impact from an immutable factor table.
type Calculator struct {
	factors Factors
}

// NewCalculator creates a Calculator over the given factor table.
func NewCalculator(factors Factors) *Calculator {
	return &Calculator{factors: factors}
}

// Impact computes the CO2 saved and points earned for a single trip.
//
//	co2Saved = distance * (carBaseline - modeEmission), rounded to 2dp
//	points   = round(distance * pointsPerKm * bonus)
//
// Returns ErrValidation if the mode is unrecognized or the distance is not
// a finite positive number.
func (c *Calculator) Impact(mode model.TransportMode, distanceKm float64) (Impact, error) {
	factor, ok := c.factors.Modes[mode]
	if !ok {
		return Impact{}, apperror.ValidationFailed("mode", "unrecognized transport mode: "+string(mode))
	}
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm <= 0 {
		return Impact{}, apperror.ValidationFailed("distanceKm", "distance must be a positive number of kilometres")
	}

	co2 := distanceKm * (c.factors.CarBaseline - factor.Emission)
	points := math.Round(distanceKm * factor.PointsPerKm * factor.Bonus)

	return Impact{
		CO2Saved: round2(co2),
		Points:   int(points),
	}, nil
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
