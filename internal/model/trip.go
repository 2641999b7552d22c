package model

import "time"

// TransportMode is one of the five recognized sustainable transport modes.
// The mode set is fixed — there is no runtime-pluggable catalog.
type TransportMode string

const (
	ModeWalk          TransportMode = "walk"
	ModeBike          TransportMode = "bike"
	ModePublicTransit TransportMode = "public_transit"
	ModeCarpool       TransportMode = "carpool"
	ModeScooter       TransportMode = "scooter"
)

// Modes lists every recognized transport mode, in display order.
func Modes() []TransportMode {
	return []TransportMode{ModeWalk, ModeBike, ModePublicTransit, ModeCarpool, ModeScooter}
}

// Valid reports whether m is one of the recognized modes.
func (m TransportMode) Valid() bool {
	switch m {
	case ModeWalk, ModeBike, ModePublicTransit, ModeCarpool, ModeScooter:
		return true
	}
	return false
}

// Place is a named coordinate pair — trip origin or destination.
type Place struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name"`
}

// Trip is one logged journey. Trips are immutable once recorded: the
// computed CO2Saved and Points are snapshotted at logging time so later
// factor changes never rewrite history. There is no trip deletion.
type Trip struct {
	ID       string        `json:"id"       db:"id"`
	UserID   string        `json:"userId"   db:"user_id"`
	Mode     TransportMode `json:"mode"     db:"mode"`
	Distance float64       `json:"distanceKm" db:"distance_km"` // positive, km
	Origin   Place         `json:"origin"`
	Dest     Place         `json:"destination"`
	// Duration is optional — zero means the client did not report it.
	Duration  int       `json:"durationMinutes,omitempty" db:"duration_minutes"`
	CO2Saved  float64   `json:"co2Saved" db:"co2_saved"` // kg, 2dp
	Points    int       `json:"pointsEarned" db:"points_earned"`
	LoggedAt  time.Time `json:"loggedAt" db:"logged_at"`
}

// ModeStats is a per-transport-mode aggregation over a user's trip history,
// used by the trip statistics endpoint.
type ModeStats struct {
	Mode     TransportMode `json:"mode"`
	Trips    int           `json:"trips"`
	Distance float64       `json:"totalDistance"`
	CO2Saved float64       `json:"co2Saved"`
}
