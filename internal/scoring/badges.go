package scoring

import "github.com/ecomove/ecomove/internal/model"

// badgeRule is one threshold rule in the fixed badge table.
type badgeRule struct {
	id      model.BadgeID
	qualify func(stats model.LifetimeStats, level int) bool
}

// badgeRules is the fixed, ordered badge table. Badges unlock by crossing a
// lifetime-stat or level threshold and are never revoked.
var badgeRules = []badgeRule{
	{model.BadgePlanetGuardian, func(s model.LifetimeStats, _ int) bool { return s.CO2Saved >= 100 }},
	{model.BadgeUrbanCyclist, func(s model.LifetimeStats, _ int) bool { return s.TripCount >= 50 }},
	{model.BadgeGreenMarathoner, func(s model.LifetimeStats, _ int) bool { return s.Distance >= 500 }},
	{model.BadgeSustainableElite, func(_ model.LifetimeStats, level int) bool { return level >= 10 }},
}

// EvaluateBadges unions newly-qualifying badges into the existing set.
//
// The returned set is always a superset of current: evaluation is
// append-only and a held badge is never removed, whatever the stats say.
//
// The result is a fresh slice; the input slice is never mutated.
func EvaluateBadges(current []model.BadgeID, stats model.LifetimeStats, level int) []model.BadgeID {
	result := make([]model.BadgeID, len(current))
	copy(result, current)

	held := make(map[model.BadgeID]bool, len(current))
	for _, b := range current {
		held[b] = true
	}

	for _, rule := range badgeRules {
		if held[rule.id] {
			continue
		}
		if rule.qualify(stats, level) {
			result = append(result, rule.id)
			held[rule.id] = true
		}
	}

	return result
}
