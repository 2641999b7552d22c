package scoring

import "time"

// StreakBonus is awarded each calendar day the streak starts or extends.
// Repeat trips on the same day never re-award it.
const StreakBonus = 200

// StreakResult is the outcome of applying one trip to the streak state.
type StreakResult struct {
	Days  int       // new consecutive-day count
	Date  time.Time // new last-streak date, midnight-normalized
	Bonus int       // 0 or StreakBonus
}

// UpdateStreak applies a trip logged "today" to the stored streak state.
//
// Streaks count consecutive calendar days (local midnight boundaries, not
// rolling 24h windows):
//
//	no previous date  → streak 1, bonus awarded (first trip, or first after reset)
//	same day          → unchanged, no bonus
//	next day          → streak+1, bonus awarded
//	gap of 2+ days    → streak resets to 1, bonus awarded
//
// A trip dated BEFORE the stored streak date (clock skew, backdated client)
// is treated as a same-day no-op: the trip itself is still recorded by the
// caller, but streak state is never rewound or corrupted by it.
func UpdateStreak(prevDays int, prevDate, today time.Time) StreakResult {
	day := midnight(today)

	if prevDate.IsZero() {
		return StreakResult{Days: 1, Date: day, Bonus: StreakBonus}
	}

	prev := midnight(prevDate)
	diff := daysBetween(prev, day)

	switch {
	case diff <= 0:
		// Same day, or backdated — keep state as-is. Guard against a
		// stored zero count from before the streak system existed.
		days := prevDays
		if days < 1 {
			days = 1
		}
		return StreakResult{Days: days, Date: prev, Bonus: 0}
	case diff == 1:
		return StreakResult{Days: prevDays + 1, Date: day, Bonus: StreakBonus}
	default:
		return StreakResult{Days: 1, Date: day, Bonus: StreakBonus}
	}
}

// midnight normalizes t to 00:00 of its calendar day, preserving location.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from a to b (both already
// midnight-normalized). The duration is rounded to the nearest 24h before
// dividing, so the 23h/25h days around a DST transition still count as one.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Round(24*time.Hour) / (24 * time.Hour))
}
