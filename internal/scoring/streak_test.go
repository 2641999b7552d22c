package scoring

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestUpdateStreak_FirstTrip(t *testing.T) {
	got := UpdateStreak(0, time.Time{}, day(2026, time.March, 10))

	if got.Days != 1 {
		t.Errorf("Days = %d, want 1", got.Days)
	}
	if got.Bonus != StreakBonus {
		t.Errorf("Bonus = %d, want %d", got.Bonus, StreakBonus)
	}
	if !got.Date.Equal(day(2026, time.March, 10)) {
		t.Errorf("Date = %v, want %v", got.Date, day(2026, time.March, 10))
	}
}

func TestUpdateStreak_SameDay(t *testing.T) {
	prev := day(2026, time.March, 10)
	// Second trip later the same day — streak unchanged, no second bonus.
	got := UpdateStreak(3, prev, time.Date(2026, time.March, 10, 18, 30, 0, 0, time.UTC))

	if got.Days != 3 {
		t.Errorf("Days = %d, want 3", got.Days)
	}
	if got.Bonus != 0 {
		t.Errorf("Bonus = %d, want 0", got.Bonus)
	}
	if !got.Date.Equal(prev) {
		t.Errorf("Date = %v, want unchanged %v", got.Date, prev)
	}
}

func TestUpdateStreak_ConsecutiveDay(t *testing.T) {
	got := UpdateStreak(3, day(2026, time.March, 10), day(2026, time.March, 11))

	if got.Days != 4 {
		t.Errorf("Days = %d, want 4", got.Days)
	}
	if got.Bonus != StreakBonus {
		t.Errorf("Bonus = %d, want %d", got.Bonus, StreakBonus)
	}
}

func TestUpdateStreak_GapResets(t *testing.T) {
	got := UpdateStreak(14, day(2026, time.March, 10), day(2026, time.March, 13))

	if got.Days != 1 {
		t.Errorf("Days = %d, want reset to 1", got.Days)
	}
	// The reset day still earns the bonus — it starts a new streak.
	if got.Bonus != StreakBonus {
		t.Errorf("Bonus = %d, want %d", got.Bonus, StreakBonus)
	}
}

// A trip dated before the stored streak date must never rewind the streak.
func TestUpdateStreak_BackdatedTrip(t *testing.T) {
	prev := day(2026, time.March, 10)
	got := UpdateStreak(5, prev, day(2026, time.March, 8))

	if got.Days != 5 {
		t.Errorf("Days = %d, want unchanged 5", got.Days)
	}
	if got.Bonus != 0 {
		t.Errorf("Bonus = %d, want 0", got.Bonus)
	}
	if !got.Date.Equal(prev) {
		t.Errorf("Date = %v, want unchanged %v", got.Date, prev)
	}
}

// Streaks count calendar days, not 24h windows: 23:50 one day followed by
// 00:10 the next is consecutive.
func TestUpdateStreak_MidnightBoundary(t *testing.T) {
	prev := time.Date(2026, time.March, 10, 23, 50, 0, 0, time.UTC)
	next := time.Date(2026, time.March, 11, 0, 10, 0, 0, time.UTC)

	got := UpdateStreak(1, prev, next)

	if got.Days != 2 {
		t.Errorf("Days = %d, want 2", got.Days)
	}
	if got.Bonus != StreakBonus {
		t.Errorf("Bonus = %d, want %d", got.Bonus, StreakBonus)
	}
}

func TestUpdateStreak_ZeroStoredCountClamps(t *testing.T) {
	prev := day(2026, time.March, 10)
	got := UpdateStreak(0, prev, prev)

	if got.Days != 1 {
		t.Errorf("Days = %d, want clamped to 1", got.Days)
	}
}
