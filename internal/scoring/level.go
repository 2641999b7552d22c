package scoring

import "math"

// Level derives the progression tier from cumulative points:
//
//	level = floor(sqrt(points / 100)) + 1
//
// Level 1 at 0 points, level 2 at 100, level 3 at 400 — each tier costs
// quadratically more. Monotonic non-decreasing in points.
//
// Level must be recomputed after every points mutation; it is never a
// source of truth on its own. Negative inputs cannot occur (points are
// invariantly non-negative) but clamp to level 1 anyway.
func Level(points int) int {
	if points <= 0 {
		return 1
	}
	return int(math.Floor(math.Sqrt(float64(points)/100))) + 1
}

// PointsForLevel returns the minimum cumulative points needed to reach the
// given level. Inverse of Level, used by the profile endpoint to show
// progress toward the next tier.
func PointsForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	n := level - 1
	return n * n * 100
}
