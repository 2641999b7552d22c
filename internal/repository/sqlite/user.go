package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/ecomove/ecomove/internal/apperror"
	"github.com/ecomove/ecomove/internal/model"
)

// userColumns is the canonical SELECT list, matched by scanUser.
const userColumns = `id, name, email, password_hash, points, level, co2_saved,
	total_distance, badges, streak_days, last_streak_date, created_at, updated_at`

// Create inserts a new user with zeroed gamification totals.
// A duplicate email surfaces as ErrConflict via the UNIQUE constraint.
func (s *userStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Level == 0 {
		user.Level = 1
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, points, level, co2_saved,
		    total_distance, badges, streak_days, last_streak_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.Points, user.Level, user.CO2Saved, user.Distance,
		encodeBadges(user.Badges), user.StreakDays, nullTime(user.LastStreakDate),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "email is already registered",
				Field:   "email",
			}
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user aggregate by its ID.
func (s *userStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (unique, used by login).
func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// Update rewrites every mutable field of the aggregate in one statement.
// Called inside Atomic for trip recording so the aggregate rewrite commits
// together with the trip row.
func (s *userStore) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	result, err := s.q.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, email = ?, password_hash = ?, points = ?, level = ?,
		     co2_saved = ?, total_distance = ?, badges = ?, streak_days = ?,
		     last_streak_date = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name, user.Email, user.PasswordHash, user.Points, user.Level,
		user.CO2Saved, user.Distance, encodeBadges(user.Badges), user.StreakDays,
		nullTime(user.LastStreakDate), user.UpdatedAt, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "email is already registered",
				Field:   "email",
			}
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// DebitPoints subtracts cost from the balance with a guarded UPDATE: the
// WHERE clause only matches while the balance covers the cost, so the
// points column can never go negative — even if two redemptions race, the
// second one's guard simply fails to match.
func (s *userStore) DebitPoints(ctx context.Context, id string, cost int) (int, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE users
		 SET points = points - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND points >= ?`,
		cost, id, cost,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: debiting points for user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the user doesn't exist or the balance is short —
		// disambiguate so the caller gets the right error.
		var points int
		err := s.q.QueryRowContext(ctx, `SELECT points FROM users WHERE id = ?`, id).Scan(&points)
		if err == sql.ErrNoRows {
			return 0, apperror.NotFound("user", id)
		}
		if err != nil {
			return 0, fmt.Errorf("sqlite: reading balance for user %s: %w", id, err)
		}
		return 0, apperror.InsufficientPoints(points, cost)
	}

	var remaining int
	if err := s.q.QueryRowContext(ctx, `SELECT points FROM users WHERE id = ?`, id).Scan(&remaining); err != nil {
		return 0, fmt.Errorf("sqlite: reading balance for user %s: %w", id, err)
	}
	return remaining, nil
}

// SetLevel rewrites the cached level column after a points mutation.
func (s *userStore) SetLevel(ctx context.Context, id string, level int) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE users SET level = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		level, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting level for user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// Ranking returns the top users by points. Ties break by CO2 saved, then
// id, for a stable order.
func (s *userStore) Ranking(ctx context.Context, limit int) ([]model.RankingEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT id, name, points, level, co2_saved, badges, streak_days
		 FROM users
		 ORDER BY points DESC, co2_saved DESC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying ranking: %w", err)
	}
	defer rows.Close()

	entries := make([]model.RankingEntry, 0, limit)
	for rows.Next() {
		var e model.RankingEntry
		var badges string
		if err := rows.Scan(&e.ID, &e.Name, &e.Points, &e.Level, &e.CO2Saved,
			&badges, &e.StreakDays); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ranking row: %w", err)
		}
		e.Badges = decodeBadges(badges)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ranking: %w", err)
	}
	return entries, nil
}

// Count returns the total number of registered users.
func (s *userStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting users: %w", err)
	}
	return n, nil
}

// rowScanner covers *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	var badges string
	var lastStreak sql.NullTime

	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Points, &user.Level, &user.CO2Saved, &user.Distance,
		&badges, &user.StreakDays, &lastStreak,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Badges = decodeBadges(badges)
	if lastStreak.Valid {
		user.LastStreakDate = lastStreak.Time
	}
	return &user, nil
}

// Badges are stored as a comma-separated list of codes. The set is tiny and
// append-only, so a TEXT column beats a join table here.
func encodeBadges(badges []model.BadgeID) string {
	if len(badges) == 0 {
		return ""
	}
	parts := make([]string, len(badges))
	for i, b := range badges {
		parts[i] = string(b)
	}
	return strings.Join(parts, ",")
}

func decodeBadges(encoded string) []model.BadgeID {
	if encoded == "" {
		return []model.BadgeID{}
	}
	parts := strings.Split(encoded, ",")
	badges := make([]model.BadgeID, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			badges = append(badges, model.BadgeID(p))
		}
	}
	return badges
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
