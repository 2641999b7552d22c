// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite — no CGo, no C compiler, works
// everywhere Go works. `sql.Open("sqlite", path)` and ":memory:" for tests.
//
// WRITE SERIALIZATION:
// The connection pool is capped at a single connection (SetMaxOpenConns(1)).
// Combined with WAL mode this gives us exactly the concurrency model the
// aggregate invariants need: every transaction — including the multi-step
// trip and redemption units — runs alone against the database, so two
// concurrent submissions for the same user can never interleave their
// read-modify-write. It also makes ":memory:" databases safe to use from a
// pool (a second pooled connection would otherwise see a brand-new empty
// memory database).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/ecomove/ecomove/internal/repository"
)

// queryable is the subset of database/sql shared by *sql.DB and *sql.Tx,
// letting every repository method run either on the base connection or
// inside a transaction without knowing which.
type queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB owns the SQLite connection pool and implements repository.Atomic.
type DB struct {
	conn *sql.DB
}

// One store type per entity, all over the same queryable — the base pool
// outside transactions, a *sql.Tx inside Atomic.
type (
	userStore       struct{ q queryable }
	tripStore       struct{ q queryable }
	challengeStore  struct{ q queryable }
	progressStore   struct{ q queryable }
	rewardStore     struct{ q queryable }
	redemptionStore struct{ q queryable }
)

// Compile-time interface checks.
var (
	_ repository.UserRepository       = (*userStore)(nil)
	_ repository.TripRepository       = (*tripStore)(nil)
	_ repository.ChallengeRepository  = (*challengeStore)(nil)
	_ repository.ProgressRepository   = (*progressStore)(nil)
	_ repository.RewardRepository     = (*rewardStore)(nil)
	_ repository.RedemptionRepository = (*redemptionStore)(nil)
	_ repository.Atomic               = (*DB)(nil)
)

// New opens the database, configures pragmas, and runs migrations.
// Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Single connection: serializes all writes (see package doc) and keeps
	// ":memory:" databases coherent.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write transaction is open.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	// Referential integrity for user_id foreign keys.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Repos returns the repository bundle over the base connection.
func (db *DB) Repos() repository.Repos {
	return reposOver(db.conn)
}

// Atomic runs fn inside a single transaction. If fn returns an error the
// transaction is rolled back and nothing it did is visible; otherwise the
// whole unit commits at once.
func (db *DB) Atomic(ctx context.Context, fn func(repos repository.Repos) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(reposOver(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("sqlite: rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

func reposOver(q queryable) repository.Repos {
	return repository.Repos{
		Users:       &userStore{q: q},
		Trips:       &tripStore{q: q},
		Challenges:  &challengeStore{q: q},
		Progress:    &progressStore{q: q},
		Rewards:     &rewardStore{q: q},
		Redemptions: &redemptionStore{q: q},
	}
}

// isUniqueViolation detects a UNIQUE constraint failure from the driver.
// modernc.org/sqlite surfaces constraint errors as strings, so matching the
// SQLite error text is the portable check.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			email            TEXT NOT NULL UNIQUE,
			password_hash    TEXT NOT NULL,
			points           INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
			level            INTEGER NOT NULL DEFAULT 1,
			co2_saved        REAL NOT NULL DEFAULT 0,
			total_distance   REAL NOT NULL DEFAULT 0,
			badges           TEXT NOT NULL DEFAULT '',
			streak_days      INTEGER NOT NULL DEFAULT 0,
			last_streak_date DATETIME,
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS trips (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL REFERENCES users(id),
			mode             TEXT NOT NULL,
			distance_km      REAL NOT NULL CHECK (distance_km > 0),
			origin_lat       REAL NOT NULL,
			origin_lng       REAL NOT NULL,
			origin_name      TEXT NOT NULL DEFAULT '',
			dest_lat         REAL NOT NULL,
			dest_lng         REAL NOT NULL,
			dest_name        TEXT NOT NULL DEFAULT '',
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			co2_saved        REAL NOT NULL,
			points_earned    INTEGER NOT NULL,
			logged_at        DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_trips_user_logged ON trips(user_id, logged_at);
	`)
	if err != nil {
		return fmt.Errorf("creating trips table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS challenges (
			id            TEXT PRIMARY KEY,
			title         TEXT NOT NULL,
			description   TEXT NOT NULL DEFAULT '',
			goal_type     TEXT NOT NULL,
			target        REAL NOT NULL,
			reward_points INTEGER NOT NULL,
			required_mode TEXT NOT NULL DEFAULT '',
			starts_at     DATETIME NOT NULL,
			ends_at       DATETIME NOT NULL,
			active        INTEGER NOT NULL DEFAULT 1
		);
	`)
	if err != nil {
		return fmt.Errorf("creating challenges table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS challenge_progress (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id),
			challenge_id TEXT NOT NULL REFERENCES challenges(id),
			progress     REAL NOT NULL DEFAULT 0,
			completed    INTEGER NOT NULL DEFAULT 0,
			completed_at DATETIME,
			started_at   DATETIME NOT NULL,
			UNIQUE (user_id, challenge_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating challenge_progress table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS rewards (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			point_cost  INTEGER NOT NULL,
			category    TEXT NOT NULL,
			stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
			active      INTEGER NOT NULL DEFAULT 1
		);
	`)
	if err != nil {
		return fmt.Errorf("creating rewards table: %w", err)
	}

	// reference_code is UNIQUE at the storage level — code uniqueness is
	// enforced here, not merely by the generation algorithm.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS redemptions (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES users(id),
			reward_id      TEXT NOT NULL,
			name           TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			point_cost     INTEGER NOT NULL,
			category       TEXT NOT NULL,
			reference_code TEXT NOT NULL UNIQUE,
			status         TEXT NOT NULL DEFAULT 'pending',
			redeemed_at    DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_redemptions_user ON redemptions(user_id, redeemed_at);
	`)
	if err != nil {
		return fmt.Errorf("creating redemptions table: %w", err)
	}

	return nil
}
