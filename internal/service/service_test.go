package service

// Shared test fixtures for the service layer: hand-written in-memory mocks
// of the repository interfaces, plus a pass-through Atomic. Services see the
// same interfaces they see in production; the mocks keep everything in maps
// so tests run without a database and can force failures the real storage
// layer would make hard to trigger.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/ecomove/ecomove/internal/apperror"
	"github.com/ecomove/ecomove/internal/model"
	"github.com/ecomove/ecomove/internal/repository"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user email", user.Email)
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) DebitPoints(_ context.Context, id string, cost int) (int, error) {
	user, ok := m.users[id]
	if !ok {
		return 0, apperror.NotFound("user", id)
	}
	if user.Points < cost {
		return 0, apperror.InsufficientPoints(user.Points, cost)
	}
	user.Points -= cost
	return user.Points, nil
}

func (m *mockUserRepo) SetLevel(_ context.Context, id string, level int) error {
	user, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	user.Level = level
	return nil
}

func (m *mockUserRepo) Ranking(_ context.Context, limit int) ([]model.RankingEntry, error) {
	entries := make([]model.RankingEntry, 0, len(m.users))
	for _, u := range m.users {
		entries = append(entries, model.RankingEntry{
			ID: u.ID, Name: u.Name, Points: u.Points, Level: u.Level,
			CO2Saved: u.CO2Saved, Badges: u.Badges, StreakDays: u.StreakDays,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Points > entries[j].Points })
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *mockUserRepo) Count(_ context.Context) (int, error) {
	return len(m.users), nil
}

type mockTripRepo struct {
	trips  []model.Trip
	nextID int
}

func (m *mockTripRepo) Create(_ context.Context, trip *model.Trip) error {
	m.nextID++
	trip.ID = fmt.Sprintf("trip-%d", m.nextID)
	m.trips = append(m.trips, *trip)
	return nil
}

func (m *mockTripRepo) ListByUser(_ context.Context, userID string, opts repository.ListOptions) ([]model.Trip, error) {
	var result []model.Trip
	// Newest first
	for i := len(m.trips) - 1; i >= 0; i-- {
		if m.trips[i].UserID == userID {
			result = append(result, m.trips[i])
		}
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return []model.Trip{}, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockTripRepo) AllByUser(_ context.Context, userID string) ([]model.Trip, error) {
	var result []model.Trip
	for _, t := range m.trips {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTripRepo) CountByUser(_ context.Context, userID string) (int, error) {
	count := 0
	for _, t := range m.trips {
		if t.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockTripRepo) StatsByMode(_ context.Context, userID string) ([]model.ModeStats, error) {
	byMode := make(map[model.TransportMode]*model.ModeStats)
	for _, t := range m.trips {
		if t.UserID != userID {
			continue
		}
		s, ok := byMode[t.Mode]
		if !ok {
			s = &model.ModeStats{Mode: t.Mode}
			byMode[t.Mode] = s
		}
		s.Trips++
		s.Distance += t.Distance
		s.CO2Saved += t.CO2Saved
	}
	result := make([]model.ModeStats, 0, len(byMode))
	for _, s := range byMode {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockTripRepo) GlobalTotals(_ context.Context) (int, float64, float64, error) {
	var co2, distance float64
	for _, t := range m.trips {
		co2 += t.CO2Saved
		distance += t.Distance
	}
	return len(m.trips), co2, distance, nil
}

type mockChallengeRepo struct {
	challenges []model.Challenge
	nextID     int
}

func (m *mockChallengeRepo) Create(_ context.Context, challenge *model.Challenge) error {
	m.nextID++
	challenge.ID = fmt.Sprintf("challenge-%d", m.nextID)
	m.challenges = append(m.challenges, *challenge)
	return nil
}

func (m *mockChallengeRepo) ListActive(_ context.Context, now time.Time) ([]model.Challenge, error) {
	var result []model.Challenge
	for _, c := range m.challenges {
		if c.InWindow(now) {
			result = append(result, c)
		}
	}
	return result, nil
}

type mockProgressRepo struct {
	records map[string]*model.ChallengeProgress
	nextID  int
}

func progressKey(userID, challengeID string) string {
	return userID + "|" + challengeID
}

func (m *mockProgressRepo) Get(_ context.Context, userID, challengeID string) (*model.ChallengeProgress, error) {
	record, ok := m.records[progressKey(userID, challengeID)]
	if !ok {
		return nil, apperror.NotFound("challenge progress", challengeID)
	}
	result := *record
	return &result, nil
}

func (m *mockProgressRepo) Upsert(_ context.Context, progress *model.ChallengeProgress) error {
	if progress.ID == "" {
		m.nextID++
		progress.ID = fmt.Sprintf("progress-%d", m.nextID)
	}
	stored := *progress
	m.records[progressKey(progress.UserID, progress.ChallengeID)] = &stored
	return nil
}

type mockRewardRepo struct {
	rewards map[string]*model.Reward
	nextID  int
}

func (m *mockRewardRepo) Create(_ context.Context, reward *model.Reward) error {
	m.nextID++
	reward.ID = fmt.Sprintf("reward-%d", m.nextID)
	stored := *reward
	m.rewards[reward.ID] = &stored
	return nil
}

func (m *mockRewardRepo) GetByID(_ context.Context, id string) (*model.Reward, error) {
	reward, ok := m.rewards[id]
	if !ok {
		return nil, apperror.NotFound("reward", id)
	}
	result := *reward
	return &result, nil
}

func (m *mockRewardRepo) ListAvailable(_ context.Context, maxCost int) ([]model.Reward, error) {
	var result []model.Reward
	for _, r := range m.rewards {
		if !r.Active || r.Stock <= 0 {
			continue
		}
		if maxCost >= 0 && r.Cost > maxCost {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Cost < result[j].Cost })
	return result, nil
}

func (m *mockRewardRepo) DecrementStock(_ context.Context, id string) error {
	reward, ok := m.rewards[id]
	if !ok {
		return apperror.NotFound("reward", id)
	}
	if reward.Stock <= 0 {
		return apperror.Unavailable("reward is out of stock")
	}
	reward.Stock--
	return nil
}

type mockRedemptionRepo struct {
	redemptions []model.Redemption
	nextID      int

	// conflictsRemaining forces the next N Creates to fail with ErrConflict,
	// simulating reference-code collisions.
	conflictsRemaining int
}

func (m *mockRedemptionRepo) Create(_ context.Context, redemption *model.Redemption) error {
	if m.conflictsRemaining > 0 {
		m.conflictsRemaining--
		return apperror.Conflict("redemption reference code", redemption.Reference)
	}
	for _, r := range m.redemptions {
		if r.Reference == redemption.Reference {
			return apperror.Conflict("redemption reference code", redemption.Reference)
		}
	}
	m.nextID++
	redemption.ID = fmt.Sprintf("redemption-%d", m.nextID)
	m.redemptions = append(m.redemptions, *redemption)
	return nil
}

func (m *mockRedemptionRepo) GetByID(_ context.Context, id string) (*model.Redemption, error) {
	for _, r := range m.redemptions {
		if r.ID == id {
			result := r
			return &result, nil
		}
	}
	return nil, apperror.NotFound("redemption", id)
}

func (m *mockRedemptionRepo) ListByUser(_ context.Context, userID string) ([]model.Redemption, error) {
	var result []model.Redemption
	for i := len(m.redemptions) - 1; i >= 0; i-- {
		if m.redemptions[i].UserID == userID {
			result = append(result, m.redemptions[i])
		}
	}
	return result, nil
}

func (m *mockRedemptionRepo) UpdateStatus(_ context.Context, id string, status model.RedemptionStatus) error {
	for i := range m.redemptions {
		if m.redemptions[i].ID == id {
			m.redemptions[i].Status = status
			return nil
		}
	}
	return apperror.NotFound("redemption", id)
}

// =========================================================================
// ATOMIC + FIXTURE
// =========================================================================

// mockAtomic runs fn directly over the shared mocks. There is no real
// transaction to roll back here; commit/rollback semantics are covered by
// the sqlite package's own tests.
type mockAtomic struct {
	repos repository.Repos
}

func (m *mockAtomic) Atomic(_ context.Context, fn func(repos repository.Repos) error) error {
	return fn(m.repos)
}

// fixture bundles every mock so tests can both drive services and inspect
// stored state directly.
type fixture struct {
	repos       repository.Repos
	atomic      *mockAtomic
	users       *mockUserRepo
	trips       *mockTripRepo
	challenges  *mockChallengeRepo
	progress    *mockProgressRepo
	rewards     *mockRewardRepo
	redemptions *mockRedemptionRepo
	logger      *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:       &mockUserRepo{users: make(map[string]*model.User)},
		trips:       &mockTripRepo{},
		challenges:  &mockChallengeRepo{},
		progress:    &mockProgressRepo{records: make(map[string]*model.ChallengeProgress)},
		rewards:     &mockRewardRepo{rewards: make(map[string]*model.Reward)},
		redemptions: &mockRedemptionRepo{},
		logger:      slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	}
	f.repos = repository.Repos{
		Users:       f.users,
		Trips:       f.trips,
		Challenges:  f.challenges,
		Progress:    f.progress,
		Rewards:     f.rewards,
		Redemptions: f.redemptions,
	}
	f.atomic = &mockAtomic{repos: f.repos}
	return f
}

// seedUser stores a user directly, bypassing registration.
func (f *fixture) seedUser(t *testing.T, points int) *model.User {
	t.Helper()
	user := &model.User{
		Name:   "Test User",
		Email:  fmt.Sprintf("user%d@example.com", f.users.nextID+1),
		Points: points,
		Level:  1,
		Badges: []model.BadgeID{},
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// fixedTime is an arbitrary reference instant used wherever a test needs a
// steerable clock.
var fixedTime = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func clockAt(instant time.Time) func() time.Time {
	return func() time.Time { return instant }
}
