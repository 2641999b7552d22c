package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ecomove/ecomove/internal/apperror"
	"github.com/ecomove/ecomove/internal/auth"
	"github.com/ecomove/ecomove/internal/model"
)

func newUserService(f *fixture) *UserService {
	return NewUserService(f.repos, auth.NewPasswordServiceForTest(bcrypt.MinCost), f.logger)
}

// =========================================================================
// PROFILE TESTS
// =========================================================================

func TestMe(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	user := f.seedUser(t, 450)

	f.seedTrip(t, user.ID, model.ModeBike, 10, 1.92)
	f.seedTrip(t, user.ID, model.ModeWalk, 2, 0.38)

	profile, err := svc.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}

	if profile.Points != 450 {
		t.Errorf("Points = %d, want 450", profile.Points)
	}
	if profile.Stats.TripCount != 2 {
		t.Errorf("Stats.TripCount = %d, want 2", profile.Stats.TripCount)
	}
	// Level 1 user: next tier starts at 100 points.
	if profile.NextLevelPoints != 100 {
		t.Errorf("NextLevelPoints = %d, want 100", profile.NextLevelPoints)
	}
}

func TestMe_NotFound(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)

	_, err := svc.Me(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGet_PublicProfile(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	user := f.seedUser(t, 450)

	stored, _ := f.users.GetByID(context.Background(), user.ID)
	stored.Level = 3
	stored.StreakDays = 4
	stored.Badges = []model.BadgeID{model.BadgePlanetGuardian}
	if err := f.users.Update(context.Background(), stored); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	f.seedTrip(t, user.ID, model.ModeBike, 10, 1.92)
	f.seedTrip(t, user.ID, model.ModeBike, 5, 0.96)
	f.seedTrip(t, user.ID, model.ModeWalk, 2, 0.38)

	profile, err := svc.Get(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if profile.ID != user.ID || profile.Name != user.Name {
		t.Errorf("identity = %s/%q, want %s/%q", profile.ID, profile.Name, user.ID, user.Name)
	}
	if profile.Points != 450 || profile.Level != 3 || profile.StreakDays != 4 {
		t.Errorf("gamification = %d/%d/%d, want 450/3/4",
			profile.Points, profile.Level, profile.StreakDays)
	}
	if len(profile.Badges) != 1 || profile.Badges[0] != model.BadgePlanetGuardian {
		t.Errorf("Badges = %v, want [planet_guardian]", profile.Badges)
	}
	if profile.Stats.TripCount != 3 {
		t.Errorf("Stats.TripCount = %d, want 3", profile.Stats.TripCount)
	}
	if len(profile.ByMode) != 2 {
		t.Errorf("ByMode has %d entries, want 2", len(profile.ByMode))
	}
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)

	_, err := svc.Get(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateProfile_NameAndEmail(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	user := f.seedUser(t, 0)

	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
		Name:  "New Name",
		Email: "new@example.com",
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Name != "New Name" {
		t.Errorf("Name = %q, want %q", updated.Name, "New Name")
	}
	if updated.Email != "new@example.com" {
		t.Errorf("Email = %q, want %q", updated.Email, "new@example.com")
	}
}

// Registration and login lowercase emails; a profile update must too, or
// the stored address can never match at login again.
func TestUpdateProfile_LowercasesEmail(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	user := f.seedUser(t, 0)

	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
		Email: "Ana.New@Example.com",
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Email != "ana.new@example.com" {
		t.Errorf("Email = %q, want %q", updated.Email, "ana.new@example.com")
	}
	// The lowercased address is what login looks up.
	if _, err := f.users.GetByEmail(context.Background(), "ana.new@example.com"); err != nil {
		t.Errorf("GetByEmail(lowercased) error = %v", err)
	}
}

func TestUpdateProfile_EmptyFieldsLeaveUnchanged(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	user := f.seedUser(t, 0)

	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Name != user.Name || updated.Email != user.Email {
		t.Errorf("profile changed by empty update: %+v", updated)
	}
}

func TestUpdateProfile_InvalidEmail(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	user := f.seedUser(t, 0)

	_, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{Email: "not-an-email"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestUpdateProfile_PasswordChange(t *testing.T) {
	f := newFixture(t)
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	svc := NewUserService(f.repos, passwords, f.logger)

	user := f.seedUser(t, 0)
	hash, err := passwords.Hash("oldpassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	stored, _ := f.users.GetByID(context.Background(), user.ID)
	stored.PasswordHash = hash
	if err := f.users.Update(context.Background(), stored); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	t.Run("requires current password", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{NewPassword: "newpassword"})
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("rejects wrong current password", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
			CurrentPassword: "wrong",
			NewPassword:     "newpassword",
		})
		if !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("rejects short new password", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
			CurrentPassword: "oldpassword",
			NewPassword:     "short",
		})
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("changes with correct current password", func(t *testing.T) {
		updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
			CurrentPassword: "oldpassword",
			NewPassword:     "newpassword",
		})
		if err != nil {
			t.Fatalf("UpdateProfile() error = %v", err)
		}
		if err := passwords.Verify(updated.PasswordHash, "newpassword"); err != nil {
			t.Errorf("new password does not verify: %v", err)
		}
	})
}

// =========================================================================
// RANKING / GLOBAL STATS TESTS
// =========================================================================

func TestRanking_OrderedByPoints(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)

	for _, points := range []int{150, 900, 300} {
		f.seedUser(t, points)
	}

	entries, err := svc.Ranking(context.Background(), 10)
	if err != nil {
		t.Fatalf("Ranking() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Ranking() returned %d entries, want 3", len(entries))
	}
	if entries[0].Points != 900 || entries[1].Points != 300 || entries[2].Points != 150 {
		t.Errorf("ranking order = %d/%d/%d, want 900/300/150",
			entries[0].Points, entries[1].Points, entries[2].Points)
	}
}

func TestRanking_ClampsLimit(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	f.seedUser(t, 100)

	// Nonsense limits fall back to sane defaults instead of erroring.
	if _, err := svc.Ranking(context.Background(), -1); err != nil {
		t.Errorf("Ranking(-1) error = %v", err)
	}
	if _, err := svc.Ranking(context.Background(), 100000); err != nil {
		t.Errorf("Ranking(100000) error = %v", err)
	}
}

func TestGlobalStats(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)

	a := f.seedUser(t, 0)
	b := f.seedUser(t, 0)
	f.seedTrip(t, a.ID, model.ModeBike, 10, 1.92)
	f.seedTrip(t, b.ID, model.ModeWalk, 2, 0.38)

	stats, err := svc.GlobalStats(context.Background())
	if err != nil {
		t.Fatalf("GlobalStats() error = %v", err)
	}
	if stats.TotalUsers != 2 {
		t.Errorf("TotalUsers = %d, want 2", stats.TotalUsers)
	}
	if stats.TotalTrips != 2 {
		t.Errorf("TotalTrips = %d, want 2", stats.TotalTrips)
	}
	if stats.TotalDistance != 12 {
		t.Errorf("TotalDistance = %v, want 12", stats.TotalDistance)
	}
}
