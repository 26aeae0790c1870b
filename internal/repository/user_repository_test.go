package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/noxvision/accounts-api/internal/models"
)

func seedUser(t *testing.T, repo *UserRepository, user *models.User) *models.User {
	t.Helper()
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestUserRepository_CreateAndLookups(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	hash := "bcrypt-hash"
	googleID := "google-sub-1"
	resetHash := "reset-digest"
	verifyToken := "verify-token"
	expiry := time.Now().Add(time.Hour)
	user := seedUser(t, repo, &models.User{
		Name:                    "Alice",
		Email:                   "alice@example.com",
		Password:                &hash,
		GoogleID:                &googleID,
		ResetToken:              &resetHash,
		ResetTokenExpiry:        &expiry,
		EmailVerificationToken:  &verifyToken,
		EmailVerificationExpiry: &expiry,
	})
	if user.ID == "" {
		t.Fatal("expected an id assigned on create")
	}

	lookups := []struct {
		name string
		get  func() (*models.User, error)
	}{
		{"by id", func() (*models.User, error) { return repo.GetByID(ctx, user.ID) }},
		{"by email", func() (*models.User, error) { return repo.GetByEmail(ctx, "alice@example.com") }},
		{"by google id", func() (*models.User, error) { return repo.GetByGoogleID(ctx, "google-sub-1") }},
		{"by reset token hash", func() (*models.User, error) { return repo.GetByResetTokenHash(ctx, "reset-digest") }},
		{"by verification token", func() (*models.User, error) { return repo.GetByVerificationToken(ctx, "verify-token") }},
	}
	for _, l := range lookups {
		got, err := l.get()
		if err != nil {
			t.Errorf("lookup %s failed: %v", l.name, err)
			continue
		}
		if got.ID != user.ID {
			t.Errorf("lookup %s returned wrong row: %s", l.name, got.ID)
		}
	}
}

func TestUserRepository_AbsentRowsReturnSentinel(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if err := repo.SetOnboarded(ctx, "missing-id"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound on update, got %v", err)
	}
}

func TestUserRepository_LinkAndUnlinkGoogleID(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := seedUser(t, repo, &models.User{Name: "Alice", Email: "alice@example.com"})

	if err := repo.LinkGoogleID(ctx, user.ID, "google-sub-1"); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	got, err := repo.GetByGoogleID(ctx, "google-sub-1")
	if err != nil {
		t.Fatalf("expected linked row, got %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("linked the wrong row: %s", got.ID)
	}

	if err := repo.UnlinkGoogleID(ctx, user.ID); err != nil {
		t.Fatalf("unlink failed: %v", err)
	}
	if _, err := repo.GetByGoogleID(ctx, "google-sub-1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected no row after unlink, got %v", err)
	}
}

func TestUserRepository_UpdateProfileAppliesOnlyNonNilFields(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := seedUser(t, repo, &models.User{
		Name:        "Alice",
		Email:       "alice@example.com",
		EmailAlerts: true,
	})

	name := "Alice Cooper"
	if err := repo.UpdateProfile(ctx, user.ID, ProfileUpdate{Name: &name}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.Name != "Alice Cooper" {
		t.Errorf("expected name updated, got %q", got.Name)
	}
	if !got.EmailAlerts {
		t.Error("fields not named in the update must keep their value")
	}
	if got.Email != "alice@example.com" {
		t.Error("email must be untouched by profile updates")
	}

	// An empty update is a no-op, not an error.
	if err := repo.UpdateProfile(ctx, user.ID, ProfileUpdate{}); err != nil {
		t.Errorf("empty update should succeed, got %v", err)
	}
}

func TestUserRepository_SetPasswordClearsResetToken(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := seedUser(t, repo, &models.User{Name: "Alice", Email: "alice@example.com"})
	if err := repo.SetResetToken(ctx, user.ID, "reset-digest", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("set reset token failed: %v", err)
	}

	if err := repo.SetPassword(ctx, user.ID, "new-hash"); err != nil {
		t.Fatalf("set password failed: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.Password == nil || *got.Password != "new-hash" {
		t.Error("expected the new password hash stored")
	}
	if got.ResetToken != nil || got.ResetTokenExpiry != nil {
		t.Error("setting a password must clear the reset token in the same update")
	}
	if _, err := repo.GetByResetTokenHash(ctx, "reset-digest"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("a consumed reset token must not resolve, got %v", err)
	}
}

func TestUserRepository_MarkEmailVerified(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := seedUser(t, repo, &models.User{Name: "Alice", Email: "alice@example.com"})
	if err := repo.SetVerificationToken(ctx, user.ID, "verify-token", time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("set verification token failed: %v", err)
	}

	if err := repo.MarkEmailVerified(ctx, user.ID); err != nil {
		t.Fatalf("mark verified failed: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !got.IsEmailVerified {
		t.Error("expected verified flag set")
	}
	if got.EmailVerificationToken != nil || got.EmailVerificationExpiry != nil {
		t.Error("expected the verification token cleared")
	}
}
