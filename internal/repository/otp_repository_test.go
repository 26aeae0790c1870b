package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/noxvision/accounts-api/internal/models"
)

func TestOtpRepository_StoreOverwritesUnusedRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewOtpRepository(db)
	ctx := context.Background()

	expiry := time.Now().Add(10 * time.Minute)
	if err := repo.Store(ctx, "user-1", models.OtpPurposePasswordSetup, "111111", expiry); err != nil {
		t.Fatalf("first store failed: %v", err)
	}
	if err := repo.Store(ctx, "user-1", models.OtpPurposePasswordSetup, "222222", expiry); err != nil {
		t.Fatalf("second store failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.Otp{}).
		Where("user_id = ? AND used = ?", "user-1", false).
		Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one unused row per (user, purpose), got %d", count)
	}

	// The surviving row carries the newest code; the old code is gone.
	if _, err := repo.GetLatestByUserAndCode(ctx, "user-1", "111111"); !errors.Is(err, ErrOtpNotFound) {
		t.Errorf("expected the overwritten code to be gone, got %v", err)
	}
	got, err := repo.GetLatestByUserAndCode(ctx, "user-1", "222222")
	if err != nil {
		t.Fatalf("expected the newest code, got %v", err)
	}
	if got.Used {
		t.Error("the reissued code must be unused")
	}
}

func TestOtpRepository_UsedRowIsNotOverwritten(t *testing.T) {
	repo := NewOtpRepository(newTestDB(t))
	ctx := context.Background()

	expiry := time.Now().Add(10 * time.Minute)
	if err := repo.Store(ctx, "user-1", models.OtpPurposePasswordSetup, "111111", expiry); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	first, err := repo.GetLatestByUserAndCode(ctx, "user-1", "111111")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if err := repo.MarkUsed(ctx, first.ID); err != nil {
		t.Fatalf("mark used failed: %v", err)
	}

	if err := repo.Store(ctx, "user-1", models.OtpPurposePasswordSetup, "222222", expiry); err != nil {
		t.Fatalf("store after use failed: %v", err)
	}

	// The used code is preserved so a replay is detected as "already used"
	// rather than "invalid".
	used, err := repo.GetLatestByUserAndCode(ctx, "user-1", "111111")
	if err != nil {
		t.Fatalf("expected the used row kept, got %v", err)
	}
	if !used.Used {
		t.Error("expected the old row still flagged used")
	}
	fresh, err := repo.GetLatestByUserAndCode(ctx, "user-1", "222222")
	if err != nil {
		t.Fatalf("expected the fresh row, got %v", err)
	}
	if fresh.Used {
		t.Error("expected the fresh row unused")
	}
	if fresh.ID == used.ID {
		t.Error("a used row must not be recycled")
	}
}

func TestOtpRepository_MarkUsedMissingRow(t *testing.T) {
	repo := NewOtpRepository(newTestDB(t))

	if err := repo.MarkUsed(context.Background(), "missing-id"); !errors.Is(err, ErrOtpNotFound) {
		t.Errorf("expected ErrOtpNotFound, got %v", err)
	}
}

func TestOtpRepository_ScopedPerUser(t *testing.T) {
	repo := NewOtpRepository(newTestDB(t))
	ctx := context.Background()

	expiry := time.Now().Add(10 * time.Minute)
	if err := repo.Store(ctx, "user-1", models.OtpPurposePasswordSetup, "111111", expiry); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	// Another user's code must not resolve against this account.
	if _, err := repo.GetLatestByUserAndCode(ctx, "user-2", "111111"); !errors.Is(err, ErrOtpNotFound) {
		t.Errorf("expected ErrOtpNotFound for the wrong user, got %v", err)
	}
}
