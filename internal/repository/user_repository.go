package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noxvision/accounts-api/internal/models"
	"gorm.io/gorm"
)

// ErrUserNotFound marks an absent account. It is the store's "absent" signal;
// callers translate it into their own failure kind.
var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, append([]interface{}{query}, args...)...)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", result.Error)
	}
	return &user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", userID)
}

// GetByEmail retrieves a user by email (exact, case-sensitive match)
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// GetByGoogleID retrieves a user by Google subject identifier
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.findOne(ctx, "google_id = ?", googleID)
}

// GetByResetTokenHash retrieves a user by the stored reset-token digest
func (r *UserRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	return r.findOne(ctx, "reset_token = ?", tokenHash)
}

// GetByVerificationToken retrieves a user by email-verification token
func (r *UserRepository) GetByVerificationToken(ctx context.Context, tokenValue string) (*models.User, error) {
	return r.findOne(ctx, "email_verification_token = ?", tokenValue)
}

// Create persists a new user row
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// LinkGoogleID attaches a Google subject identifier to an existing user
func (r *UserRepository) LinkGoogleID(ctx context.Context, userID, googleID string) error {
	return r.update(ctx, userID, map[string]interface{}{
		"google_id": googleID,
	})
}

// UnlinkGoogleID clears the Google subject identifier
func (r *UserRepository) UnlinkGoogleID(ctx context.Context, userID string) error {
	return r.update(ctx, userID, map[string]interface{}{
		"google_id": nil,
	})
}

// ProfileUpdate lists the mutable profile fields. Nil pointers leave the
// stored value untouched; anything not listed here cannot be updated.
type ProfileUpdate struct {
	Name            *string
	EmailAlerts     *bool
	AvatarURL       *string
	IsEmailVerified *bool
}

// UpdateProfile applies the non-nil fields of upd to the user row
func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) error {
	fields := map[string]interface{}{}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.EmailAlerts != nil {
		fields["email_alerts"] = *upd.EmailAlerts
	}
	if upd.AvatarURL != nil {
		fields["avatar_url"] = *upd.AvatarURL
	}
	if upd.IsEmailVerified != nil {
		fields["is_email_verified"] = *upd.IsEmailVerified
	}
	if len(fields) == 0 {
		return nil
	}
	return r.update(ctx, userID, fields)
}

// SetPassword stores a new password hash and clears the reset-token fields in
// the same update, so a consumed reset token cannot be replayed.
func (r *UserRepository) SetPassword(ctx context.Context, userID, passwordHash string) error {
	return r.update(ctx, userID, map[string]interface{}{
		"password":           passwordHash,
		"reset_token":        nil,
		"reset_token_expiry": nil,
	})
}

// SetResetToken stores the reset-token digest and its expiry
func (r *UserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{
		"reset_token":        tokenHash,
		"reset_token_expiry": expiry,
	})
}

// SetVerificationToken stores a fresh email-verification token and expiry
func (r *UserRepository) SetVerificationToken(ctx context.Context, userID, tokenValue string, expiry time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{
		"email_verification_token":  tokenValue,
		"email_verification_expiry": expiry,
	})
}

// MarkEmailVerified flips the verified flag and clears the verification token
func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID string) error {
	return r.update(ctx, userID, map[string]interface{}{
		"is_email_verified":         true,
		"email_verification_token":  nil,
		"email_verification_expiry": nil,
	})
}

// SetOnboarded flips the onboarded flag
func (r *UserRepository) SetOnboarded(ctx context.Context, userID string) error {
	return r.update(ctx, userID, map[string]interface{}{
		"onboarded": true,
	})
}

func (r *UserRepository) update(ctx context.Context, userID string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
