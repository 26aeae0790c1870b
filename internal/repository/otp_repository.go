package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noxvision/accounts-api/internal/models"
	"gorm.io/gorm"
)

// ErrOtpNotFound marks an absent OTP row.
var ErrOtpNotFound = errors.New("otp not found")

type OtpRepository struct {
	db *gorm.DB
}

func NewOtpRepository(db *gorm.DB) *OtpRepository {
	return &OtpRepository{db: db}
}

// Store saves a fresh code for (user, purpose). An existing unused row for the
// same pair is overwritten in place, so codes never accumulate per purpose.
func (r *OtpRepository) Store(ctx context.Context, userID, purpose, code string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Otp
		err := tx.Where("user_id = ? AND purpose = ? AND used = ?", userID, purpose, false).
			First(&existing).Error
		if err == nil {
			result := tx.Model(&models.Otp{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"code":       code,
					"expires_at": expiresAt,
					"updated_at": time.Now(),
				})
			if result.Error != nil {
				return fmt.Errorf("failed to overwrite otp: %w", result.Error)
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up otp: %w", err)
		}

		otp := &models.Otp{
			UserID:    userID,
			Code:      code,
			Purpose:   purpose,
			ExpiresAt: expiresAt,
		}
		if err := tx.Create(otp).Error; err != nil {
			return fmt.Errorf("failed to store otp: %w", err)
		}
		return nil
	})
}

// GetLatestByUserAndCode returns the most recent row matching user and code,
// regardless of used/expired state, so the caller can report the precise
// failure.
func (r *OtpRepository) GetLatestByUserAndCode(ctx context.Context, userID, code string) (*models.Otp, error) {
	var otp models.Otp
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ?", userID, code).
		Order("created_at DESC").
		First(&otp)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOtpNotFound
		}
		return nil, fmt.Errorf("failed to get otp: %w", result.Error)
	}
	return &otp, nil
}

// MarkUsed flags the OTP row as consumed
func (r *OtpRepository) MarkUsed(ctx context.Context, otpID string) error {
	result := r.db.WithContext(ctx).Model(&models.Otp{}).
		Where("id = ?", otpID).
		Updates(map[string]interface{}{
			"used":       true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark otp used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOtpNotFound
	}
	return nil
}
