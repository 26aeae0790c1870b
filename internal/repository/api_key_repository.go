package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noxvision/accounts-api/internal/models"
	"gorm.io/gorm"
)

// ErrApiKeyNotFound marks an absent API-key row.
var ErrApiKeyNotFound = errors.New("api key not found")

type ApiKeyRepository struct {
	db *gorm.DB
}

func NewApiKeyRepository(db *gorm.DB) *ApiKeyRepository {
	return &ApiKeyRepository{db: db}
}

// GetActiveByUserID returns the account's single active key, if any
func (r *ApiKeyRepository) GetActiveByUserID(ctx context.Context, userID string) (*models.ApiKey, error) {
	var key models.ApiKey
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, true).
		Order("created_at DESC").
		First(&key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrApiKeyNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", result.Error)
	}
	return &key, nil
}

// GetByKeyAndUserID returns the row matching key value and owner regardless
// of status, so the caller can distinguish "unknown key" from "inactive key".
func (r *ApiKeyRepository) GetByKeyAndUserID(ctx context.Context, key, userID string) (*models.ApiKey, error) {
	var row models.ApiKey
	result := r.db.WithContext(ctx).
		Where("api_key = ? AND user_id = ?", key, userID).
		First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrApiKeyNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", result.Error)
	}
	return &row, nil
}

// GetActiveByKey resolves an active key to its row, used by the API-key
// middleware where the caller presents only the key itself.
func (r *ApiKeyRepository) GetActiveByKey(ctx context.Context, key string) (*models.ApiKey, error) {
	var row models.ApiKey
	result := r.db.WithContext(ctx).
		Where("api_key = ? AND status = ?", key, true).
		First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrApiKeyNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", result.Error)
	}
	return &row, nil
}

// Rotate deactivates any active key the account holds and inserts a new
// active row, in one transaction. The partial unique index on active keys
// makes a concurrent double-rotate fail instead of leaving two active rows.
func (r *ApiKeyRepository) Rotate(ctx context.Context, userID, newKey string) (*models.ApiKey, error) {
	var created *models.ApiKey
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ApiKey{}).
			Where("user_id = ? AND status = ?", userID, true).
			Updates(map[string]interface{}{
				"status":     false,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to deactivate api key: %w", result.Error)
		}

		row := &models.ApiKey{
			UserID: userID,
			Key:    newKey,
			Status: true,
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to create api key: %w", err)
		}
		created = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Deactivate flips an active key owned by userID to inactive
func (r *ApiKeyRepository) Deactivate(ctx context.Context, keyID, userID string) error {
	result := r.db.WithContext(ctx).Model(&models.ApiKey{}).
		Where("id = ? AND user_id = ? AND status = ?", keyID, userID, true).
		Updates(map[string]interface{}{
			"status":     false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate api key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrApiKeyNotFound
	}
	return nil
}
