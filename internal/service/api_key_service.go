package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/noxvision/accounts-api/internal/apperr"
	"github.com/noxvision/accounts-api/internal/models"
	"github.com/noxvision/accounts-api/internal/repository"
	"github.com/noxvision/accounts-api/internal/token"
)

// ApiKeyService issues, rotates, validates, and deactivates per-account API
// keys. An account holds at most one active key; creating a new one retires
// the previous one in the same transaction.
type ApiKeyService struct {
	keys ApiKeyRepository
}

func NewApiKeyService(keys ApiKeyRepository) *ApiKeyService {
	return &ApiKeyService{keys: keys}
}

// Create rotates in a fresh key: any active key is deactivated and a new
// opaque secret becomes the account's single active key.
func (s *ApiKeyService) Create(ctx context.Context, userID string) (*models.ApiKey, error) {
	secret, err := token.NewOpaqueSecret()
	if err != nil {
		return nil, err
	}

	key, err := s.keys.Rotate(ctx, userID, secret)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate api key: %w", err)
	}
	log.Printf("API key created for user %s", userID)
	return key, nil
}

// Get returns the account's active key, or nil when none exists. Absence is
// not an error; the transport layer decides how to report it.
func (s *ApiKeyService) Get(ctx context.Context, userID string) (*models.ApiKey, error) {
	key, err := s.keys.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrApiKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return key, nil
}

// Validate checks a presented key against the given account.
func (s *ApiKeyService) Validate(ctx context.Context, presentedKey, userID string) (*models.ApiKey, error) {
	key, err := s.keys.GetByKeyAndUserID(ctx, presentedKey, userID)
	if err != nil {
		if errors.Is(err, repository.ErrApiKeyNotFound) {
			return nil, apperr.Unauthorized("Invalid API key")
		}
		return nil, err
	}
	if !key.Status {
		return nil, apperr.Unauthorized("API key is inactive or expired")
	}
	return key, nil
}

// ValidateKey resolves a bare presented key to its active row, for callers
// that authenticate with only the key itself.
func (s *ApiKeyService) ValidateKey(ctx context.Context, presentedKey string) (*models.ApiKey, error) {
	key, err := s.keys.GetActiveByKey(ctx, presentedKey)
	if err != nil {
		if errors.Is(err, repository.ErrApiKeyNotFound) {
			return nil, apperr.Unauthorized("Invalid or inactive API key")
		}
		return nil, err
	}
	return key, nil
}

// Deactivate retires an active key owned by the account.
func (s *ApiKeyService) Deactivate(ctx context.Context, keyID, userID string) error {
	if err := s.keys.Deactivate(ctx, keyID, userID); err != nil {
		if errors.Is(err, repository.ErrApiKeyNotFound) {
			return apperr.NotFound("API key not found")
		}
		return err
	}
	log.Printf("API key %s deactivated for user %s", keyID, userID)
	return nil
}
