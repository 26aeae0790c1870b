package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/noxvision/accounts-api/internal/apperr"
	"github.com/noxvision/accounts-api/internal/models"
	"github.com/noxvision/accounts-api/internal/repository"
)

// GoogleAuthService maps a Google identity assertion onto a local account,
// creating or linking as needed. It never issues session tokens itself; the
// lifecycle engine does that after resolution.
type GoogleAuthService struct {
	users    UserRepository
	verifier GoogleVerifier
}

func NewGoogleAuthService(users UserRepository, verifier GoogleVerifier) *GoogleAuthService {
	return &GoogleAuthService{
		users:    users,
		verifier: verifier,
	}
}

// Resolve verifies the access token against Google and returns the matching
// local account. Resolution order: stored Google subject id, then email
// (linking the Google id to the existing account), then a brand-new account.
// The second return value is true only when a new account was created.
func (s *GoogleAuthService) Resolve(ctx context.Context, accessToken string) (*models.User, bool, error) {
	identity, err := s.verifier.Verify(ctx, accessToken)
	if err != nil {
		log.Printf("Google token verification failed: %v", err)
		return nil, false, apperr.Unauthorized("Invalid or expired access token")
	}

	user, err := s.users.GetByGoogleID(ctx, identity.SubjectID)
	if err == nil {
		log.Printf("Google user logged in: %s", identity.Email)
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, fmt.Errorf("failed to look up google id: %w", err)
	}

	existing, err := s.users.GetByEmail(ctx, identity.Email)
	if err == nil {
		// Same email registered locally: attach the Google id so the
		// account gains a second auth method without losing the first.
		if err := s.users.LinkGoogleID(ctx, existing.ID, identity.SubjectID); err != nil {
			return nil, false, fmt.Errorf("failed to link google account: %w", err)
		}
		googleID := identity.SubjectID
		existing.GoogleID = &googleID
		log.Printf("Linked existing email account to Google: %s", identity.Email)
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, fmt.Errorf("failed to look up email: %w", err)
	}

	googleID := identity.SubjectID
	user = &models.User{
		Name:            identity.Name,
		Email:           identity.Email,
		GoogleID:        &googleID,
		EmailAlerts:     true,
		IsEmailVerified: identity.EmailVerified,
	}
	if identity.AvatarURL != "" {
		avatarURL := identity.AvatarURL
		user.AvatarURL = &avatarURL
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create google user: %w", err)
	}
	log.Printf("New Google user created: %s", identity.Email)
	return user, true, nil
}
