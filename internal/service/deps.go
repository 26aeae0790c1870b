package service

import (
	"context"
	"time"

	"github.com/noxvision/accounts-api/internal/googleid"
	"github.com/noxvision/accounts-api/internal/models"
	"github.com/noxvision/accounts-api/internal/repository"
)

// UserRepository interface for dependency injection
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, tokenValue string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	LinkGoogleID(ctx context.Context, userID, googleID string) error
	UnlinkGoogleID(ctx context.Context, userID string) error
	UpdateProfile(ctx context.Context, userID string, upd repository.ProfileUpdate) error
	SetPassword(ctx context.Context, userID, passwordHash string) error
	SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error
	SetVerificationToken(ctx context.Context, userID, tokenValue string, expiry time.Time) error
	MarkEmailVerified(ctx context.Context, userID string) error
	SetOnboarded(ctx context.Context, userID string) error
}

// OtpRepository interface for dependency injection
type OtpRepository interface {
	Store(ctx context.Context, userID, purpose, code string, expiresAt time.Time) error
	GetLatestByUserAndCode(ctx context.Context, userID, code string) (*models.Otp, error)
	MarkUsed(ctx context.Context, otpID string) error
}

// ApiKeyRepository interface for dependency injection
type ApiKeyRepository interface {
	GetActiveByUserID(ctx context.Context, userID string) (*models.ApiKey, error)
	GetByKeyAndUserID(ctx context.Context, key, userID string) (*models.ApiKey, error)
	GetActiveByKey(ctx context.Context, key string) (*models.ApiKey, error)
	Rotate(ctx context.Context, userID, newKey string) (*models.ApiKey, error)
	Deactivate(ctx context.Context, keyID, userID string) error
}

// Mailer delivers account emails with prerendered content.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, verificationToken, userName string) error
	SendPasswordResetEmail(ctx context.Context, to, resetToken, userName string) error
	SendOtpEmail(ctx context.Context, to, otp string) error
}

// GoogleVerifier resolves a Google access token to the asserted identity.
type GoogleVerifier interface {
	Verify(ctx context.Context, accessToken string) (*googleid.Identity, error)
}

// SessionIssuer mints signed session tokens.
type SessionIssuer interface {
	IssueSession(accountID, email string) (string, error)
}
