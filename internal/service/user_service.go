package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/noxvision/accounts-api/internal/apperr"
	"github.com/noxvision/accounts-api/internal/models"
	"github.com/noxvision/accounts-api/internal/password"
	"github.com/noxvision/accounts-api/internal/repository"
	"github.com/noxvision/accounts-api/internal/token"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
	otpTTL               = 10 * time.Minute
)

// invalidCredentials is the single message for every login failure so a
// caller cannot tell an unknown email apart from a wrong password.
const invalidCredentials = "Invalid credentials"

// UserService is the account lifecycle engine: registration, login, password
// set/change/reset, email verification, OTP step-up, and Google link/unlink.
type UserService struct {
	users    UserRepository
	otps     OtpRepository
	mailer   Mailer
	google   *GoogleAuthService
	sessions SessionIssuer

	// allowGoogleUnlinkWithoutPassword preserves the historical behavior of
	// unlinking Google even when it leaves the account without any way to
	// authenticate.
	allowGoogleUnlinkWithoutPassword bool
}

func NewUserService(users UserRepository, otps OtpRepository, mailer Mailer, google *GoogleAuthService, sessions SessionIssuer, allowGoogleUnlinkWithoutPassword bool) *UserService {
	return &UserService{
		users:                            users,
		otps:                             otps,
		mailer:                           mailer,
		google:                           google,
		sessions:                         sessions,
		allowGoogleUnlinkWithoutPassword: allowGoogleUnlinkWithoutPassword,
	}
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	EmailAlerts bool
	GoogleID    *string
}

// Register creates an unverified local account and mails a verification
// link. A mail delivery failure is logged but does not fail registration;
// the account exists and the email can be resent later.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Conflict("User with this email already exists")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if in.GoogleID != nil && *in.GoogleID != "" {
		if _, err := s.users.GetByGoogleID(ctx, *in.GoogleID); err == nil {
			return nil, apperr.Conflict("User with this google id already exists")
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to check google id: %w", err)
		}
	}

	hashed, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	verificationToken, err := token.NewOpaqueSecret()
	if err != nil {
		return nil, err
	}
	verificationExpiry := time.Now().Add(verificationTokenTTL)

	user := &models.User{
		Name:                    in.Name,
		Email:                   in.Email,
		Password:                &hashed,
		GoogleID:                in.GoogleID,
		EmailAlerts:             in.EmailAlerts,
		EmailVerificationToken:  &verificationToken,
		EmailVerificationExpiry: &verificationExpiry,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerificationEmail(ctx, in.Email, verificationToken, in.Name); err != nil {
		log.Printf("Failed to send verification email to %s: %v", in.Email, err)
	}

	return sanitize(user), nil
}

// Login verifies email+password credentials and issues a session token. All
// credential failures return the same Unauthorized message.
func (s *UserService) Login(ctx context.Context, email, pass string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", apperr.Unauthorized(invalidCredentials)
		}
		return nil, "", err
	}

	// Google-only accounts have no password to check against.
	if !user.HasPassword() {
		return nil, "", apperr.Unauthorized(invalidCredentials)
	}

	if !user.HasGoogleID() && !user.IsEmailVerified {
		return nil, "", apperr.Forbidden("Please verify your email address before logging in")
	}

	if !password.Compare(*user.Password, pass) {
		return nil, "", apperr.Unauthorized(invalidCredentials)
	}

	sessionToken, err := s.sessions.IssueSession(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return sanitize(user), sessionToken, nil
}

// ValidateEmailResult reports whether an account can log in with a password
// or has been sent an OTP to set one up.
type ValidateEmailResult struct {
	PasswordAvailable bool         `json:"password_available"`
	Email             string       `json:"email"`
	User              *models.User `json:"user,omitempty"`
}

// ValidateEmail is the password-setup entry point. For an account with no
// password it stores and mails a short-lived OTP; for an account with a
// password it only reports that one is available. It never authenticates.
func (s *UserService) ValidateEmail(ctx context.Context, email string) (*ValidateEmailResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}

	if !user.HasPassword() {
		otp, err := token.NewNumericOtp()
		if err != nil {
			return nil, err
		}
		if err := s.otps.Store(ctx, user.ID, models.OtpPurposePasswordSetup, otp, time.Now().Add(otpTTL)); err != nil {
			return nil, err
		}
		if err := s.mailer.SendOtpEmail(ctx, user.Email, otp); err != nil {
			return nil, fmt.Errorf("failed to send otp email: %w", err)
		}
		return &ValidateEmailResult{
			PasswordAvailable: false,
			Email:             user.Email,
		}, nil
	}

	return &ValidateEmailResult{
		PasswordAvailable: true,
		Email:             user.Email,
		User:              sanitize(user),
	}, nil
}

// VerifyOtp consumes a pending OTP and issues a session token. This is how a
// password-less account completes a login to set up its password.
func (s *UserService) VerifyOtp(ctx context.Context, email, code string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", apperr.NotFound("User not found")
		}
		return nil, "", err
	}

	otp, err := s.otps.GetLatestByUserAndCode(ctx, user.ID, code)
	if err != nil {
		if errors.Is(err, repository.ErrOtpNotFound) {
			return nil, "", apperr.BadRequest("Invalid OTP")
		}
		return nil, "", err
	}
	if otp.Used {
		return nil, "", apperr.BadRequest("OTP has already been used")
	}
	if time.Now().After(otp.ExpiresAt) {
		return nil, "", apperr.BadRequest("OTP has expired")
	}

	if err := s.otps.MarkUsed(ctx, otp.ID); err != nil {
		return nil, "", err
	}

	sessionToken, err := s.sessions.IssueSession(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return sanitize(user), sessionToken, nil
}

// GetProfile returns the account without its password hash.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return sanitize(user), nil
}

// UpdateProfile applies the allow-listed mutable fields and returns the
// updated account.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd repository.ProfileUpdate) (*models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}

	if err := s.users.UpdateProfile(ctx, userID, upd); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sanitize(user), nil
}

// ForgotPassword stores a hashed reset token and mails the plain secret.
// Unlike registration, a mail failure here fails the whole operation: the
// only point of the call is delivering that email.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("User with this email does not exist")
		}
		return err
	}

	if user.HasGoogleID() && !user.HasPassword() {
		return apperr.BadRequest("Password reset not available for Google accounts")
	}

	secret, err := token.NewOpaqueSecret()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, token.HashSecret(secret), time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, email, secret, user.Name); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset secret and sets the new password. The store
// clears the token fields in the same update, so the secret is single-use.
func (s *UserService) ResetPassword(ctx context.Context, secret, newPassword string) error {
	user, err := s.users.GetByResetTokenHash(ctx, token.HashSecret(secret))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.BadRequest("Invalid or expired token")
		}
		return err
	}
	if user.ResetTokenExpiry == nil || time.Now().After(*user.ResetTokenExpiry) {
		return apperr.BadRequest("Invalid or expired token")
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, user.ID, hashed)
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	if !user.HasPassword() {
		return apperr.BadRequest("Password change not available for Google accounts")
	}
	if !password.Compare(*user.Password, currentPassword) {
		return apperr.Unauthorized("Current password is incorrect")
	}
	if password.Compare(*user.Password, newPassword) {
		return apperr.BadRequest("New password must be different from current password")
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, user.ID, hashed)
}

// CreatePassword sets a first password on an account that has none. There is
// no current-password check because none exists.
func (s *UserService) CreatePassword(ctx context.Context, userID, pass string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	if user.HasPassword() {
		return apperr.BadRequest("You already added a password. Try Reset Password to change it now!")
	}

	hashed, err := password.Hash(pass)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, userID, hashed)
}

// DeleteGoogleId unlinks the account's Google identity. When the service is
// configured with allowGoogleUnlinkWithoutPassword, the unlink is permitted
// even if it leaves the account with no authentication method at all.
func (s *UserService) DeleteGoogleId(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	if !user.HasGoogleID() {
		return apperr.BadRequest("No Google account linked to this profile")
	}
	if !s.allowGoogleUnlinkWithoutPassword && !user.HasPassword() {
		return apperr.BadRequest("Cannot unlink Google account. Please set a password first")
	}

	return s.users.UnlinkGoogleID(ctx, userID)
}

// VerifyEmail consumes an email-verification token and flips the verified
// flag.
func (s *UserService) VerifyEmail(ctx context.Context, tokenValue string) (*models.User, error) {
	user, err := s.users.GetByVerificationToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.BadRequest("Invalid verification token")
		}
		return nil, err
	}
	if user.EmailVerificationExpiry == nil || time.Now().After(*user.EmailVerificationExpiry) {
		return nil, apperr.BadRequest("Verification token has expired")
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, err
	}

	verified, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return sanitize(verified), nil
}

// ResendVerificationEmail regenerates the verification token and re-sends
// the email. A mail failure propagates.
func (s *UserService) ResendVerificationEmail(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("User with this email does not exist")
		}
		return err
	}

	if user.IsEmailVerified {
		return apperr.BadRequest("Email is already verified")
	}
	if user.HasGoogleID() {
		return apperr.BadRequest("Google accounts are automatically verified")
	}

	verificationToken, err := token.NewOpaqueSecret()
	if err != nil {
		return err
	}
	if err := s.users.SetVerificationToken(ctx, user.ID, verificationToken, time.Now().Add(verificationTokenTTL)); err != nil {
		return err
	}

	if err := s.mailer.SendVerificationEmail(ctx, email, verificationToken, user.Name); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// GoogleAuth resolves a Google access token to a local account and issues a
// session token. The boolean reports whether a new account was created.
func (s *UserService) GoogleAuth(ctx context.Context, accessToken string) (*models.User, string, bool, error) {
	user, isNew, err := s.google.Resolve(ctx, accessToken)
	if err != nil {
		return nil, "", false, err
	}

	sessionToken, err := s.sessions.IssueSession(user.ID, user.Email)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to issue session token: %w", err)
	}
	return sanitize(user), sessionToken, isNew, nil
}

// OnboardComplete idempotently flips the onboarded flag.
func (s *UserService) OnboardComplete(ctx context.Context, userID string) error {
	if err := s.users.SetOnboarded(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}
	return nil
}

// sanitize strips the password hash before a user leaves the service layer.
func sanitize(u *models.User) *models.User {
	out := *u
	out.Password = nil
	return &out
}
