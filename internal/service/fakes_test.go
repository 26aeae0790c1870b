package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noxvision/accounts-api/internal/googleid"
	"github.com/noxvision/accounts-api/internal/models"
	"github.com/noxvision/accounts-api/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range f.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) GetByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID })
}

func (f *fakeUserRepo) GetByResetTokenHash(_ context.Context, hash string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ResetToken != nil && *u.ResetToken == hash })
}

func (f *fakeUserRepo) GetByVerificationToken(_ context.Context, tok string) (*models.User, error) {
	return f.find(func(u *models.User) bool {
		return u.EmailVerificationToken != nil && *u.EmailVerificationToken == tok
	})
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) mutate(id string, fn func(*models.User)) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserRepo) LinkGoogleID(_ context.Context, id, googleID string) error {
	return f.mutate(id, func(u *models.User) { u.GoogleID = &googleID })
}

func (f *fakeUserRepo) UnlinkGoogleID(_ context.Context, id string) error {
	return f.mutate(id, func(u *models.User) { u.GoogleID = nil })
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id string, upd repository.ProfileUpdate) error {
	return f.mutate(id, func(u *models.User) {
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.EmailAlerts != nil {
			u.EmailAlerts = *upd.EmailAlerts
		}
		if upd.AvatarURL != nil {
			u.AvatarURL = upd.AvatarURL
		}
		if upd.IsEmailVerified != nil {
			u.IsEmailVerified = *upd.IsEmailVerified
		}
	})
}

func (f *fakeUserRepo) SetPassword(_ context.Context, id, hash string) error {
	return f.mutate(id, func(u *models.User) {
		u.Password = &hash
		u.ResetToken = nil
		u.ResetTokenExpiry = nil
	})
}

func (f *fakeUserRepo) SetResetToken(_ context.Context, id, hash string, expiry time.Time) error {
	return f.mutate(id, func(u *models.User) {
		u.ResetToken = &hash
		u.ResetTokenExpiry = &expiry
	})
}

func (f *fakeUserRepo) SetVerificationToken(_ context.Context, id, tok string, expiry time.Time) error {
	return f.mutate(id, func(u *models.User) {
		u.EmailVerificationToken = &tok
		u.EmailVerificationExpiry = &expiry
	})
}

func (f *fakeUserRepo) MarkEmailVerified(_ context.Context, id string) error {
	return f.mutate(id, func(u *models.User) {
		u.IsEmailVerified = true
		u.EmailVerificationToken = nil
		u.EmailVerificationExpiry = nil
	})
}

func (f *fakeUserRepo) SetOnboarded(_ context.Context, id string) error {
	return f.mutate(id, func(u *models.User) { u.Onboarded = true })
}

// fakeOtpRepo is an in-memory OtpRepository.
type fakeOtpRepo struct {
	otps []*models.Otp
}

func (f *fakeOtpRepo) Store(_ context.Context, userID, purpose, code string, expiresAt time.Time) error {
	for _, o := range f.otps {
		if o.UserID == userID && o.Purpose == purpose && !o.Used {
			o.Code = code
			o.ExpiresAt = expiresAt
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	f.otps = append(f.otps, &models.Otp{
		ID:        uuid.NewString(),
		UserID:    userID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	return nil
}

func (f *fakeOtpRepo) GetLatestByUserAndCode(_ context.Context, userID, code string) (*models.Otp, error) {
	var matches []*models.Otp
	for _, o := range f.otps {
		if o.UserID == userID && o.Code == code {
			matches = append(matches, o)
		}
	}
	if len(matches) == 0 {
		return nil, repository.ErrOtpNotFound
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	copied := *matches[0]
	return &copied, nil
}

func (f *fakeOtpRepo) MarkUsed(_ context.Context, otpID string) error {
	for _, o := range f.otps {
		if o.ID == otpID {
			o.Used = true
			return nil
		}
	}
	return repository.ErrOtpNotFound
}

// fakeApiKeyRepo is an in-memory ApiKeyRepository.
type fakeApiKeyRepo struct {
	keys []*models.ApiKey
}

func (f *fakeApiKeyRepo) GetActiveByUserID(_ context.Context, userID string) (*models.ApiKey, error) {
	for _, k := range f.keys {
		if k.UserID == userID && k.Status {
			copied := *k
			return &copied, nil
		}
	}
	return nil, repository.ErrApiKeyNotFound
}

func (f *fakeApiKeyRepo) GetByKeyAndUserID(_ context.Context, key, userID string) (*models.ApiKey, error) {
	for _, k := range f.keys {
		if k.Key == key && k.UserID == userID {
			copied := *k
			return &copied, nil
		}
	}
	return nil, repository.ErrApiKeyNotFound
}

func (f *fakeApiKeyRepo) GetActiveByKey(_ context.Context, key string) (*models.ApiKey, error) {
	for _, k := range f.keys {
		if k.Key == key && k.Status {
			copied := *k
			return &copied, nil
		}
	}
	return nil, repository.ErrApiKeyNotFound
}

func (f *fakeApiKeyRepo) Rotate(_ context.Context, userID, newKey string) (*models.ApiKey, error) {
	for _, k := range f.keys {
		if k.UserID == userID && k.Status {
			k.Status = false
		}
	}
	row := &models.ApiKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Key:       newKey,
		Status:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.keys = append(f.keys, row)
	copied := *row
	return &copied, nil
}

func (f *fakeApiKeyRepo) Deactivate(_ context.Context, keyID, userID string) error {
	for _, k := range f.keys {
		if k.ID == keyID && k.UserID == userID && k.Status {
			k.Status = false
			return nil
		}
	}
	return repository.ErrApiKeyNotFound
}

// fakeMailer records what was sent and can be told to fail per mail type.
type fakeMailer struct {
	verificationTokens []string
	resetTokens        []string
	otps               []string
	recipients         []string

	failVerification bool
	failReset        bool
	failOtp          bool
}

var errMailDown = errors.New("smtp connection refused")

func (f *fakeMailer) SendVerificationEmail(_ context.Context, to, token, _ string) error {
	if f.failVerification {
		return errMailDown
	}
	f.verificationTokens = append(f.verificationTokens, token)
	f.recipients = append(f.recipients, to)
	return nil
}

func (f *fakeMailer) SendPasswordResetEmail(_ context.Context, to, token, _ string) error {
	if f.failReset {
		return errMailDown
	}
	f.resetTokens = append(f.resetTokens, token)
	f.recipients = append(f.recipients, to)
	return nil
}

func (f *fakeMailer) SendOtpEmail(_ context.Context, to, otp string) error {
	if f.failOtp {
		return errMailDown
	}
	f.otps = append(f.otps, otp)
	f.recipients = append(f.recipients, to)
	return nil
}

// fakeVerifier returns a canned Google identity or an error.
type fakeVerifier struct {
	verifyFunc func(ctx context.Context, accessToken string) (*googleid.Identity, error)
}

func (f *fakeVerifier) Verify(ctx context.Context, accessToken string) (*googleid.Identity, error) {
	if f.verifyFunc != nil {
		return f.verifyFunc(ctx, accessToken)
	}
	return nil, errors.New("no verify func configured")
}
