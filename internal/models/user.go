package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account row.
// Password and GoogleID are nullable: a Google-only account has no password,
// a local account has no Google ID until it is linked.
type User struct {
	ID                      string     `gorm:"column:id;primaryKey" json:"id"`
	Name                    string     `gorm:"column:name" json:"name"`
	Email                   string     `gorm:"column:email;uniqueIndex" json:"email"`
	Password                *string    `gorm:"column:password" json:"-"`
	GoogleID                *string    `gorm:"column:google_id;uniqueIndex" json:"google_id,omitempty"`
	EmailAlerts             bool       `gorm:"column:email_alerts" json:"email_alerts"`
	IsEmailVerified         bool       `gorm:"column:is_email_verified" json:"is_email_verified"`
	Onboarded               bool       `gorm:"column:onboarded" json:"onboarded"`
	AvatarURL               *string    `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	EmailVerificationToken  *string    `gorm:"column:email_verification_token" json:"-"`
	EmailVerificationExpiry *time.Time `gorm:"column:email_verification_expiry" json:"-"`
	ResetToken              *string    `gorm:"column:reset_token" json:"-"`
	ResetTokenExpiry        *time.Time `gorm:"column:reset_token_expiry" json:"-"`
	CreatedAt               time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt               time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// HasPassword reports whether the account has a local password set.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// HasGoogleID reports whether the account is linked to a Google identity.
func (u *User) HasGoogleID() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}

// State is the account's authentication state, derived from the stored flags
// rather than persisted, so it can never drift from the row.
type State string

const (
	// StateUnverified: local account that has not confirmed its email yet.
	StateUnverified State = "unverified"
	// StateVerifiedNoPassword: Google-linked account with no local password.
	StateVerifiedNoPassword State = "verified_no_password"
	// StateVerifiedWithPassword: account that can log in with email+password.
	StateVerifiedWithPassword State = "verified_with_password"
)

// AccountState derives the authentication state of u.
func (u *User) AccountState() State {
	switch {
	case u.HasPassword() && u.IsEmailVerified:
		return StateVerifiedWithPassword
	case !u.HasPassword():
		return StateVerifiedNoPassword
	default:
		return StateUnverified
	}
}
