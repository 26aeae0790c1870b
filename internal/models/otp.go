package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTP purposes. Only password setup exists today; the purpose column keeps
// the one-unused-code-per-purpose rule meaningful if more flows are added.
const (
	OtpPurposePasswordSetup = "password_setup"
)

// Otp is a single-use numeric code emailed to an account. At most one unused,
// unexpired row exists per (user, purpose); reissuing overwrites the old row.
type Otp struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;index" json:"user_id"`
	Code      string    `gorm:"column:code" json:"-"`
	Purpose   string    `gorm:"column:purpose" json:"purpose"`
	Used      bool      `gorm:"column:used" json:"used"`
	ExpiresAt time.Time `gorm:"column:expires_at" json:"expires_at"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Otp) TableName() string {
	return "otps"
}

func (o *Otp) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
