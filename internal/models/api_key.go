package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApiKey is an opaque per-account secret for programmatic access. Rows are
// never deleted; rotation flips Status off and inserts a fresh row. A partial
// unique index on (user_id) WHERE status keeps at most one active key per
// account even under concurrent rotation.
type ApiKey struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;index" json:"user_id"`
	Key       string    `gorm:"column:api_key" json:"api_key"`
	Status    bool      `gorm:"column:status" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ApiKey) TableName() string {
	return "api_keys"
}

func (k *ApiKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}
