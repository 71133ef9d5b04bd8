package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"     json:"id"`
	Email        string     `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string     `gorm:"not null"                 json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken rows exist exactly while the token is redeemable. Token
// holds the SHA-256 hex of the raw value, never the value itself.
type RefreshToken struct {
	Token     string    `gorm:"primaryKey"               json:"token"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt int64     `gorm:"not null"                 json:"expires_at"`
}

// PasswordResetToken follows the same hashed-at-rest rule; at most one
// live row per user.
type PasswordResetToken struct {
	Token     string    `gorm:"primaryKey"               json:"token"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt int64     `gorm:"not null"                 json:"expires_at"`
}
