package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNotFound       = errors.New("record not found")
)

// GormRepo is the credential store adapter: users, refresh tokens and
// password reset tokens against one gorm connection pool.
type GormRepo struct {
	DB *gorm.DB
}
