package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/forgesite/auth-service/internal/models"
)

func (r *GormRepo) InsertRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// FindRefreshToken looks a row up by the SHA-256 hex of the raw token.
func (r *GormRepo) FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", tokenHash).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

// DeleteRefreshToken reports whether a row was actually removed, so
// callers can distinguish a purge from a no-op without a prior lookup.
func (r *GormRepo) DeleteRefreshToken(ctx context.Context, tokenHash string) (bool, error) {
	tx := r.DB.WithContext(ctx).Where("token = ?", tokenHash).Delete(&models.RefreshToken{})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// RotateRefreshToken removes the redeemed row and stores its
// replacement in one transaction. If the old row is already gone a
// concurrent rotation won and ErrNotFound is returned; the replacement
// is not stored.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldHash string, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("token = ?", oldHash).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(next).Error
	})
}
