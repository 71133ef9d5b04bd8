package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/forgesite/auth-service/internal/models"
)

// ReplaceResetToken drops any earlier reset rows for the user before
// storing the new one, keeping at most one live token per user.
func (r *GormRepo) ReplaceResetToken(ctx context.Context, t *models.PasswordResetToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", t.UserID).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(t).Error
	})
}

func (r *GormRepo) FindResetToken(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	if err := r.DB.WithContext(ctx).Where("token = ?", tokenHash).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *GormRepo) DeleteResetToken(ctx context.Context, tokenHash string) error {
	return r.DB.WithContext(ctx).Where("token = ?", tokenHash).Delete(&models.PasswordResetToken{}).Error
}
