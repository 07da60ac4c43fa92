package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/tokens"
)

func (r *GormRepo) AddRefresh(ctx context.Context, tok *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(tok).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var tok models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&tok).Error; err != nil {
		return nil, err
	}
	return &tok, nil
}

// claimRefresh revokes jti only if it is still live. The conditional update
// lets exactly one of two concurrent rotations win.
func claimRefresh(tx *gorm.DB, jti string, now time.Time) error {
	res := tx.Model(&models.RefreshToken{}).
		Where("jti = ? AND revoked = ? AND expires_at >= ?", jti, false, now.Unix()).
		Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var n int64
	if err := tx.Model(&models.RefreshToken{}).Where("jti = ?", jti).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return ErrTokenRevoked
}

// RotateRefreshToken revokes oldJTI and stores next in one transaction.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimRefresh(tx, oldJTI, time.Now()); err != nil {
			return err
		}
		return tx.Create(next).Error
	})
}

func (r *GormRepo) RevokeRefresh(ctx context.Context, rawToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokens.Sha256Hex(rawToken)).
		Update("revoked", true).Error
}
