package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/services/auth/internal/models"
)

func (r *GormRepo) AddRefresh(ctx context.Context, token *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(token).Error
}

func (r *GormRepo) FindRefreshByID(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// RotateRefreshToken revokes oldJTI and stores newToken atomically. It fails with
// ErrTokenExpiredOrRevoked when the old token can no longer be used.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, newToken *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.RefreshToken
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("jti = ?", oldJTI).
			First(&old).Error; err != nil {
			return err
		}
		if old.Revoked || old.ExpiresAt < time.Now().Unix() {
			return ErrTokenExpiredOrRevoked
		}

		if err := tx.Model(&models.RefreshToken{}).
			Where("jti = ?", oldJTI).
			Update("revoked", true).Error; err != nil {
			return err
		}

		return tx.Create(newToken).Error
	})
}

func (r *GormRepo) RevokeRefresh(ctx context.Context, refreshToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", jwthelp.Sha256Hex(refreshToken)).
		Update("revoked", true).Error
}

// PurgeRefreshTokens deletes tokens that expired before now or were revoked.
func (r *GormRepo) PurgeRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at < ? OR revoked = ?", now.Unix(), true).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
