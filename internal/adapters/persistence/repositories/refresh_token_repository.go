package repositories

import (
	"context"
	"time"

	"bilet-lending/internal/adapters/persistence/models"
	"bilet-lending/internal/core/domain"

	"gorm.io/gorm"
)

// refreshTokenRepository implements RefreshTokenRepository interface
type refreshTokenRepository struct {
	db *gorm.DB
}

// CreateRefreshToken stores a new refresh token
func (r *refreshTokenRepository) CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	m := models.RefreshTokenFromDomain(token)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return mapError(err)
	}
	token.ID = m.ID
	return nil
}

// GetRefreshTokenByHash gets a refresh token by its hash
func (r *refreshTokenRepository) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, mapError(err)
	}
	return token.ToDomain(), nil
}

// RevokeRefreshToken revokes a live refresh token by ID
func (r *refreshTokenRepository) RevokeRefreshToken(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Where("revoked_at IS NULL").
		Update("revoked_at", at)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RevokeUserRefreshTokens revokes all live refresh tokens of a user
func (r *refreshTokenRepository) RevokeUserRefreshTokens(ctx context.Context, userID uint, at time.Time) error {
	return mapError(r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Update("revoked_at", at).Error)
}

// DeleteExpiredRefreshTokens deletes expired tokens (cleanup job)
func (r *refreshTokenRepository) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, mapError(result.Error)
}
