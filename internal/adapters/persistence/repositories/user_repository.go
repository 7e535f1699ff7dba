package repositories

import (
	"context"

	"bilet-lending/internal/adapters/persistence/models"
	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/core/services"

	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) services.UserRepository {
	return &userRepository{db: db}
}

// CreateUser creates a new user
func (r *userRepository) CreateUser(ctx context.Context, user *domain.User) error {
	m := models.UserFromDomain(user)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return mapError(err)
	}
	user.ID = m.ID
	user.CreatedAt = m.CreatedAt
	return nil
}

// GetUserByID gets a user by ID
func (r *userRepository) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	return getUser(r.db.WithContext(ctx), id)
}

// GetUserByUsername gets a user by username
func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, mapError(err)
	}
	return user.ToDomain(), nil
}

// ListUsers lists users with pagination
func (r *userRepository) ListUsers(ctx context.Context, offset, limit int) ([]*domain.User, int64, error) {
	var (
		rows  []models.User
		total int64
	)

	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}
	if err := paginate(r.db.WithContext(ctx).Order("id ASC"), offset, limit).Find(&rows).Error; err != nil {
		return nil, 0, mapError(err)
	}

	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].ToDomain())
	}
	return users, total, nil
}

// DeleteUser removes a user
func (r *userRepository) DeleteUser(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func getUser(db *gorm.DB, id uint) (*domain.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, mapError(err)
	}
	return user.ToDomain(), nil
}

// paginate applies offset/limit; limit <= 0 means no limit
func paginate(db *gorm.DB, offset, limit int) *gorm.DB {
	if offset > 0 {
		db = db.Offset(offset)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	return db
}
