package repositories

import (
	"context"

	"bilet-lending/internal/adapters/persistence/models"
	"bilet-lending/internal/core/domain"

	"gorm.io/gorm"
)

// notificationRepository implements NotificationRepository interface
type notificationRepository struct {
	db *gorm.DB
}

func (r *notificationRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	m := models.NotificationFromDomain(n)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return mapError(err)
	}
	n.ID = m.ID
	return nil
}

// ListNotifications lists a user's notifications, newest first
func (r *notificationRepository) ListNotifications(ctx context.Context, userID uint) ([]*domain.Notification, error) {
	var rows []models.Notification
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	out := make([]*domain.Notification, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// MarkNotificationRead flags a notification; other users' notifications are not found
func (r *notificationRepository) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	db := r.db.WithContext(ctx)

	var n models.Notification
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return mapError(err)
	}
	return mapError(db.Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true).Error)
}
