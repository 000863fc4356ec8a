package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/utils"
	"gorm.io/gorm"
)

// NotificationRepositoryImpl implements NotificationRepository interface
type NotificationRepositoryImpl struct {
	*BaseRepository[models.Notification, models.NotificationFilter]
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Notification, models.NotificationFilter](db),
	}
}

// MarkRead flags a notification as read
func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	err := db.Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_read": true, "updated_at": utils.UTCNow()}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (r *NotificationRepositoryImpl) applyFilter(query *gorm.DB, filter models.NotificationFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.RecipientID != nil {
		if filter.IncludeBroadcast {
			query = query.Where("(recipient_id = ? OR broadcast = ?)", *filter.RecipientID, true)
		} else {
			query = query.Where("recipient_id = ?", *filter.RecipientID)
		}
	}
	if filter.SenderID != nil {
		query = query.Where("sender_id = ?", *filter.SenderID)
	}
	return query
}

// ByFilter retrieves notifications with the sender preloaded
func (r *NotificationRepositoryImpl) ByFilter(ctx context.Context, filter models.NotificationFilter, orderBy string, limit, offset int) ([]*models.Notification, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Notification{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.Notification
	if err := query.Preload("Sender").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return rows, nil
}

func (r *NotificationRepositoryImpl) Count(ctx context.Context, filter models.NotificationFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Notification{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NotificationRepositoryImpl) Exists(ctx context.Context, filter models.NotificationFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
