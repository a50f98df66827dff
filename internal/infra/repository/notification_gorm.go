package repository

import (
	"context"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type NotificationGormRepository struct {
	db *gorm.DB
}

func NewNotificationGormRepository(db *gorm.DB) *NotificationGormRepository {
	return &NotificationGormRepository{db: db}
}

func (r *NotificationGormRepository) Create(ctx context.Context, n model.Notification) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&n).Error; err != nil {
		return 0, err
	}
	return n.ID, nil
}

func (r *NotificationGormRepository) ListByUserID(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}

	var items []model.Notification
	if err := q.Order("created_at desc").Limit(limit).Find(&items).Error; err != nil {
		return []model.Notification{}, err
	}
	return items, nil
}

// 他人の通知を既読にできないようuser_idも条件に入れる
func (r *NotificationGormRepository) MarkRead(ctx context.Context, userID int64, notificationID int64) error {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *NotificationGormRepository) MarkAllRead(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}
