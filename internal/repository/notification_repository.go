package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n model.Notification) (int64, error)
	ListByUserID(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID int64, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}
