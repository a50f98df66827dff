package usecase

import (
	"context"
	"encoding/json"
	"net/http"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

// NotificationUsecase は通知の作成と既読管理。
// Emitはfire-and-forgetで、失敗しても呼び出し元の処理は巻き戻さない。
type NotificationUsecase struct {
	notifRepo repo.NotificationRepository
	logger    *zap.Logger
}

func NewNotificationUsecase(notifRepo repo.NotificationRepository, logger *zap.Logger) *NotificationUsecase {
	return &NotificationUsecase{notifRepo: notifRepo, logger: logger}
}

// Emit は通知を作成する。失敗はログのみ。
func (u *NotificationUsecase) Emit(ctx context.Context, userID int64, typ model.NotificationType, title string, message string, payload map[string]interface{}) {
	payloadJSON := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			u.logger.Warn("notification payload marshal failed",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		} else {
			payloadJSON = string(b)
		}
	}

	_, err := u.notifRepo.Create(ctx, model.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Payload: payloadJSON,
	})
	if err != nil {
		u.logger.Warn("notification emit failed",
			zap.Int64("user_id", userID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}

func (u *NotificationUsecase) ListMine(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	if userID <= 0 {
		return []model.Notification{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.notifRepo.ListByUserID(ctx, userID, unreadOnly, limit)
	if err != nil {
		return []model.Notification{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *NotificationUsecase) MarkRead(ctx context.Context, userID int64, notificationID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if notificationID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.notifRepo.MarkRead(ctx, userID, notificationID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *NotificationUsecase) MarkAllRead(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := u.notifRepo.MarkAllRead(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
