package usecase_test

import (
	"context"
	"errors"
	"testing"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestNotificationUsecase_Emit_SwallowsRepoFailure(t *testing.T) {
	ctx := context.Background()

	notifs := new(NotificationRepoMock)
	notifs.On("Create", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	uc := usecase.NewNotificationUsecase(notifs, zap.NewNop())

	//失敗してもpanicもerrorも出さない
	uc.Emit(ctx, 1, model.NotificationPaymentVerified, "t", "m", nil)

	notifs.AssertExpectations(t)
}

func TestNotificationUsecase_Emit_SerializesPayload(t *testing.T) {
	ctx := context.Background()

	notifs := new(NotificationRepoMock)
	notifs.On("Create", mock.Anything, mock.MatchedBy(func(n model.Notification) bool {
		return n.UserID == 1 && n.Payload == `{"order_id":7}`
	})).Return(int64(3), nil)

	uc := usecase.NewNotificationUsecase(notifs, zap.NewNop())

	uc.Emit(ctx, 1, model.NotificationPaymentVerified, "t", "m", map[string]interface{}{"order_id": 7})

	notifs.AssertExpectations(t)
}

func TestNotificationUsecase_MarkRead_OthersNotificationHidden(t *testing.T) {
	ctx := context.Background()

	notifs := new(NotificationRepoMock)
	notifs.On("MarkRead", mock.Anything, int64(1), int64(5)).Return(repo.ErrNotFound)

	uc := usecase.NewNotificationUsecase(notifs, zap.NewNop())

	err := uc.MarkRead(ctx, 1, 5)
	assertErrContains(t, err, "not found")
}

func TestNotificationUsecase_ListMine_Unauthorized(t *testing.T) {
	uc := usecase.NewNotificationUsecase(new(NotificationRepoMock), zap.NewNop())

	_, err := uc.ListMine(context.Background(), 0, false, 20)
	assertErrContains(t, err, "unauthorized")
}

func TestNotificationUsecase_MarkAllRead(t *testing.T) {
	ctx := context.Background()

	notifs := new(NotificationRepoMock)
	notifs.On("MarkAllRead", mock.Anything, int64(1)).Return(nil)

	uc := usecase.NewNotificationUsecase(notifs, zap.NewNop())

	assert.NoError(t, uc.MarkAllRead(ctx, 1))
	notifs.AssertExpectations(t)
}
