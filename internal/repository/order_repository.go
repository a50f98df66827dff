package repository

import (
	"context"
	"time"

	"bookstore/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//支払い確定（status + paid_at を同時更新）
	MarkPaid(ctx context.Context, orderID int64, status model.OrderStatus, paidAt time.Time) error

	//証憑アップロード済みフラグ
	SetScreenshotUploaded(ctx context.Context, orderID int64) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	Count(ctx context.Context) (int64, error)
	//PAID/COMPLETEDの合計金額（売上）
	SumRevenue(ctx context.Context) (int64, error)
}
