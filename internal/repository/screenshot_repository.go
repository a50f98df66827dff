package repository

import (
	"context"
	"time"

	"bookstore/internal/domain/model"
)

// 管理者の証憑一覧の絞り込み。
type ScreenshotListFilter struct {
	//nilなら全件、true=承認済みのみ、false=未承認のみ
	Verified *bool
}

type ScreenshotRepository interface {
	Create(ctx context.Context, s model.PaymentScreenshot) (int64, error)
	FindByID(ctx context.Context, id int64) (model.PaymentScreenshot, error)
	List(ctx context.Context, f ScreenshotListFilter) ([]model.PaymentScreenshot, error)

	//判定結果を記録（verify/reject 共通）
	SetVerdict(ctx context.Context, id int64, verified bool, verifiedBy int64, verifiedAt time.Time) error
}
