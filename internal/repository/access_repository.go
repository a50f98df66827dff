package repository

import (
	"context"
	"time"

	"bookstore/internal/domain/model"
)

type AccessRepository interface {
	Find(ctx context.Context, userID int64, bookID int64) (model.BookAccess, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.BookAccess, error)

	//(user, book)で1行。既存行はactive=true + granted_at更新、無ければ新規作成。
	//ユニーク制約＋ON CONFLICTで同時verifyでも重複しない。
	Upsert(ctx context.Context, a model.BookAccess) error

	//有効期限切れの遅延無効化
	Deactivate(ctx context.Context, userID int64, bookID int64) error

	//ダウンロード成功時のカウンタ更新（SQL側でインクリメント）
	RecordDownload(ctx context.Context, userID int64, bookID int64, at time.Time) error

	//ユーザーがアクティブに所有しているbook IDの集合（注文作成の重複購入チェック用）
	ActiveBookIDs(ctx context.Context, userID int64, bookIDs []int64, now time.Time) ([]int64, error)
}
