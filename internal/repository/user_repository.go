package repository

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	//電話番号からユーザーを一件取得する。
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	// ユーザー情報の更新=>OTP・ロール・有効状態・最終ログインなど
	Update(ctx context.Context, user *model.User) error
	//OTP失敗回数を＋１
	IncrementOTPAttempts(ctx context.Context, userID int64) error

	List(ctx context.Context, page int, limit int) ([]model.User, int64, error)
	Count(ctx context.Context) (int64, error)
}
