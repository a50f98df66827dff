package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 同一書籍はプラス
	UpsertByUserAndBook(ctx context.Context, userID int64, bookID int64, addQty int64) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	//注文確定後のカートクリア
	ClearByUserID(ctx context.Context, userID int64) error
}
