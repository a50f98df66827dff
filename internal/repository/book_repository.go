package repository

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type BookListQuery struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

// 書籍の永続化（保存・取得）だけを約束。
type BookRepository interface {
	ListPublic(ctx context.Context, q BookListQuery) ([]model.Book, int64, error)
	FindByID(ctx context.Context, id int64) (model.Book, error)
	//複数IDをまとめて取得（注文作成で使う）
	FindByIDs(ctx context.Context, ids []int64) ([]model.Book, error)

	Create(ctx context.Context, b model.Book) (model.Book, error)
	Update(ctx context.Context, b model.Book) error
	SoftDelete(ctx context.Context, id int64) error

	Count(ctx context.Context) (int64, error)
}
