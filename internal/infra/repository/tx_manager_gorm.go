package repository

import (
	"context"

	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	users       repo.UserRepository
	books       repo.BookRepository
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	cartItems   repo.CartItemRepository
	screenshots repo.ScreenshotRepository
	access      repo.AccessRepository
	auditLogs   repo.AuditLogRepository
}

func (r *txReposGorm) Users() repo.UserRepository             { return r.users }
func (r *txReposGorm) Books() repo.BookRepository             { return r.books }
func (r *txReposGorm) Orders() repo.OrderRepository           { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository   { return r.orderItems }
func (r *txReposGorm) CartItems() repo.CartItemRepository     { return r.cartItems }
func (r *txReposGorm) Screenshots() repo.ScreenshotRepository { return r.screenshots }
func (r *txReposGorm) Access() repo.AccessRepository          { return r.access }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository     { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			users:       NewUserGormRepository(tx),
			books:       NewBookGormRepository(tx),
			orders:      NewOrderGormRepository(tx),
			orderItems:  NewOrderItemGormRepository(tx),
			cartItems:   NewCartItemGormRepository(tx),
			screenshots: NewScreenshotGormRepository(tx),
			access:      NewAccessGormRepository(tx),
			auditLogs:   NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}
