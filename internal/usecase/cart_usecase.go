package usecase

import (
	"context"
	"net/http"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type CartUsecase struct {
	cartRepo   repo.CartItemRepository
	bookRepo   repo.BookRepository
	accessRepo repo.AccessRepository
	clock      Clock
}

func NewCartUsecase(cartRepo repo.CartItemRepository, bookRepo repo.BookRepository, accessRepo repo.AccessRepository, clock Clock) *CartUsecase {
	return &CartUsecase{cartRepo: cartRepo, bookRepo: bookRepo, accessRepo: accessRepo, clock: clock}
}

type CartLineOutput struct {
	ID       int64      `json:"id"`
	Book     model.Book `json:"book"`
	Quantity int64      `json:"quantity"`
	Subtotal int64      `json:"subtotal"`
}

type CartOutput struct {
	Items []CartLineOutput `json:"items"`
	Total int64            `json:"total"`
}

type AddToCartInput struct {
	BookID   int64 `json:"book_id"`
	Quantity int64 `json:"quantity"`
}

// AddToCart はカートに追加する。同じ書籍は数量を加算する。
// すでに所有している書籍は入れられない。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddToCartInput) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.BookID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "book_id is required")
	}
	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}

	b, err := u.bookRepo.FindByID(ctx, in.BookID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "book not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !b.IsActive {
		return NewHTTPError(http.StatusNotFound, "book not found")
	}

	owned, err := u.accessRepo.ActiveBookIDs(ctx, userID, []int64{in.BookID}, u.clock.Now())
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(owned) > 0 {
		return NewHTTPError(http.StatusBadRequest, "already owned: "+b.Title)
	}

	if err := u.cartRepo.UpsertByUserAndBook(ctx, userID, in.BookID, qty); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(items) == 0 {
		return CartOutput{Items: []CartLineOutput{}}, nil
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.BookID)
	}
	books, err := u.bookRepo.FindByIDs(ctx, ids)
	if err != nil {
		return CartOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	bookByID := make(map[int64]model.Book, len(books))
	for _, b := range books {
		bookByID[b.ID] = b
	}

	out := CartOutput{Items: make([]CartLineOutput, 0, len(items))}
	for _, it := range items {
		b, ok := bookByID[it.BookID]
		if !ok || !b.IsActive {
			//公開停止された書籍はカートから消す
			_ = u.cartRepo.DeleteByID(ctx, it.ID)
			continue
		}
		sub := b.Price * it.Quantity
		out.Items = append(out.Items, CartLineOutput{
			ID:       it.ID,
			Book:     b,
			Quantity: it.Quantity,
			Subtotal: sub,
		})
		out.Total += sub
	}
	return out, nil
}

func (u *CartUsecase) UpdateQuantity(ctx context.Context, userID int64, cartItemID int64, qty int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 || qty <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	it, err := u.cartRepo.FindByID(ctx, cartItemID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if it.UserID != userID {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.cartRepo.UpdateQuantity(ctx, cartItemID, qty); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, cartItemID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	it, err := u.cartRepo.FindByID(ctx, cartItemID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if it.UserID != userID {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.cartRepo.DeleteByID(ctx, cartItemID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.cartRepo.ClearByUserID(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
