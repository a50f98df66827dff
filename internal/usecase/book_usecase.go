package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"bookstore/internal/domain/model"
	"bookstore/internal/infra/storage"
	repo "bookstore/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

type BookUsecase struct {
	bookRepo repo.BookRepository
	files    storage.FileStorage
	idGen    IDGenerator
}

// DI
func NewBookUsecase(bookRepo repo.BookRepository, files storage.FileStorage, idGen IDGenerator) *BookUsecase {
	return &BookUsecase{
		bookRepo: bookRepo,
		files:    files,
		idGen:    idGen,
	}
}

// GET /booksの入力DTO
type ListBooksInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type BookListOutput struct {
	Items []model.Book `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *BookUsecase) ListPublicBooks(ctx context.Context, in ListBooksInput) (BookListOutput, error) {
	if in.Page < 1 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.bookRepo.ListPublic(ctx, repo.BookListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return BookListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return BookListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *BookUsecase) GetBookDetail(ctx context.Context, bookID int64) (model.Book, error) {
	if bookID <= 0 {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	b, err := u.bookRepo.FindByID(ctx, bookID)
	if err == repo.ErrNotFound {
		return model.Book{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Book{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//非公開の書籍は一般には見せない
	if !b.IsActive {
		return model.Book{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	return b, nil
}

// 管理者の書籍作成入力。PDFは必須、カバーは任意。
type AdminCreateBookInput struct {
	Title       string
	Author      string
	Description string
	Price       int64
	IsActive    bool

	PDFData   []byte
	CoverData []byte
	CoverType string
}

func (u *BookUsecase) AdminCreateBook(ctx context.Context, in AdminCreateBookInput) (model.Book, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if strings.TrimSpace(in.Author) == "" {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "author is required")
	}
	if in.Price < 0 {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if len(in.PDFData) == 0 {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "pdf is required")
	}

	//先にファイルを置き、DBはその後（失敗してもゴミファイルだけで済む）
	pdfKey := "books/" + u.idGen.NewID() + ".pdf"
	if _, err := u.files.Store(ctx, pdfKey, in.PDFData, "application/pdf"); err != nil {
		return model.Book{}, NewHTTPError(http.StatusInternalServerError, "storage error")
	}

	coverURL := ""
	if len(in.CoverData) > 0 {
		key := "covers/" + u.idGen.NewID() + path.Ext(coverExt(in.CoverType))
		url, err := u.files.Store(ctx, key, in.CoverData, in.CoverType)
		if err != nil {
			return model.Book{}, NewHTTPError(http.StatusInternalServerError, "storage error")
		}
		coverURL = url
	}

	created, err := u.bookRepo.Create(ctx, model.Book{
		Title:       strings.TrimSpace(in.Title),
		Author:      strings.TrimSpace(in.Author),
		Description: in.Description,
		Price:       in.Price,
		CoverURL:    coverURL,
		PDFKey:      pdfKey,
		IsActive:    in.IsActive,
	})
	if err != nil {
		return model.Book{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return created, nil
}

type AdminUpdateBookInput struct {
	Title       string
	Author      string
	Description string
	Price       int64
	IsActive    bool
}

func (u *BookUsecase) AdminUpdateBook(ctx context.Context, bookID int64, in AdminUpdateBookInput) error {
	if bookID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid book id")
	}
	if strings.TrimSpace(in.Title) == "" {
		return NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}

	b, err := u.bookRepo.FindByID(ctx, bookID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	b.Title = strings.TrimSpace(in.Title)
	b.Author = strings.TrimSpace(in.Author)
	b.Description = in.Description
	b.Price = in.Price
	b.IsActive = in.IsActive

	if err := u.bookRepo.Update(ctx, b); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// ソフトデリート。付与済みアクセスは生かすのでファイルは消さない。
func (u *BookUsecase) AdminDeleteBook(ctx context.Context, bookID int64) error {
	if bookID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	if err := u.bookRepo.SoftDelete(ctx, bookID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func coverExt(contentType string) string {
	switch contentType {
	case "image/png":
		return "cover.png"
	default:
		return "cover.jpg"
	}
}
