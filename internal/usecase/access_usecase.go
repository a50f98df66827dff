package usecase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/infra/storage"
	"bookstore/internal/metrics"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

// AccessUsecase はダウンロード権限の確認と本体配信。
// 可否の根拠はuser_book_accessの行だけで、注文履歴は見ない。
type AccessUsecase struct {
	accessRepo repo.AccessRepository
	bookRepo   repo.BookRepository
	files      storage.FileStorage
	clock      Clock
	logger     *zap.Logger
}

func NewAccessUsecase(accessRepo repo.AccessRepository, bookRepo repo.BookRepository, files storage.FileStorage, clock Clock, logger *zap.Logger) *AccessUsecase {
	return &AccessUsecase{accessRepo: accessRepo, bookRepo: bookRepo, files: files, clock: clock, logger: logger}
}

type AccessCheckOutput struct {
	BookID        int64      `json:"book_id"`
	HasAccess     bool       `json:"has_access"`
	AccessType    string     `json:"access_type,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	DownloadCount int64      `json:"download_count"`
}

// CheckAccess は副作用なしの可否確認。UIの出し分け用。
func (u *AccessUsecase) CheckAccess(ctx context.Context, userID int64, bookID int64) (AccessCheckOutput, error) {
	if userID <= 0 {
		return AccessCheckOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if bookID <= 0 {
		return AccessCheckOutput{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	a, err := u.accessRepo.Find(ctx, userID, bookID)
	if err == repo.ErrNotFound {
		return AccessCheckOutput{BookID: bookID, HasAccess: false}, nil
	}
	if err != nil {
		return AccessCheckOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return AccessCheckOutput{
		BookID:        bookID,
		HasAccess:     a.HasAccess(u.clock.Now()),
		AccessType:    string(a.AccessType),
		ExpiresAt:     a.ExpiresAt,
		DownloadCount: a.DownloadCount,
	}, nil
}

type DownloadOutput struct {
	Content  io.ReadCloser
	Filename string
}

// Download はPDF本体を返す。
// 期限切れの権限はここで無効化してから拒否する（遅延無効化）。
func (u *AccessUsecase) Download(ctx context.Context, userID int64, bookID int64) (DownloadOutput, error) {
	if userID <= 0 {
		return DownloadOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if bookID <= 0 {
		return DownloadOutput{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	a, err := u.accessRepo.Find(ctx, userID, bookID)
	if err == repo.ErrNotFound {
		return DownloadOutput{}, NewHTTPError(http.StatusForbidden, "access denied")
	}
	if err != nil {
		return DownloadOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	now := u.clock.Now()
	if !a.HasAccess(now) {
		if a.IsActive && a.ExpiresAt != nil && now.After(*a.ExpiresAt) {
			//期限切れはこの場で無効化してから、失効として区別して弾く
			if err := u.accessRepo.Deactivate(ctx, userID, bookID); err != nil {
				u.logger.Warn("access deactivate failed",
					zap.Int64("user_id", userID),
					zap.Int64("book_id", bookID),
					zap.Error(err),
				)
			}
			return DownloadOutput{}, NewHTTPError(http.StatusForbidden, "access expired")
		}
		return DownloadOutput{}, NewHTTPError(http.StatusForbidden, "access denied")
	}

	b, err := u.bookRepo.FindByID(ctx, bookID)
	if err == repo.ErrNotFound {
		return DownloadOutput{}, NewHTTPError(http.StatusNotFound, "book not found")
	}
	if err != nil {
		return DownloadOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	rc, err := u.files.Open(ctx, b.PDFKey)
	if err == storage.ErrFileNotFound {
		return DownloadOutput{}, NewHTTPError(http.StatusNotFound, "file not found")
	}
	if err != nil {
		return DownloadOutput{}, NewHTTPError(http.StatusInternalServerError, "file open failed")
	}

	//ダウンロード回数は配信に失敗したら実数と1ずれるが許容する
	if err := u.accessRepo.RecordDownload(ctx, userID, bookID, now); err != nil {
		rc.Close()
		return DownloadOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	metrics.DownloadsServedTotal.Inc()

	return DownloadOutput{
		Content:  rc,
		Filename: fmt.Sprintf("%s.pdf", b.Title),
	}, nil
}

type OwnedBookOutput struct {
	Book          model.Book `json:"book"`
	GrantedAt     time.Time  `json:"granted_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	DownloadCount int64      `json:"download_count"`
}

// ListMyBooks は現在ダウンロード可能な書籍の一覧。
func (u *AccessUsecase) ListMyBooks(ctx context.Context, userID int64) ([]OwnedBookOutput, error) {
	if userID <= 0 {
		return []OwnedBookOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	accesses, err := u.accessRepo.ListByUserID(ctx, userID)
	if err != nil {
		return []OwnedBookOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	now := u.clock.Now()

	ids := make([]int64, 0, len(accesses))
	byBook := make(map[int64]model.BookAccess, len(accesses))
	for _, a := range accesses {
		if !a.HasAccess(now) {
			continue
		}
		ids = append(ids, a.BookID)
		byBook[a.BookID] = a
	}
	if len(ids) == 0 {
		return []OwnedBookOutput{}, nil
	}

	books, err := u.bookRepo.FindByIDs(ctx, ids)
	if err != nil {
		return []OwnedBookOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OwnedBookOutput, 0, len(books))
	for _, b := range books {
		a := byBook[b.ID]
		outs = append(outs, OwnedBookOutput{
			Book:          b,
			GrantedAt:     a.GrantedAt,
			ExpiresAt:     a.ExpiresAt,
			DownloadCount: a.DownloadCount,
		})
	}
	return outs, nil
}
