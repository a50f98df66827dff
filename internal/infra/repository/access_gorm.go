package repository

import (
	"context"
	"errors"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccessGormRepository struct {
	db *gorm.DB
}

func NewAccessGormRepository(db *gorm.DB) *AccessGormRepository {
	return &AccessGormRepository{db: db}
}

func (r *AccessGormRepository) Find(ctx context.Context, userID int64, bookID int64) (model.BookAccess, error) {
	var a model.BookAccess
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.BookAccess{}, repo.ErrNotFound
	}
	if err != nil {
		return model.BookAccess{}, err
	}
	return a, nil
}

func (r *AccessGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.BookAccess, error) {
	var items []model.BookAccess
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("granted_at desc").
		Find(&items).Error
	if err != nil {
		return []model.BookAccess{}, err
	}
	return items, nil
}

// (user_id, book_id)のユニーク制約に乗せたupsert。
// 既存行は再有効化＋granted_at更新のみで、download_countは保持する。
// 同時verifyでもON CONFLICTが行の重複を防ぐ。
func (r *AccessGormRepository) Upsert(ctx context.Context, a model.BookAccess) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_active":   true,
				"granted_at":  a.GrantedAt,
				"order_id":    a.OrderID,
				"access_type": a.AccessType,
			}),
		}).
		Create(&a).Error
}

// 期限切れの遅延無効化
func (r *AccessGormRepository) Deactivate(ctx context.Context, userID int64, bookID int64) error {
	res := r.db.WithContext(ctx).Model(&model.BookAccess{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Update("is_active", false)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// カウンタはSQL側でインクリメント（read-modify-writeにしない）
func (r *AccessGormRepository) RecordDownload(ctx context.Context, userID int64, bookID int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.BookAccess{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Updates(map[string]interface{}{
			"download_count": gorm.Expr("download_count + 1"),
			"last_accessed":  at,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// アクティブに所有しているbook IDだけを返す
func (r *AccessGormRepository) ActiveBookIDs(ctx context.Context, userID int64, bookIDs []int64, now time.Time) ([]int64, error) {
	if len(bookIDs) == 0 {
		return []int64{}, nil
	}

	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.BookAccess{}).
		Where("user_id = ? AND book_id IN ?", userID, bookIDs).
		Where("is_active = ?", true).
		Where("expires_at IS NULL OR expires_at >= ?", now).
		Pluck("book_id", &ids).Error
	if err != nil {
		return []int64{}, err
	}
	return ids, nil
}
