package repository

import (
	"context"
	"errors"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type ScreenshotGormRepository struct {
	db *gorm.DB
}

func NewScreenshotGormRepository(db *gorm.DB) *ScreenshotGormRepository {
	return &ScreenshotGormRepository{db: db}
}

func (r *ScreenshotGormRepository) Create(ctx context.Context, s model.PaymentScreenshot) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return 0, err
	}
	return s.ID, nil
}

func (r *ScreenshotGormRepository) FindByID(ctx context.Context, id int64) (model.PaymentScreenshot, error) {
	var s model.PaymentScreenshot
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PaymentScreenshot{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PaymentScreenshot{}, err
	}
	return s, nil
}

// 新しいアップロード順
func (r *ScreenshotGormRepository) List(ctx context.Context, f repo.ScreenshotListFilter) ([]model.PaymentScreenshot, error) {
	q := r.db.WithContext(ctx).Model(&model.PaymentScreenshot{})

	if f.Verified != nil {
		q = q.Where("verified = ?", *f.Verified)
	}

	var items []model.PaymentScreenshot
	if err := q.Order("uploaded_at desc").Find(&items).Error; err != nil {
		return []model.PaymentScreenshot{}, err
	}
	return items, nil
}

func (r *ScreenshotGormRepository) SetVerdict(ctx context.Context, id int64, verified bool, verifiedBy int64, verifiedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.PaymentScreenshot{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"verified":    verified,
			"verified_by": verifiedBy,
			"verified_at": verifiedAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
