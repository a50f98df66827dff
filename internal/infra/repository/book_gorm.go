package repository

import (
	"context"
	"errors"
	"strings"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type BookGormRepository struct {
	db *gorm.DB
}

// DI
func NewBookGormRepository(db *gorm.DB) *BookGormRepository {
	return &BookGormRepository{db: db}
}

// 公開書籍のみを、検索/価格帯/ソート/ページング付きで返す。
func (r *BookGormRepository) ListPublic(ctx context.Context, q repo.BookListQuery) ([]model.Book, int64, error) {
	var books []model.Book
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Book{})

	// 公開（is_active=true）かつ、削除されていないものだけ
	tx = tx.Where("is_active = ?", true)

	// qはタイトル・著者を対象
	if strings.TrimSpace(q.Q) != "" {
		like := "%" + strings.TrimSpace(q.Q) + "%"
		tx = tx.Where("title ILIKE ? OR author ILIKE ?", like, like)
	}

	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Book{}, 0, err
	}

	//sort
	switch q.Sort {
	case "price_asc":
		tx = tx.Order("price asc").Order("id asc")
	case "price_desc":
		tx = tx.Order("price desc").Order("id desc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Offset(offset).Limit(q.Limit).Find(&books).Error; err != nil {
		return []model.Book{}, 0, err
	}

	return books, total, nil
}

// IDで書籍を取得
func (r *BookGormRepository) FindByID(ctx context.Context, id int64) (model.Book, error) {
	var b model.Book
	err := r.db.WithContext(ctx).First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Book{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Book{}, err
	}
	return b, nil
}

// 複数IDをまとめて取得（見つからないIDはusecase側で検出）
func (r *BookGormRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Book, error) {
	if len(ids) == 0 {
		return []model.Book{}, nil
	}
	var books []model.Book
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error; err != nil {
		return []model.Book{}, err
	}
	return books, nil
}

// 書籍の作成
func (r *BookGormRepository) Create(ctx context.Context, b model.Book) (model.Book, error) {
	if err := r.db.WithContext(ctx).Create(&b).Error; err != nil {
		return model.Book{}, err
	}
	return b, nil
}

// 書籍の更新
func (r *BookGormRepository) Update(ctx context.Context, b model.Book) error {
	res := r.db.WithContext(ctx).Model(&model.Book{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
		"title":       b.Title,
		"author":      b.Author,
		"description": b.Description,
		"price":       b.Price,
		"cover_url":   b.CoverURL,
		"pdf_key":     b.PDFKey,
		"is_active":   b.IsActive,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 書籍削除（ソフトデリート）
func (r *BookGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Book{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *BookGormRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Book{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
