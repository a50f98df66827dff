package model

import (
	"time"

	"gorm.io/gorm"
)

type Book struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Author      string `gorm:"type:varchar(255);not null" json:"author"`
	Description string `gorm:"type:text" json:"description"`

	//最小通貨単位で保存
	Price int64 `gorm:"not null" json:"price"`

	CoverURL string `gorm:"type:varchar(512)" json:"cover_url"`

	//PDF本体のストレージキー（URLではなくキー）
	PDFKey string `gorm:"column:pdf_key;type:varchar(512);not null" json:"-"`

	IsActive  bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
