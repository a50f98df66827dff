package model

import "time"

type OrderItem struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`
	BookID  int64 `gorm:"not null;index" json:"book_id"`

	//購入時点のスナップショット
	TitleSnapshot string `gorm:"type:varchar(255);not null" json:"title_snapshot"`
	UnitPrice     int64  `gorm:"not null" json:"unit_price"`

	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
