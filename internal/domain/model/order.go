package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusExpired   OrderStatus = "EXPIRED"
)

type PaymentMethod string

const (
	PaymentMethodQRCode       PaymentMethod = "QR_CODE"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// 注文の有効期限（未払いのまま過ぎたらEXPIRED）
const OrderTTL = 30 * time.Minute

type Order struct {
	ID     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64       `gorm:"not null;index" json:"user_id"`
	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//明細の price×quantity 合計と常に一致する
	Total int64 `gorm:"not null" json:"total"`

	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`

	//振込・QRに載せる参照番号
	PaymentRef string `gorm:"type:varchar(64);not null;uniqueIndex" json:"payment_ref"`

	//QRコード（PNGのdata URL）
	QRCode string `gorm:"type:text" json:"qr_code,omitempty"`

	ScreenshotUploaded bool `gorm:"not null;default:false" json:"screenshot_uploaded"`

	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 期限切れ判定（PENDINGのみ対象）
func (o Order) IsExpired(now time.Time) bool {
	return o.Status == OrderStatusPending && now.After(o.ExpiresAt)
}
