package model

import "time"

type NotificationType string

const (
	NotificationPaymentVerified NotificationType = "PAYMENT_VERIFIED"
	NotificationPaymentRejected NotificationType = "PAYMENT_REJECTED"
	NotificationOrderExpired    NotificationType = "ORDER_EXPIRED"
)

type Notification struct {
	ID      int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  int64            `gorm:"not null;index" json:"user_id"`
	Type    NotificationType `gorm:"type:varchar(50);not null" json:"type"`
	Title   string           `gorm:"type:varchar(255);not null" json:"title"`
	Message string           `gorm:"type:text;not null" json:"message"`

	//構造化ペイロード（JSON文字列）
	Payload string `gorm:"type:text" json:"payload,omitempty"`

	Read      bool      `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
