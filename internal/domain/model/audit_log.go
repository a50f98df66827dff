package model

import "time"

// 支払い判定、ユーザー管理など。
type AuditAction string

const (
	//証憑を承認した操作。
	AuditActionVerifyPayment AuditAction = "VERIFY_PAYMENT"
	//証憑を却下した操作。
	AuditActionRejectPayment AuditAction = "REJECT_PAYMENT"
	//ユーザーのロール・有効状態を変更した操作。
	AuditActionUpdateUser AuditAction = "UPDATE_USER"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceScreenshot AuditResourceType = "payment_screenshot"
	AuditResourceOrder      AuditResourceType = "order"
	AuditResourceUser       AuditResourceType = "user"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
