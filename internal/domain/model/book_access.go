package model

import "time"

type AccessType string

const (
	AccessTypePurchased AccessType = "PURCHASED"
	AccessTypeGranted   AccessType = "GRANTED"
)

// ダウンロード可否の根拠となるエンタイトルメント。
// (user_id, book_id) で1行のみ。再購入はupsertで再有効化する。
type BookAccess struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;uniqueIndex:idx_user_book" json:"user_id"`
	BookID int64 `gorm:"not null;uniqueIndex:idx_user_book" json:"book_id"`

	//付与の元になった注文
	OrderID int64 `gorm:"not null;index" json:"order_id"`

	AccessType AccessType `gorm:"type:varchar(20);not null;default:'PURCHASED'" json:"access_type"`

	GrantedAt time.Time `gorm:"not null" json:"granted_at"`

	//NULLなら無期限
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	DownloadCount int64      `gorm:"not null;default:0" json:"download_count"`
	LastAccessed  *time.Time `json:"last_accessed,omitempty"`
}

// TableName は既存スキーマ名に合わせる。
func (BookAccess) TableName() string {
	return "user_book_access"
}

// 有効期限も含めたアクセス可否
func (a BookAccess) HasAccess(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.ExpiresAt != nil && now.After(*a.ExpiresAt) {
		return false
	}
	return true
}
