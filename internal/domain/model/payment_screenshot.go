package model

import "time"

// 買い手がアップロードした支払い証憑。
// 再アップロードで1注文に複数行でき、verify/rejectは行単位で行う。
type PaymentScreenshot struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`
	UserID  int64 `gorm:"not null;index" json:"user_id"`

	//ストレージのキー（URLはストレージ層が組み立てる）
	FileKey      string `gorm:"type:varchar(512);not null" json:"file_key"`
	OriginalName string `gorm:"type:varchar(255)" json:"original_name"`

	UploadedAt time.Time `gorm:"not null" json:"uploaded_at"`

	//管理者の判定結果
	Verified   bool       `gorm:"not null;default:false" json:"verified"`
	VerifiedBy *int64     `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}
