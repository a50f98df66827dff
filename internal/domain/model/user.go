package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string `gorm:"type:varchar(30);uniqueIndex;not null" json:"phone"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`

	//メールOTP確認済みかどうか
	IsVerified bool `gorm:"not null;default:false" json:"is_verified"`

	//OTP関連（確認成功でNULLに戻す）
	OTPCode      *string    `gorm:"type:varchar(6)" json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	OTPAttempts  int        `gorm:"not null;default:0" json:"-"`

	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
