package model

import "time"

// 電話番号ごとの一時コード。有効なのは未使用・未失効の最新1件だけで、
// 再送信時に古いコードは削除される。
type VerificationCode struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PhoneNumber string    `gorm:"type:varchar(20);not null;index" json:"phone_number"`
	Code        string    `gorm:"type:varchar(6);not null" json:"code"`
	Used        bool      `gorm:"not null;default:false" json:"used"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`
}
