package model

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PhoneNumber  string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone_number"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Nickname     string    `gorm:"type:varchar(100)" json:"nickname"`
	Avatar       string    `gorm:"type:varchar(500)" json:"avatar"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
