package model

import "time"

type StockMovementReason string

const (
	StockMovementReserve StockMovementReason = "RESERVE"
	StockMovementRestore StockMovementReason = "RESTORE"
)

// 在庫の増減履歴。予約（減算）と取消戻しの監査用。
// Quantityは符号付き（予約はマイナス、戻しはプラス）。
type StockMovement struct {
	ID        int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64               `gorm:"not null;index" json:"product_id"`
	OrderID   int64               `gorm:"not null;index" json:"order_id"`
	Quantity  int64               `gorm:"not null" json:"quantity"`
	Reason    StockMovementReason `gorm:"type:varchar(20);not null" json:"reason"`
	CreatedAt time.Time           `gorm:"not null;autoCreateTime" json:"created_at"`
}
