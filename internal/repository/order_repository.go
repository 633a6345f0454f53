package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type OrderListFilter struct {
	Page     int
	PageSize int
	// 空なら全status
	Status model.OrderStatus
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// created_at降順、総件数つき
	ListByUserID(ctx context.Context, userID int64, f OrderListFilter) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	// 現在statusが一致するときだけ遷移させる条件付きUPDATE1文。
	// 一致しなければfalse。読み→書きの2段には分けない。
	UpdateStatusIfCurrent(ctx context.Context, orderID int64, current model.OrderStatus, next model.OrderStatus) (bool, error)
}
