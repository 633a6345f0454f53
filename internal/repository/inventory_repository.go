package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 在庫台帳。productsのstock列を触ってよいのはここだけ。
type InventoryRepository interface {
	// 現在の在庫数
	GetStock(ctx context.Context, productID int64) (int64, error)

	// 在庫が足りるときだけ1文で減算（条件付きUPDATE）。
	// 足りなければfalse。読み→書きの2段には分けない。
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル時）。呼び出し側が1回だけ呼ぶこと。
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	// 増減履歴
	CreateMovement(ctx context.Context, m model.StockMovement) error
}
