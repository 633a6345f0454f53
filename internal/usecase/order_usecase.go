package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// OrderUsecase は注文の作成・取消・照会を担う。
// 注文処理全体（在庫予約×N + 注文 + 明細）は1つのトランザクションで、
// 途中で失敗したら在庫の減算も含めて全部ロールバックされる。
type OrderUsecase struct {
	tx        repo.TransactionManager
	cartItems repo.CartItemRepository
}

func NewOrderUsecase(tx repo.TransactionManager, cartItems repo.CartItemRepository) *OrderUsecase {
	return &OrderUsecase{tx: tx, cartItems: cartItems}
}

type OrderItemInput struct {
	ProductID int64
	Quantity  int64
}

type CreateOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress string
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	Status          string            `json:"status"`
	TotalAmount     int64             `json:"total_amount"`
	ShippingAddress string            `json:"shipping_address"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Orders   []OrderOutput `json:"orders"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// CreateOrder は注文を作成する。
// 商品ごとに条件付きUPDATEで在庫を予約してから、注文＋明細を同一Txで保存する。
// どこかで失敗すればTxロールバックで先行予約分も戻る（部分的な状態は残らない）。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewAppError(KindUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewAppError(KindInvalidInput, "order items must not be empty")
	}
	addr := strings.TrimSpace(in.ShippingAddress)
	if addr == "" || len(addr) > 500 {
		return OrderOutput{}, NewAppError(KindInvalidInput, "invalid shipping address")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return OrderOutput{}, NewAppError(KindInvalidInput, "invalid product_id")
		}
		if it.Quantity < 1 {
			return OrderOutput{}, NewAppError(KindInvalidInput, "invalid quantity")
		}
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderItems := make([]model.OrderItem, 0, len(in.Items))
		var total int64 = 0

		for _, it := range in.Items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err == repo.ErrNotFound {
				return NewAppError(KindNotFound, fmt.Sprintf("product %d not found", it.ProductID))
			}
			if err != nil {
				return storageError()
			}

			// 在庫予約（足りなければfalse、先行分はロールバックで戻る）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return storageError()
			}
			if !ok {
				return NewAppError(KindInsufficientStock,
					fmt.Sprintf("insufficient stock for %s", p.Name))
			}

			// 価格は予約時点のスナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           it.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            it.Quantity,
			})
			total += p.Price * it.Quantity
		}

		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:          userID,
			TotalAmount:     total,
			ShippingAddress: addr,
			Status:          model.OrderStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return storageError()
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return storageError()
		}

		// 在庫履歴
		for _, oi := range orderItems {
			m := model.StockMovement{
				ProductID: oi.ProductID,
				OrderID:   orderID,
				Quantity:  -oi.Quantity,
				Reason:    model.StockMovementReserve,
			}
			if err := r.Inventory().CreateMovement(ctx, m); err != nil {
				return storageError()
			}
		}

		created := model.Order{
			ID:              orderID,
			UserID:          userID,
			TotalAmount:     total,
			ShippingAddress: addr,
			Status:          model.OrderStatusPending,
			CreatedAt:       now,
		}
		out = toOrderOutput(created, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	// カート削除はTxの外。注文は確定済みなので、ここで失敗しても注文は返す。
	_ = u.cartItems.ClearByUserID(ctx, userID)

	return out, nil
}

// Cancel はpendingの注文を取り消し、明細ぶんの在庫を同一Txで戻す。
func (u *OrderUsecase) Cancel(ctx context.Context, orderID int64, userID int64) error {
	if userID <= 0 {
		return NewAppError(KindUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewAppError(KindInvalidInput, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewAppError(KindNotFound, "order not found")
		}
		if err != nil {
			return storageError()
		}
		// 他人の注文は「存在しない扱い」
		if o.UserID != userID {
			return NewAppError(KindNotFound, "order not found")
		}
		if o.Status != model.OrderStatusPending {
			return NewAppError(KindInvalidState,
				fmt.Sprintf("order in status %s cannot be cancelled", o.Status))
		}

		// 読んだ後に別の取消が先行している可能性があるので、
		// 遷移は条件付きUPDATEで確定させる。負けた側は在庫を戻さない。
		ok, err := r.Orders().UpdateStatusIfCurrent(ctx, orderID, model.OrderStatusPending, model.OrderStatusCanceled)
		if err != nil {
			return storageError()
		}
		if !ok {
			return NewAppError(KindInvalidState, "order is no longer pending")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return storageError()
		}
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return storageError()
			}
			m := model.StockMovement{
				ProductID: it.ProductID,
				OrderID:   orderID,
				Quantity:  it.Quantity,
				Reason:    model.StockMovementRestore,
			}
			if err := r.Inventory().CreateMovement(ctx, m); err != nil {
				return storageError()
			}
		}
		return nil
	})
}

// UpdateStatus は決済・配送側から呼ばれる状態遷移。
// pending→paid/cancelled、paid→shipped、shipped→delivered以外は拒否。
func (u *OrderUsecase) UpdateStatus(ctx context.Context, orderID int64, next model.OrderStatus) error {
	if orderID <= 0 {
		return NewAppError(KindInvalidInput, "invalid id")
	}
	if !next.Valid() {
		return NewAppError(KindInvalidInput, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewAppError(KindNotFound, "order not found")
		}
		if err != nil {
			return storageError()
		}
		if !o.Status.CanTransitionTo(next) {
			return NewAppError(KindInvalidState,
				fmt.Sprintf("cannot transition from %s to %s", o.Status, next))
		}
		ok, err := r.Orders().UpdateStatusIfCurrent(ctx, orderID, o.Status, next)
		if err != nil {
			return storageError()
		}
		if !ok {
			return NewAppError(KindInvalidState,
				fmt.Sprintf("order left status %s before the transition", o.Status))
		}
		return nil
	})
}

type ListOrdersInput struct {
	Page     int
	PageSize int
	Status   string
}

// ListMyOrders は自分の注文一覧（作成日時降順、総件数つき）。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, in ListOrdersInput) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewAppError(KindUnauthorized, "unauthorized")
	}
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.PageSize <= 0 {
		in.PageSize = 10
	}
	if in.PageSize > 100 {
		return OrderListOutput{}, NewAppError(KindInvalidInput, "invalid page_size")
	}

	status := model.OrderStatus(in.Status)
	if in.Status != "" && !status.Valid() {
		return OrderListOutput{}, NewAppError(KindInvalidInput, "invalid status")
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, repo.OrderListFilter{
			Page:     in.Page,
			PageSize: in.PageSize,
			Status:   status,
		})
		if err != nil {
			return storageError()
		}

		outs := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return storageError()
			}
			outs = append(outs, toOrderOutput(o, items))
		}

		out = OrderListOutput{
			Orders:   outs,
			Total:    total,
			Page:     in.Page,
			PageSize: in.PageSize,
		}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// GetMyOrderDetail は自分の注文1件。他人のものはNotFound。
func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewAppError(KindUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewAppError(KindInvalidInput, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewAppError(KindNotFound, "order not found")
		}
		if err != nil {
			return storageError()
		}
		if o.UserID != userID {
			return NewAppError(KindNotFound, "order not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return storageError()
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
