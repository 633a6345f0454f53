package usecase_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks（衝突回避の命名）
// =====================

type OrdProductRepoMock struct{ mock.Mock }

func (m *OrdProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrdProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *OrdProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrdProductRepoMock) Update(ctx context.Context, p model.Product) error {
	panic("not used in OrderUsecase tests")
}

func (m *OrdProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	panic("not used in OrderUsecase tests")
}

type OrdInventoryRepoMock struct{ mock.Mock }

func (m *OrdInventoryRepoMock) GetStock(ctx context.Context, productID int64) (int64, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrdInventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *OrdInventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *OrdInventoryRepoMock) CreateMovement(ctx context.Context, mv model.StockMovement) error {
	args := m.Called(ctx, mv)
	return args.Error(0)
}

type OrdOrderRepoMock struct{ mock.Mock }

func (m *OrdOrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrdOrderRepoMock) ListByUserID(ctx context.Context, userID int64, f repo.OrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, f)
	items, _ := args.Get(0).([]model.Order)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *OrdOrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrdOrderRepoMock) UpdateStatusIfCurrent(ctx context.Context, orderID int64, current model.OrderStatus, next model.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, current, next)
	return args.Bool(0), args.Error(1)
}

type OrdOrderItemRepoMock struct{ mock.Mock }

func (m *OrdOrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrdOrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type OrdCartItemRepoMock struct{ mock.Mock }

func (m *OrdCartItemRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrdCartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrdCartItemRepoMock) UpsertAddQuantity(ctx context.Context, userID int64, productID int64, addQty int64) error {
	panic("not used in OrderUsecase tests")
}

func (m *OrdCartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	panic("not used in OrderUsecase tests")
}

func (m *OrdCartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	panic("not used in OrderUsecase tests")
}

func (m *OrdCartItemRepoMock) ClearByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// TxRepos／TransactionManagerのスタブ。
// fnをそのまま呼ぶだけで、ロールバックの挙動は見ない（それは別テスト）。
type ordTxRepos struct {
	orders     *OrdOrderRepoMock
	orderItems *OrdOrderItemRepoMock
	cartItems  *OrdCartItemRepoMock
	inventory  *OrdInventoryRepoMock
	products   *OrdProductRepoMock
}

func (s *ordTxRepos) Orders() repo.OrderRepository         { return s.orders }
func (s *ordTxRepos) OrderItems() repo.OrderItemRepository { return s.orderItems }
func (s *ordTxRepos) CartItems() repo.CartItemRepository   { return s.cartItems }
func (s *ordTxRepos) Inventory() repo.InventoryRepository  { return s.inventory }
func (s *ordTxRepos) Products() repo.ProductRepository     { return s.products }

type ordTxManager struct{ repos *ordTxRepos }

func (m *ordTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

func newOrdFixture() (*ordTxRepos, *usecase.OrderUsecase) {
	repos := &ordTxRepos{
		orders:     new(OrdOrderRepoMock),
		orderItems: new(OrdOrderItemRepoMock),
		cartItems:  new(OrdCartItemRepoMock),
		inventory:  new(OrdInventoryRepoMock),
		products:   new(OrdProductRepoMock),
	}
	uc := usecase.NewOrderUsecase(&ordTxManager{repos: repos}, repos.cartItems)
	return repos, uc
}

func assertKind(t *testing.T, err error, kind usecase.ErrorKind) {
	t.Helper()
	ae, ok := usecase.AsAppError(err)
	if assert.True(t, ok, "expected AppError, got %v", err) {
		assert.Equal(t, kind, ae.Kind)
	}
}

// =====================
// CreateOrder
// =====================

func TestOrderUsecase_CreateOrder_Success(t *testing.T) {
	repos, uc := newOrdFixture()
	ctx := context.Background()

	repos.products.On("FindByID", ctx, int64(1)).Return(model.Product{ID: 1, Name: "りんご", Price: 300, Stock: 10}, nil)
	repos.products.On("FindByID", ctx, int64(2)).Return(model.Product{ID: 2, Name: "みかん", Price: 150, Stock: 5}, nil)
	repos.inventory.On("DecreaseStockIfEnough", ctx, int64(1), int64(2)).Return(true, nil)
	repos.inventory.On("DecreaseStockIfEnough", ctx, int64(2), int64(3)).Return(true, nil)
	repos.orders.On("Create", ctx, mock.Anything).Return(int64(42), nil)
	repos.orderItems.On("CreateBulk", ctx, int64(42), mock.Anything).Return(nil)
	repos.inventory.On("CreateMovement", ctx, mock.Anything).Return(nil)
	repos.cartItems.On("ClearByUserID", ctx, int64(7)).Return(nil)

	out, err := uc.CreateOrder(ctx, 7, usecase.CreateOrderInput{
		Items: []usecase.OrderItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 3},
		},
		ShippingAddress: "東京都千代田区1-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), out.ID)
	assert.Equal(t, string(model.OrderStatusPending), out.Status)
	// 300*2 + 150*3
	assert.Equal(t, int64(1050), out.TotalAmount)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, int64(300), out.Items[0].Price)
	assert.Equal(t, int64(600), out.Items[0].Subtotal)

	repos.cartItems.AssertCalled(t, "ClearByUserID", ctx, int64(7))
	repos.inventory.AssertNumberOfCalls(t, "CreateMovement", 2)
}

func TestOrderUsecase_CreateOrder_ProductNotFound(t *testing.T) {
	repos, uc := newOrdFixture()
	ctx := context.Background()

	repos.products.On("FindByID", ctx, int64(99)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.CreateOrder(ctx, 7, usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: 99, Quantity: 1}},
		ShippingAddress: "somewhere",
	})

	assertKind(t, err, usecase.KindNotFound)
	repos.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repos.cartItems.AssertNotCalled(t, "ClearByUserID", mock.Anything, mock.Anything)
}

func TestOrderUsecase_CreateOrder_InsufficientStock(t *testing.T) {
	repos, uc := newOrdFixture()
	ctx := context.Background()

	repos.products.On("FindByID", ctx, int64(1)).Return(model.Product{ID: 1, Name: "限定品", Price: 1000, Stock: 1}, nil)
	repos.inventory.On("DecreaseStockIfEnough", ctx, int64(1), int64(2)).Return(false, nil)

	_, err := uc.CreateOrder(ctx, 7, usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: 1, Quantity: 2}},
		ShippingAddress: "somewhere",
	})

	assertKind(t, err, usecase.KindInsufficientStock)
	assert.Contains(t, err.Error(), "限定品")
	repos.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderUsecase_CreateOrder_EmptyItems(t *testing.T) {
	_, uc := newOrdFixture()

	_, err := uc.CreateOrder(context.Background(), 7, usecase.CreateOrderInput{
		Items:           nil,
		ShippingAddress: "somewhere",
	})
	assertKind(t, err, usecase.KindInvalidInput)
}

func TestOrderUsecase_CreateOrder_InvalidQuantity(t *testing.T) {
	_, uc := newOrdFixture()

	_, err := uc.CreateOrder(context.Background(), 7, usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: 1, Quantity: 0}},
		ShippingAddress: "somewhere",
	})
	assertKind(t, err, usecase.KindInvalidInput)
}

func TestOrderUsecase_CreateOrder_EmptyAddress(t *testing.T) {
	_, uc := newOrdFixture()

	_, err := uc.CreateOrder(context.Background(), 7, usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: 1, Quantity: 1}},
		ShippingAddress: "   ",
	})
	assertKind(t, err, usecase.KindInvalidInput)
}

func TestOrderUsecase_CreateOrder_CartClearFailureDoesNotFailOrder(t *testing.T) {
	repos, uc := newOrdFixture()
	ctx := context.Background()

	repos.products.On("FindByID", ctx, int64(1)).Return(model.Product{ID: 1, Name: "りんご", Price: 300, Stock: 10}, nil)
	repos.inventory.On("DecreaseStockIfEnough", ctx, int64(1), int64(1)).Return(true, nil)
	repos.orders.On("Create", ctx, mock.Anything).Return(int64(1), nil)
	repos.orderItems.On("CreateBulk", ctx, int64(1), mock.Anything).Return(nil)
	repos.inventory.On("CreateMovement", ctx, mock.Anything).Return(nil)
	repos.cartItems.On("ClearByUserID", ctx, int64(7)).Return(assert.AnError)

	out, err := uc.CreateOrder(ctx, 7, usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: 1, Quantity: 1}},
		ShippingAddress: "somewhere",
	})

	// カート削除の失敗は注文の成立に影響しない
	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.ID)
}

// =====================
// Cancel
// =====================

func TestOrderUsecase_Cancel_Success(t *testing.T) {
	repos, uc := newOrdFixture()
	ctx := context.Background()

	repos.orders.On("FindByID", ctx, int64(42)).
		Return(model.Order{ID: 42, UserID: 7, Status: model.OrderStatusPending}, nil)
	repos.orders.On("UpdateStatusIfCurrent", ctx, int64(42), model.OrderStatusPending, model.OrderStatusCanceled).Return(true, nil)
	repos.orderItems.On("ListByOrderID", ctx, int64(42)).Return([]model.OrderItem{
		{OrderID: 42, ProductID: 1, Quantity: 2},
		{OrderID: 42, ProductID: 2, Quantity: 1},
	}, nil)
	repos.inventory.On("IncreaseStock", ctx, int64(1), int64(2)).Return(nil)
	repos.inventory.On("IncreaseStock", ctx, int64(2), int64(1)).Return(nil)
	repos.inventory.On("CreateMovement", ctx, mock.Anything).Return(nil)

	err := uc.Cancel(ctx, 42, 7)

	assert.NoError(t, err)
	repos.inventory.AssertCalled(t, "IncreaseStock", ctx, int64(1), int64(2))
	repos.inventory.AssertCalled(t, "IncreaseStock", ctx, int64(2), int64(1))
}

func TestOrderUsecase_Cancel_NotOwner(t *testing.T) {
	repos, uc := newOrdFixture()
	ctx := context.Background()

	repos.orders.On("FindByID", ctx, int64(42)).
		Return(model.Order{ID: 42, UserID: 8, Status: model.OrderStatusPending}, nil)

	err := uc.Cancel(ctx, 42, 7)

	// 存在を漏らさないためNotFound
	assertKind(t, err, usecase.KindNotFound)
	repos.orders.AssertNotCalled(t, "UpdateStatusIfCurrent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_Cancel_LosesStatusRace(t *testing.T) {
	repos, uc := newOrdFixture()
	ctx := context.Background()

	// 読んだ時点ではpendingだが、条件付きUPDATEに負ける
	// （並行する取消が先にcommitしたケース）
	repos.orders.On("FindByID", ctx, int64(42)).
		Return(model.Order{ID: 42, UserID: 7, Status: model.OrderStatusPending}, nil)
	repos.orders.On("UpdateStatusIfCurrent", ctx, int64(42), model.OrderStatusPending, model.OrderStatusCanceled).
		Return(false, nil)

	err := uc.Cancel(ctx, 42, 7)

	// 負けた側は在庫を二重に戻さない
	assertKind(t, err, usecase.KindInvalidState)
	repos.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
	repos.inventory.AssertNotCalled(t, "CreateMovement", mock.Anything, mock.Anything)
}

func TestOrderUsecase_Cancel_NotPending(t *testing.T) {
	for _, status := range []model.OrderStatus{
		model.OrderStatusPaid,
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
		model.OrderStatusCanceled,
	} {
		repos, uc := newOrdFixture()
		ctx := context.Background()

		repos.orders.On("FindByID", ctx, int64(42)).
			Return(model.Order{ID: 42, UserID: 7, Status: status}, nil)

		err := uc.Cancel(ctx, 42, 7)

		assertKind(t, err, usecase.KindInvalidState)
		repos.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
	}
}

// =====================
// UpdateStatus
// =====================

func TestOrderUsecase_UpdateStatus_LegalTransition(t *testing.T) {
	repos, uc := newOrdFixture()
	ctx := context.Background()

	repos.orders.On("FindByID", ctx, int64(42)).
		Return(model.Order{ID: 42, UserID: 7, Status: model.OrderStatusPending}, nil)
	repos.orders.On("UpdateStatusIfCurrent", ctx, int64(42), model.OrderStatusPending, model.OrderStatusPaid).Return(true, nil)

	assert.NoError(t, uc.UpdateStatus(ctx, 42, model.OrderStatusPaid))
}

func TestOrderUsecase_UpdateStatus_LosesStatusRace(t *testing.T) {
	repos, uc := newOrdFixture()
	ctx := context.Background()

	repos.orders.On("FindByID", ctx, int64(42)).
		Return(model.Order{ID: 42, UserID: 7, Status: model.OrderStatusPending}, nil)
	repos.orders.On("UpdateStatusIfCurrent", ctx, int64(42), model.OrderStatusPending, model.OrderStatusPaid).
		Return(false, nil)

	err := uc.UpdateStatus(ctx, 42, model.OrderStatusPaid)
	assertKind(t, err, usecase.KindInvalidState)
}

func TestOrderUsecase_UpdateStatus_IllegalTransition(t *testing.T) {
	repos, uc := newOrdFixture()
	ctx := context.Background()

	repos.orders.On("FindByID", ctx, int64(42)).
		Return(model.Order{ID: 42, UserID: 7, Status: model.OrderStatusShipped}, nil)

	err := uc.UpdateStatus(ctx, 42, model.OrderStatusPaid)
	assertKind(t, err, usecase.KindInvalidState)
}

// =====================
// List / Detail
// =====================

func TestOrderUsecase_ListMyOrders_InvalidStatus(t *testing.T) {
	_, uc := newOrdFixture()

	_, err := uc.ListMyOrders(context.Background(), 7, usecase.ListOrdersInput{Status: "unknown"})
	assertKind(t, err, usecase.KindInvalidInput)
}

func TestOrderUsecase_ListMyOrders_Success(t *testing.T) {
	repos, uc := newOrdFixture()
	ctx := context.Background()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repos.orders.On("ListByUserID", ctx, int64(7), repo.OrderListFilter{
		Page:     1,
		PageSize: 10,
		Status:   model.OrderStatusPending,
	}).Return([]model.Order{
		{ID: 2, UserID: 7, Status: model.OrderStatusPending, TotalAmount: 500, CreatedAt: created},
	}, int64(1), nil)
	repos.orderItems.On("ListByOrderID", ctx, int64(2)).Return([]model.OrderItem{
		{OrderID: 2, ProductID: 1, ProductNameSnapshot: "りんご", UnitPriceSnapshot: 500, Quantity: 1},
	}, nil)

	out, err := uc.ListMyOrders(ctx, 7, usecase.ListOrdersInput{Status: "pending"})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Len(t, out.Orders, 1)
	assert.Equal(t, "りんご", out.Orders[0].Items[0].Name)
}

func TestOrderUsecase_GetMyOrderDetail_OtherUsersOrder(t *testing.T) {
	repos, uc := newOrdFixture()
	ctx := context.Background()

	repos.orders.On("FindByID", ctx, int64(42)).
		Return(model.Order{ID: 42, UserID: 8, Status: model.OrderStatusPending}, nil)

	_, err := uc.GetMyOrderDetail(ctx, 7, 42)
	assertKind(t, err, usecase.KindNotFound)
}
