package usecase

import (
	"context"

	repo "storefront/internal/repository"
)

// CartUsecase は /cart の業務ロジック。
// カートの行は所有ユーザーだけが触れる。他人の明細はNotFound扱い。
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
}

func NewCartUsecase(
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
	}
}

type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	ImageURL  string `json:"image_url"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

// GetCart はカート取得。小計・合計は現在の商品価格で計算する。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewAppError(KindUnauthorized, "unauthorized")
	}
	return u.buildCartResponse(ctx, userID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewAppError(KindUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewAppError(KindInvalidInput, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewAppError(KindInvalidInput, "invalid quantity")
	}

	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewAppError(KindNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, storageError()
	}

	// 在庫の軽いチェック。確定時の保証はOrderUsecase側の条件付きUPDATE。
	items, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, storageError()
	}
	var existingQty int64 = 0
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}
	if existingQty+in.Quantity > p.Stock {
		return CartResponse{}, NewAppError(KindInvalidInput, "stock exceeded")
	}

	if err := u.cartItemRepo.UpsertAddQuantity(ctx, userID, in.ProductID, in.Quantity); err != nil {
		return CartResponse{}, storageError()
	}

	return u.buildCartResponse(ctx, userID)
}

// UpdateCartItem は数量の上書き。0は削除。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, quantity int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewAppError(KindUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewAppError(KindInvalidInput, "invalid id")
	}
	if quantity < 0 {
		return CartResponse{}, NewAppError(KindInvalidInput, "invalid quantity")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewAppError(KindNotFound, "cart item not found")
	}
	if err != nil {
		return CartResponse{}, storageError()
	}
	// 所有チェック。他人の明細も「無い」扱いにする
	if item.UserID != userID {
		return CartResponse{}, NewAppError(KindNotFound, "cart item not found")
	}

	if quantity == 0 {
		if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
			return CartResponse{}, storageError()
		}
	} else {
		if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, quantity); err != nil {
			return CartResponse{}, storageError()
		}
	}

	return u.buildCartResponse(ctx, userID)
}

// RemoveCartItem は明細の削除。
func (u *CartUsecase) RemoveCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	return u.UpdateCartItem(ctx, userID, cartItemID, 0)
}

func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, storageError()
	}

	resp := CartResponse{Items: make([]CartItemResponse, 0, len(items))}
	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			// 商品が消えた明細は表示しない
			continue
		}
		if err != nil {
			return CartResponse{}, storageError()
		}

		sub := p.Price * it.Quantity
		resp.Items = append(resp.Items, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Quantity:  it.Quantity,
			Subtotal:  sub,
		})
		resp.Total += sub
	}
	return resp, nil
}
