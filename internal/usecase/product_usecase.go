package usecase

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 商品カタログの読み取り。
type ProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
}

func NewProductUsecase(productRepo repo.ProductRepository, inventoryRepo repo.InventoryRepository) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo, inventoryRepo: inventoryRepo}
}

type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	Sort     string
}

type ProductListOutput struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.Limit <= 0 {
		in.Limit = 20
	}
	if in.Limit > 100 {
		return ProductListOutput{}, NewAppError(KindInvalidInput, "invalid limit")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        in.Q,
		Category: in.Category,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, storageError()
	}

	return ProductListOutput{
		Products: items,
		Total:    total,
		Page:     in.Page,
		Limit:    in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewAppError(KindInvalidInput, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, NewAppError(KindNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, storageError()
	}
	return p, nil
}

type ProductInput struct {
	Name        string
	Description string
	Price       int64
	Stock       int64
	Category    string
	ImageURL    string
}

func validateProductInput(in ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return NewAppError(KindInvalidInput, "invalid name")
	}
	if in.Price < 0 {
		return NewAppError(KindInvalidInput, "invalid price")
	}
	if in.Stock < 0 {
		return NewAppError(KindInvalidInput, "invalid stock")
	}
	return nil
}

// CreateProduct は商品登録。初期在庫はここでだけ設定できる。
func (u *ProductUsecase) CreateProduct(ctx context.Context, in ProductInput) (model.Product, error) {
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
	})
	if err != nil {
		return model.Product{}, storageError()
	}
	return p, nil
}

// UpdateProduct はカタログ項目の更新。在庫は台帳経由でしか動かないので触らない。
func (u *ProductUsecase) UpdateProduct(ctx context.Context, id int64, in ProductInput) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewAppError(KindInvalidInput, "invalid id")
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
	})
	if err == repo.ErrNotFound {
		return model.Product{}, NewAppError(KindNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, storageError()
	}

	return u.GetProduct(ctx, id)
}

// DeleteProduct は論理削除。既存注文の明細はスナップショットなので影響しない。
func (u *ProductUsecase) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewAppError(KindInvalidInput, "invalid id")
	}

	err := u.productRepo.SoftDelete(ctx, id)
	if err == repo.ErrNotFound {
		return NewAppError(KindNotFound, "product not found")
	}
	if err != nil {
		return storageError()
	}
	return nil
}

// GetAvailableStock は台帳経由の在庫照会。
func (u *ProductUsecase) GetAvailableStock(ctx context.Context, productID int64) (int64, error) {
	if productID <= 0 {
		return 0, NewAppError(KindInvalidInput, "invalid id")
	}

	stock, err := u.inventoryRepo.GetStock(ctx, productID)
	if err == repo.ErrNotFound {
		return 0, NewAppError(KindNotFound, "product not found")
	}
	if err != nil {
		return 0, storageError()
	}
	return stock, nil
}
