package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByPhone(ctx context.Context, phoneNumber string) (model.User, error)
	Create(ctx context.Context, user model.User) (model.User, error)
	// 表示用項目だけを更新する。電話番号とハッシュは触らない。
	UpdateProfile(ctx context.Context, userID int64, nickname string, avatar string) error
}
