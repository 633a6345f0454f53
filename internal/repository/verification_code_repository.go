package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type VerificationCodeRepository interface {
	Create(ctx context.Context, vc model.VerificationCode) (model.VerificationCode, error)
	// 再送間隔チェック用（使用済みも含む最新1件）
	FindLatestByPhone(ctx context.Context, phoneNumber string) (model.VerificationCode, error)
	// 未使用の一致コード（最新1件）
	FindUnusedByPhoneAndCode(ctx context.Context, phoneNumber string, code string) (model.VerificationCode, error)
	MarkUsed(ctx context.Context, id int64) error
	// 再送時に同一番号の古いコードを無効化
	DeleteByPhone(ctx context.Context, phoneNumber string) error
	// 失効済みの掃除
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
