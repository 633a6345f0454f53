package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type VerificationCodeGormRepository struct {
	db *gorm.DB
}

func NewVerificationCodeGormRepository(db *gorm.DB) *VerificationCodeGormRepository {
	return &VerificationCodeGormRepository{db: db}
}

func (r *VerificationCodeGormRepository) Create(ctx context.Context, vc model.VerificationCode) (model.VerificationCode, error) {
	if err := r.db.WithContext(ctx).Create(&vc).Error; err != nil {
		return model.VerificationCode{}, err
	}
	return vc, nil
}

func (r *VerificationCodeGormRepository) FindLatestByPhone(ctx context.Context, phoneNumber string) (model.VerificationCode, error) {
	var vc model.VerificationCode
	err := r.db.WithContext(ctx).
		Where("phone_number = ?", phoneNumber).
		Order("created_at desc").
		First(&vc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.VerificationCode{}, repo.ErrNotFound
	}
	if err != nil {
		return model.VerificationCode{}, err
	}
	return vc, nil
}

func (r *VerificationCodeGormRepository) FindUnusedByPhoneAndCode(ctx context.Context, phoneNumber string, code string) (model.VerificationCode, error) {
	var vc model.VerificationCode
	err := r.db.WithContext(ctx).
		Where("phone_number = ? AND code = ? AND used = ?", phoneNumber, code, false).
		Order("created_at desc").
		First(&vc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.VerificationCode{}, repo.ErrNotFound
	}
	if err != nil {
		return model.VerificationCode{}, err
	}
	return vc, nil
}

func (r *VerificationCodeGormRepository) MarkUsed(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&model.VerificationCode{}).
		Where("id = ?", id).
		Update("used", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *VerificationCodeGormRepository) DeleteByPhone(ctx context.Context, phoneNumber string) error {
	return r.db.WithContext(ctx).
		Where("phone_number = ?", phoneNumber).
		Delete(&model.VerificationCode{}).Error
}

func (r *VerificationCodeGormRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&model.VerificationCode{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
