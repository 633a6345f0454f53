package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// ログイン中ユーザーのプロフィール照会・更新。
type UserUsecase struct {
	userRepo repo.UserRepository
}

func NewUserUsecase(userRepo repo.UserRepository) *UserUsecase {
	return &UserUsecase{userRepo: userRepo}
}

type UpdateProfileInput struct {
	// nilは「変更しない」
	Nickname *string
	Avatar   *string
}

func (u *UserUsecase) GetProfile(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, NewAppError(KindUnauthorized, "unauthorized")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return model.User{}, NewAppError(KindNotFound, "user not found")
	}
	if err != nil {
		return model.User{}, storageError()
	}

	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile はnicknameとavatarだけを更新する。
func (u *UserUsecase) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (model.User, error) {
	if userID <= 0 {
		return model.User{}, NewAppError(KindUnauthorized, "unauthorized")
	}

	if in.Nickname != nil {
		nickname := strings.TrimSpace(*in.Nickname)
		if nickname == "" || utf8.RuneCountInString(nickname) > 50 {
			return model.User{}, NewAppError(KindInvalidInput, "nickname must be 1-50 characters")
		}
		in.Nickname = &nickname
	}
	if in.Avatar != nil && len(*in.Avatar) > 500 {
		return model.User{}, NewAppError(KindInvalidInput, "avatar url too long")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return model.User{}, NewAppError(KindNotFound, "user not found")
	}
	if err != nil {
		return model.User{}, storageError()
	}

	if in.Nickname != nil {
		user.Nickname = *in.Nickname
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}

	if err := u.userRepo.UpdateProfile(ctx, userID, user.Nickname, user.Avatar); err != nil {
		if err == repo.ErrNotFound {
			return model.User{}, NewAppError(KindNotFound, "user not found")
		}
		return model.User{}, storageError()
	}

	user.PasswordHash = ""
	return user, nil
}
