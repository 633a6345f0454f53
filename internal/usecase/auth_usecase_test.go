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

type AuthUserRepoMock struct{ mock.Mock }

func (m *AuthUserRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *AuthUserRepoMock) FindByPhone(ctx context.Context, phoneNumber string) (model.User, error) {
	args := m.Called(ctx, phoneNumber)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *AuthUserRepoMock) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *AuthUserRepoMock) UpdateProfile(ctx context.Context, userID int64, nickname string, avatar string) error {
	args := m.Called(ctx, userID, nickname, avatar)
	return args.Error(0)
}

type stubTokenIssuer struct{}

func (stubTokenIssuer) Issue(userID int64, phoneNumber string, now time.Time) (string, time.Time, error) {
	return "test-token", now.Add(24 * time.Hour), nil
}

var authNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newAuthFixture() (*AuthUserRepoMock, *VerCodeRepoMock, *usecase.AuthUsecase) {
	userRepo := new(AuthUserRepoMock)
	codeRepo := new(VerCodeRepoMock)
	verification := usecase.NewVerificationUsecase(codeRepo, stubCodeGen{code: "123456"}, fixedClock{t: authNow})
	uc := usecase.NewAuthUsecase(
		userRepo,
		verification,
		usecase.NewBcryptPasswordHasher(4),
		usecase.NewBcryptPasswordVerifier(),
		stubTokenIssuer{},
		fixedClock{t: authNow},
	)
	return userRepo, codeRepo, uc
}

func expectVerifyOK(codeRepo *VerCodeRepoMock, ctx context.Context, phone string) {
	codeRepo.On("FindUnusedByPhoneAndCode", ctx, phone, "123456").Return(model.VerificationCode{
		ID:        1,
		ExpiresAt: authNow.Add(30 * time.Second),
	}, nil)
	codeRepo.On("MarkUsed", ctx, int64(1)).Return(nil)
}

func TestValidPhoneNumber(t *testing.T) {
	assert.True(t, usecase.ValidPhoneNumber("13812345678"))
	assert.True(t, usecase.ValidPhoneNumber("19912345678"))
	assert.False(t, usecase.ValidPhoneNumber("12812345678")) // 2桁目が範囲外
	assert.False(t, usecase.ValidPhoneNumber("1381234567"))  // 10桁
	assert.False(t, usecase.ValidPhoneNumber("138123456789")) // 12桁
	assert.False(t, usecase.ValidPhoneNumber("abcdefghijk"))
	assert.False(t, usecase.ValidPhoneNumber(""))
}

func TestAuthUsecase_Register_Success(t *testing.T) {
	userRepo, codeRepo, uc := newAuthFixture()
	ctx := context.Background()

	expectVerifyOK(codeRepo, ctx, "13812345678")
	userRepo.On("FindByPhone", ctx, "13812345678").Return(model.User{}, repo.ErrNotFound)
	userRepo.On("Create", ctx, mock.MatchedBy(func(u model.User) bool {
		return u.PhoneNumber == "13812345678" &&
			u.Nickname == "用户5678" &&
			u.PasswordHash != "" &&
			u.PasswordHash != "secret123"
	})).Return(model.User{ID: 1, PhoneNumber: "13812345678", Nickname: "用户5678", PasswordHash: "hashed"}, nil)

	out, err := uc.Register(ctx, usecase.RegisterInput{
		PhoneNumber: "13812345678",
		Code:        "123456",
		Password:    "secret123",
	})

	assert.NoError(t, err)
	assert.Equal(t, "test-token", out.Token)
	assert.Equal(t, "用户5678", out.User.Nickname)
	// ハッシュは応答に含めない
	assert.Empty(t, out.User.PasswordHash)
}

func TestAuthUsecase_Register_InvalidPhone(t *testing.T) {
	_, _, uc := newAuthFixture()

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		PhoneNumber: "12345",
		Code:        "123456",
		Password:    "secret123",
	})
	assertKind(t, err, usecase.KindInvalidInput)
}

func TestAuthUsecase_Register_PasswordTooShort(t *testing.T) {
	_, codeRepo, uc := newAuthFixture()

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		PhoneNumber: "13812345678",
		Code:        "123456",
		Password:    "short",
	})

	assertKind(t, err, usecase.KindInvalidInput)
	// バリデーションで弾かれたらコードは消費しない
	codeRepo.AssertNotCalled(t, "FindUnusedByPhoneAndCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthUsecase_Register_CodeMismatch(t *testing.T) {
	userRepo, codeRepo, uc := newAuthFixture()
	ctx := context.Background()

	codeRepo.On("FindUnusedByPhoneAndCode", ctx, "13812345678", "123456").
		Return(model.VerificationCode{}, repo.ErrNotFound)

	_, err := uc.Register(ctx, usecase.RegisterInput{
		PhoneNumber: "13812345678",
		Code:        "123456",
		Password:    "secret123",
	})

	assertKind(t, err, usecase.KindCodeMismatch)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Register_DuplicatePhone(t *testing.T) {
	userRepo, codeRepo, uc := newAuthFixture()
	ctx := context.Background()

	expectVerifyOK(codeRepo, ctx, "13812345678")
	userRepo.On("FindByPhone", ctx, "13812345678").
		Return(model.User{ID: 1, PhoneNumber: "13812345678"}, nil)

	_, err := uc.Register(ctx, usecase.RegisterInput{
		PhoneNumber: "13812345678",
		Code:        "123456",
		Password:    "secret123",
	})

	assertKind(t, err, usecase.KindConflict)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthUsecase_LoginWithCode_Success(t *testing.T) {
	userRepo, codeRepo, uc := newAuthFixture()
	ctx := context.Background()

	expectVerifyOK(codeRepo, ctx, "13812345678")
	userRepo.On("FindByPhone", ctx, "13812345678").
		Return(model.User{ID: 1, PhoneNumber: "13812345678", PasswordHash: "hashed"}, nil)

	out, err := uc.LoginWithCode(ctx, "13812345678", "123456")

	assert.NoError(t, err)
	assert.Equal(t, "test-token", out.Token)
	assert.Empty(t, out.User.PasswordHash)
}

func TestAuthUsecase_LoginWithCode_Unregistered(t *testing.T) {
	userRepo, codeRepo, uc := newAuthFixture()
	ctx := context.Background()

	expectVerifyOK(codeRepo, ctx, "13812345678")
	userRepo.On("FindByPhone", ctx, "13812345678").Return(model.User{}, repo.ErrNotFound)

	_, err := uc.LoginWithCode(ctx, "13812345678", "123456")
	assertKind(t, err, usecase.KindNotFound)
}

func TestAuthUsecase_LoginWithPassword_Success(t *testing.T) {
	userRepo, _, uc := newAuthFixture()
	ctx := context.Background()

	hashed, err := usecase.NewBcryptPasswordHasher(4).Hash("secret123")
	assert.NoError(t, err)

	userRepo.On("FindByPhone", ctx, "13812345678").
		Return(model.User{ID: 1, PhoneNumber: "13812345678", PasswordHash: hashed}, nil)

	out, err := uc.LoginWithPassword(ctx, "13812345678", "secret123")

	assert.NoError(t, err)
	assert.Equal(t, "test-token", out.Token)
}

func TestAuthUsecase_LoginWithPassword_WrongPassword(t *testing.T) {
	userRepo, _, uc := newAuthFixture()
	ctx := context.Background()

	hashed, err := usecase.NewBcryptPasswordHasher(4).Hash("secret123")
	assert.NoError(t, err)

	userRepo.On("FindByPhone", ctx, "13812345678").
		Return(model.User{ID: 1, PhoneNumber: "13812345678", PasswordHash: hashed}, nil)

	_, err = uc.LoginWithPassword(ctx, "13812345678", "wrong-password")
	assertKind(t, err, usecase.KindUnauthorized)
}

func TestAuthUsecase_LoginWithPassword_UnknownPhone(t *testing.T) {
	userRepo, _, uc := newAuthFixture()
	ctx := context.Background()

	userRepo.On("FindByPhone", ctx, "13812345678").Return(model.User{}, repo.ErrNotFound)

	// 番号の存在は教えない
	_, err := uc.LoginWithPassword(ctx, "13812345678", "secret123")
	assertKind(t, err, usecase.KindUnauthorized)
}
