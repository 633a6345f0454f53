package usecase

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const (
	// コードの有効期間
	codeTTL = 60 * time.Second
	// 同一番号への再送間隔
	resendWindow = 60 * time.Second
)

// 現在時刻の約束（テストで差し替える）
type Clock interface {
	Now() time.Time
}

// 6桁コードを作る約束
type CodeGenerator interface {
	NewCode() (string, error)
}

// crypto/randで[100000,999999]の一様乱数を作る。
type RandomCodeGenerator struct{}

func NewRandomCodeGenerator() *RandomCodeGenerator {
	return &RandomCodeGenerator{}
}

func (g *RandomCodeGenerator) NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// VerificationUsecase は電話番号ごとのワンタイムコードを発行・検証する。
// 送信（SMS等）は外の層の責務で、ここは生成と保存まで。
type VerificationUsecase struct {
	codeRepo repo.VerificationCodeRepository
	codeGen  CodeGenerator
	clock    Clock
}

func NewVerificationUsecase(
	codeRepo repo.VerificationCodeRepository,
	codeGen CodeGenerator,
	clock Clock,
) *VerificationUsecase {
	return &VerificationUsecase{
		codeRepo: codeRepo,
		codeGen:  codeGen,
		clock:    clock,
	}
}

type SendCodeOutput struct {
	Code      string
	ExpiresIn int
}

// SendCode はコードを発行する。60秒以内の再送はRateLimited。
// 発行時に同一番号の既存コードは削除される（有効なのは常に最新1件）。
// 2つの送信が同時に窓をすり抜ける狭い競合は許容している。
func (u *VerificationUsecase) SendCode(ctx context.Context, phoneNumber string) (SendCodeOutput, error) {
	if phoneNumber == "" {
		return SendCodeOutput{}, NewAppError(KindInvalidInput, "phone number required")
	}

	// 比較はすべてUTCの壁時計で揃える
	now := u.clock.Now().UTC()

	latest, err := u.codeRepo.FindLatestByPhone(ctx, phoneNumber)
	if err != nil && err != repo.ErrNotFound {
		return SendCodeOutput{}, storageError()
	}
	if err == nil && now.Sub(latest.CreatedAt) < resendWindow {
		return SendCodeOutput{}, NewAppError(KindRateLimited, "please wait before requesting another code")
	}

	// 失効分の掃除と、この番号の古いコードの無効化
	if _, err := u.codeRepo.DeleteExpired(ctx, now); err != nil {
		return SendCodeOutput{}, storageError()
	}
	if err := u.codeRepo.DeleteByPhone(ctx, phoneNumber); err != nil {
		return SendCodeOutput{}, storageError()
	}

	code, err := u.codeGen.NewCode()
	if err != nil {
		return SendCodeOutput{}, NewAppError(KindStorage, "code generation failed")
	}

	vc := model.VerificationCode{
		PhoneNumber: phoneNumber,
		Code:        code,
		Used:        false,
		CreatedAt:   now,
		ExpiresAt:   now.Add(codeTTL),
	}
	if _, err := u.codeRepo.Create(ctx, vc); err != nil {
		return SendCodeOutput{}, storageError()
	}

	return SendCodeOutput{
		Code:      code,
		ExpiresIn: int(codeTTL / time.Second),
	}, nil
}

// VerifyCode はコードを検証し、一致したら使用済みにする（1回きり）。
// 期限はexpiresAtちょうどで失効扱い。
func (u *VerificationUsecase) VerifyCode(ctx context.Context, phoneNumber string, code string) error {
	if phoneNumber == "" || code == "" {
		return NewAppError(KindInvalidInput, "phone number and code required")
	}

	vc, err := u.codeRepo.FindUnusedByPhoneAndCode(ctx, phoneNumber, code)
	if err == repo.ErrNotFound {
		return NewAppError(KindCodeMismatch, "verification code mismatch")
	}
	if err != nil {
		return storageError()
	}

	now := u.clock.Now().UTC()
	if !now.Before(vc.ExpiresAt) {
		return NewAppError(KindCodeExpired, "verification code expired")
	}

	if err := u.codeRepo.MarkUsed(ctx, vc.ID); err != nil {
		return storageError()
	}
	return nil
}
