package usecase

import (
	"context"
	"regexp"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// 中国の携帯番号形式
var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

func ValidPhoneNumber(phone string) bool {
	return phonePattern.MatchString(phone)
}

// 平文パスワードからハッシュへ
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// アクセストークンを発行する約束
type TokenIssuer interface {
	Issue(userID int64, phoneNumber string, now time.Time) (token string, expiresAt time.Time, err error)
}

type BcryptPasswordHasher struct {
	cost int
}

func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost: cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

type BcryptPasswordVerifier struct{}

func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// AuthUsecase は電話番号での登録とログイン。
// コード検証はVerificationUsecaseに委譲する（消費も含む）。
type AuthUsecase struct {
	userRepo     repo.UserRepository
	verification *VerificationUsecase
	hasher       PasswordHasher
	verifier     PasswordVerifier
	issuer       TokenIssuer
	clock        Clock
}

func NewAuthUsecase(
	userRepo repo.UserRepository,
	verification *VerificationUsecase,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	issuer TokenIssuer,
	clock Clock,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo:     userRepo,
		verification: verification,
		hasher:       hasher,
		verifier:     verifier,
		issuer:       issuer,
		clock:        clock,
	}
}

type RegisterInput struct {
	PhoneNumber string
	Code        string
	Password    string
}

type AuthOutput struct {
	User      model.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Register は新規登録。コードを消費し、登録済み番号はConflict。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (AuthOutput, error) {
	if !ValidPhoneNumber(in.PhoneNumber) {
		return AuthOutput{}, NewAppError(KindInvalidInput, "invalid phone number")
	}
	if len(in.Password) < 6 {
		return AuthOutput{}, NewAppError(KindInvalidInput, "password too short")
	}

	if err := u.verification.VerifyCode(ctx, in.PhoneNumber, in.Code); err != nil {
		return AuthOutput{}, err
	}

	_, err := u.userRepo.FindByPhone(ctx, in.PhoneNumber)
	if err == nil {
		return AuthOutput{}, NewAppError(KindConflict, "phone number already registered")
	}
	if err != repo.ErrNotFound {
		return AuthOutput{}, storageError()
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return AuthOutput{}, storageError()
	}

	now := u.clock.Now()
	user, err := u.userRepo.Create(ctx, model.User{
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hashed,
		Nickname:     defaultNickname(in.PhoneNumber),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return AuthOutput{}, storageError()
	}

	return u.issueFor(user)
}

// LoginWithCode はコードログイン。未登録番号はNotFound（先に登録を促す）。
func (u *AuthUsecase) LoginWithCode(ctx context.Context, phoneNumber string, code string) (AuthOutput, error) {
	if !ValidPhoneNumber(phoneNumber) {
		return AuthOutput{}, NewAppError(KindInvalidInput, "invalid phone number")
	}

	if err := u.verification.VerifyCode(ctx, phoneNumber, code); err != nil {
		return AuthOutput{}, err
	}

	user, err := u.userRepo.FindByPhone(ctx, phoneNumber)
	if err == repo.ErrNotFound {
		return AuthOutput{}, NewAppError(KindNotFound, "phone number not registered")
	}
	if err != nil {
		return AuthOutput{}, storageError()
	}

	return u.issueFor(user)
}

// LoginWithPassword はパスワードログイン。
// 番号とパスワードのどちらが違うかは教えない。
func (u *AuthUsecase) LoginWithPassword(ctx context.Context, phoneNumber string, password string) (AuthOutput, error) {
	if phoneNumber == "" || password == "" {
		return AuthOutput{}, NewAppError(KindInvalidInput, "phone number and password required")
	}

	user, err := u.userRepo.FindByPhone(ctx, phoneNumber)
	if err == repo.ErrNotFound {
		return AuthOutput{}, NewAppError(KindUnauthorized, "invalid credentials")
	}
	if err != nil {
		return AuthOutput{}, storageError()
	}

	if !u.verifier.Verify(password, user.PasswordHash) {
		return AuthOutput{}, NewAppError(KindUnauthorized, "invalid credentials")
	}

	return u.issueFor(user)
}

func (u *AuthUsecase) issueFor(user model.User) (AuthOutput, error) {
	token, expiresAt, err := u.issuer.Issue(user.ID, user.PhoneNumber, u.clock.Now())
	if err != nil {
		return AuthOutput{}, storageError()
	}

	// ハッシュは返さない
	user.PasswordHash = ""

	return AuthOutput{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// 下4桁からニックネームを作る（登録直後の初期値）
func defaultNickname(phone string) string {
	if len(phone) < 4 {
		return "用户" + phone
	}
	return "用户" + phone[len(phone)-4:]
}
