package usecase

import (
	"errors"
	"fmt"
)

// 機械可読なエラー種別。HTTPステータスへの変換はhandler側。
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInvalidInput      ErrorKind = "INVALID_INPUT"
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
	KindRateLimited       ErrorKind = "RATE_LIMITED"
	KindCodeMismatch      ErrorKind = "CODE_MISMATCH"
	KindCodeExpired       ErrorKind = "CODE_EXPIRED"
	KindInvalidState      ErrorKind = "INVALID_STATE"
	KindConflict          ErrorKind = "CONFLICT"
	KindUnauthorized      ErrorKind = "UNAUTHORIZED"
	KindStorage           ErrorKind = "STORAGE_ERROR"
)

type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewAppError(kind ErrorKind, message string) error {
	return &AppError{Kind: kind, Message: message}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

// ストレージ由来の失敗は種別だけ伝える（リトライは呼び出し側の責務）。
func storageError() error {
	return NewAppError(KindStorage, "db error")
}
