package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// エラー種別からHTTPステータスへの変換
var kindStatus = map[usecase.ErrorKind]int{
	usecase.KindNotFound:          http.StatusNotFound,
	usecase.KindInvalidInput:      http.StatusBadRequest,
	usecase.KindInsufficientStock: http.StatusBadRequest,
	usecase.KindRateLimited:       http.StatusTooManyRequests,
	usecase.KindCodeMismatch:      http.StatusBadRequest,
	usecase.KindCodeExpired:       http.StatusBadRequest,
	usecase.KindInvalidState:      http.StatusBadRequest,
	usecase.KindConflict:          http.StatusConflict,
	usecase.KindUnauthorized:      http.StatusUnauthorized,
	usecase.KindStorage:           http.StatusInternalServerError,
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := usecase.AsAppError(err); ok {
		status, found := kindStatus[ae.Kind]
		if !found {
			status = http.StatusInternalServerError
		}
		return c.JSON(status, ErrorResponse{Error: ae.Message, Kind: string(ae.Kind)})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	userID, ok := v.(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}
