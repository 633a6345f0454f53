package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	authUC *usecase.AuthUsecase
	verUC  *usecase.VerificationUsecase
	cfg    config.Config
}

func NewAuthHandler(authUC *usecase.AuthUsecase, verUC *usecase.VerificationUsecase, cfg config.Config) *AuthHandler {
	return &AuthHandler{authUC: authUC, verUC: verUC, cfg: cfg}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/auth")
	g.POST("/send-verification-code", h.sendCode)
	g.POST("/register", h.register)
	g.POST("/login", h.loginWithCode)
	g.POST("/password-login", h.loginWithPassword)
}

type SendCodeRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type SendCodeResponse struct {
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"`
}

func (h *AuthHandler) sendCode(c echo.Context) error {
	var req SendCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if !usecase.ValidPhoneNumber(req.PhoneNumber) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid phone number"})
	}

	out, err := h.verUC.SendCode(c.Request().Context(), req.PhoneNumber)
	if err != nil {
		return writeError(c, err)
	}

	// SMSゲートウェイは未接続。開発中はログに出す
	if h.cfg.IsDev() {
		c.Logger().Infof("verification code for %s: %s", req.PhoneNumber, out.Code)
	}

	return c.JSON(http.StatusOK, SendCodeResponse{
		Message:   "verification code sent",
		ExpiresIn: out.ExpiresIn,
	})
}

type RegisterRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
	Password    string `json:"password"`
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.authUC.Register(c.Request().Context(), usecase.RegisterInput{
		PhoneNumber: req.PhoneNumber,
		Code:        req.Code,
		Password:    req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

type CodeLoginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
}

func (h *AuthHandler) loginWithCode(c echo.Context) error {
	var req CodeLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.authUC.LoginWithCode(c.Request().Context(), req.PhoneNumber, req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type PasswordLoginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

func (h *AuthHandler) loginWithPassword(c echo.Context) error {
	var req PasswordLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.authUC.LoginWithPassword(c.Request().Context(), req.PhoneNumber, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
