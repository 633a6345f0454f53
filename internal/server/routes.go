package server

import (
	"storefront/internal/config"

	"github.com/labstack/echo/v4"
)

// ルーティングの一覧。ガードは各ハンドラのRegisterRoutes側でかける。
func registerRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Auth.RegisterRoutes(e)
	h.User.RegisterRoutes(e, cfg)
	h.Product.RegisterRoutes(e, cfg)
	h.Cart.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg)
}
