package server

import (
	"bookstore/internal/config"
	"bookstore/internal/handler"

	"github.com/labstack/echo/v4"
)

// ルート登録に必要なhandler一式
type Handlers struct {
	Auth         *handler.AuthHandler
	Book         *handler.BookHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Payment      *handler.PaymentHandler
	Access       *handler.AccessHandler
	Notification *handler.NotificationHandler
	AdminBook    *handler.AdminBookHandler
	AdminPayment *handler.AdminPaymentHandler
	Admin        *handler.AdminHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Auth.RegisterRoutes(e, cfg)
	h.Book.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg)
	h.Payment.RegisterRoutes(e, cfg)
	h.Access.RegisterRoutes(e, cfg)
	h.Notification.RegisterRoutes(e, cfg)
	h.AdminBook.RegisterRoutes(e, cfg)
	h.AdminPayment.RegisterRoutes(e, cfg)
	h.Admin.RegisterRoutes(e, cfg)
}
