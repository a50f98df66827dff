package handler

import (
	"net/http"
	"strconv"

	"bookstore/internal/config"
	"bookstore/internal/middleware"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 証憑レビューの管理API
type AdminPaymentHandler struct {
	uc *usecase.AdminPaymentUsecase
}

func NewAdminPaymentHandler(uc *usecase.AdminPaymentUsecase) *AdminPaymentHandler {
	return &AdminPaymentHandler{uc: uc}
}

func (h *AdminPaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin/screenshots")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.GET("", h.list)
	g.POST("/:id/decide", h.decide)
}

func (h *AdminPaymentHandler) list(c echo.Context) error {
	var verified *bool
	if v := c.QueryParam("verified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid verified"})
		}
		verified = &b
	}

	out, err := h.uc.ListScreenshots(c.Request().Context(), verified)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminPaymentHandler) decide(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req usecase.DecideInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.Decide(c.Request().Context(), adminID, id, req); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "decided"})
}
