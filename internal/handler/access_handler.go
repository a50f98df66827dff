package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"bookstore/internal/config"
	"bookstore/internal/middleware"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 購入済み書籍の可否確認・ダウンロード
type AccessHandler struct {
	uc *usecase.AccessUsecase
}

func NewAccessHandler(uc *usecase.AccessUsecase) *AccessHandler {
	return &AccessHandler{uc: uc}
}

func (h *AccessHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("", middleware.AuthJWT(cfg))

	g.GET("/books/:id/access", h.check)
	g.GET("/books/:id/download", h.download)
	g.GET("/me/books", h.listMyBooks)
}

func (h *AccessHandler) check(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.CheckAccess(c.Request().Context(), userID, bookID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AccessHandler) download(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Download(c.Request().Context(), userID, bookID)
	if err != nil {
		return writeError(c, err)
	}
	defer out.Content.Close()

	//日本語タイトルでも壊れないようRFC 5987で付ける
	c.Response().Header().Set(echo.HeaderContentDisposition,
		"attachment; filename*=UTF-8''"+url.PathEscape(out.Filename))
	return c.Stream(http.StatusOK, "application/pdf", out.Content)
}

func (h *AccessHandler) listMyBooks(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListMyBooks(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
