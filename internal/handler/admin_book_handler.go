package handler

import (
	"io"
	"net/http"
	"strconv"

	"bookstore/internal/config"
	"bookstore/internal/middleware"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 書籍の管理API（作成はPDF込みのmultipart）
type AdminBookHandler struct {
	uc *usecase.BookUsecase
}

func NewAdminBookHandler(uc *usecase.BookUsecase) *AdminBookHandler {
	return &AdminBookHandler{uc: uc}
}

func (h *AdminBookHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin/books")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

func (h *AdminBookHandler) create(c echo.Context) error {
	title := c.FormValue("title")
	author := c.FormValue("author")
	description := c.FormValue("description")

	price, err := strconv.ParseInt(c.FormValue("price"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid price"})
	}
	isActive := c.FormValue("is_active") == "true"

	pdfData, _, err := readFormFile(c, "pdf")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pdf is required"})
	}

	//カバーは任意
	coverData, coverType, _ := readFormFile(c, "cover")

	out, err := h.uc.AdminCreateBook(c.Request().Context(), usecase.AdminCreateBookInput{
		Title:       title,
		Author:      author,
		Description: description,
		Price:       price,
		IsActive:    isActive,
		PDFData:     pdfData,
		CoverData:   coverData,
		CoverType:   coverType,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

type adminUpdateBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	IsActive    bool   `json:"is_active"`
}

func (h *AdminBookHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req adminUpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.AdminUpdateBook(c.Request().Context(), id, usecase.AdminUpdateBookInput{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    req.IsActive,
	}); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "updated"})
}

func (h *AdminBookHandler) remove(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.AdminDeleteBook(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "deleted"})
}

func readFormFile(c echo.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Header.Get("Content-Type"), nil
}

// context から user_id を取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}
	return id, id > 0
}
