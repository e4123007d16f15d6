package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/catalog"
)

type ProductHandler struct {
	Catalog *catalog.Service
	Log     *zap.Logger
}

// List returns the catalog as a JSON array. The route sits behind the
// response cache.
func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	ps, err := h.Catalog.FetchProducts(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, ps)
}

type stockReq struct {
	Quantity int `json:"quantity"`
}

// DecrementStock takes {"quantity": n} units out of stock atomically.
func (h *ProductHandler) DecrementStock(c echo.Context) error {
	var req stockReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("id")
	left, err := h.Catalog.DecrementStock(ctx, id, req.Quantity)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":   "Stock updated successfully",
		"productId": id,
		"newStock":  left,
	})
}
