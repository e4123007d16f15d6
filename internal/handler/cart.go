package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/catalog"
	"github.com/iliyamo/artist-site/internal/checkout"
	"github.com/iliyamo/artist-site/internal/session"
)

// SessionStore is the server-side cart storage.
type SessionStore interface {
	Create(ctx context.Context) (*session.Session, error)
	Load(ctx context.Context, id string) (*session.Session, error)
	Update(ctx context.Context, id string, fn func(*session.Session) error) (*session.Session, error)
}

type CartHandler struct {
	Sessions SessionStore
	Catalog  *catalog.Service
	Log      *zap.Logger
}

// cartEditable refuses changes to a cart whose total is being paid.
func cartEditable(s *session.Session) error {
	if s.Checkout.AwaitingPayment() {
		return apperr.Conflictf("Finish or cancel payment first")
	}
	return nil
}

func cartView(s *session.Session) echo.Map {
	return echo.Map{
		"sessionId": s.ID,
		"items":     s.Cart.Items(),
		"total":     s.Cart.Total(),
		"itemCount": s.Cart.Units(),
		"stage":     s.Checkout.Stage,
	}
}

// Create opens a new empty cart session.
func (h *CartHandler) Create(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Sessions.Create(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, cartView(s))
}

func (h *CartHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Sessions.Load(ctx, c.Param("session"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cartView(s))
}

type addItemReq struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
	Size      string `json:"size"`
}

// AddItem reserves stock and adds the product to the cart. A finished
// checkout starts over so the next purchase begins at cart review.
func (h *CartHandler) AddItem(c echo.Context) error {
	var req addItemReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Sessions.Update(ctx, c.Param("session"), func(s *session.Session) error {
		if err := cartEditable(s); err != nil {
			return err
		}
		if s.Checkout.Stage == checkout.StageConfirmation {
			s.Checkout.Restart()
		}
		_, err := h.Catalog.AddToCart(ctx, s.Cart, req.ProductID, req.Quantity, req.Size)
		return err
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cartView(s))
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets a line's quantity. Zero or less removes the line.
func (h *CartHandler) UpdateItem(c echo.Context) error {
	var req quantityReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	item := c.Param("item")
	s, err := h.Sessions.Update(ctx, c.Param("session"), func(s *session.Session) error {
		if err := cartEditable(s); err != nil {
			return err
		}
		if req.Quantity < 1 {
			return h.Catalog.ReleaseFromCart(ctx, s.Cart, item, 0)
		}
		return h.Catalog.SetLineQuantity(ctx, s.Cart, item, req.Quantity)
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cartView(s))
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	item := c.Param("item")
	s, err := h.Sessions.Update(ctx, c.Param("session"), func(s *session.Session) error {
		if err := cartEditable(s); err != nil {
			return err
		}
		return h.Catalog.ReleaseFromCart(ctx, s.Cart, item, 0)
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cartView(s))
}

// Clear empties the cart and returns every line to stock.
func (h *CartHandler) Clear(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Sessions.Update(ctx, c.Param("session"), func(s *session.Session) error {
		if err := cartEditable(s); err != nil {
			return err
		}
		for _, it := range s.Cart.Items() {
			if err := h.Catalog.ReleaseFromCart(ctx, s.Cart, it.ID, 0); err != nil {
				return err
			}
		}
		s.Checkout.Restart()
		return nil
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cartView(s))
}
