package handler

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/booking"
	"github.com/iliyamo/artist-site/internal/catalog"
	"github.com/iliyamo/artist-site/internal/config"
	"github.com/iliyamo/artist-site/internal/middleware"
	"github.com/iliyamo/artist-site/internal/subscription"
	"github.com/iliyamo/artist-site/internal/utils"
)

// AdminRole is the role claim carried by admin access tokens.
const AdminRole = "admin"

// AdminHandler bundles the services behind the admin API.
type AdminHandler struct {
	Cfg           config.Config
	Bookings      *booking.Service
	Catalog       *catalog.Service
	Subscriptions *subscription.Service
	Log           *zap.Logger
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type statusReq struct {
	Status      string `json:"status"`
	DepositPaid bool   `json:"depositPaid"`
}

type restockReq struct {
	Stock *int `json:"stock"`
}

// Login checks the configured admin credentials and issues an access token.
func (h *AdminHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.Cfg.AdminUser)) == 1
	if h.Cfg.AdminPasswordHash == "" || !utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password) || !userOK {
		h.Log.Warn("admin login rejected", zap.String("ip", c.RealIP()))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.Username, AdminRole, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{Token: tok.Token, Expires: tok.Exp})
}

func (h *AdminHandler) ListBookings(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Bookings.List(ctx, c.QueryParam("status"), limit)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *AdminHandler) UpdateBookingStatus(c echo.Context) error {
	id, err := booking.ParseID(c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.UpdateStatus(ctx, id, strings.ToLower(strings.TrimSpace(req.Status)), req.DepositPaid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	h.Log.Info("admin updated booking", zap.String("admin", middleware.Subject(c)), zap.Uint64("booking_id", id))
	return c.JSON(http.StatusOK, b)
}

// Restock overwrites a product's stock count.
func (h *AdminHandler) Restock(c echo.Context) error {
	var req restockReq
	if err := c.Bind(&req); err != nil || req.Stock == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stock required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Catalog.SetStock(ctx, id, *req.Stock); err != nil {
		return respondError(c, h.Log, err)
	}
	h.Log.Info("admin restocked product", zap.String("admin", middleware.Subject(c)), zap.String("product_id", id), zap.Int("stock", *req.Stock))
	return c.JSON(http.StatusOK, echo.Map{"productId": id, "stock": *req.Stock})
}

func (h *AdminHandler) ListSubscribers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Subscriptions.List(ctx, c.QueryParam("verified") == "true")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
