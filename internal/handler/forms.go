package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/booking"
	"github.com/iliyamo/artist-site/internal/contact"
	"github.com/iliyamo/artist-site/internal/subscription"
)

type BookingHandler struct {
	Bookings *booking.Service
	Log      *zap.Logger
}

func (h *BookingHandler) Submit(c echo.Context) error {
	var req booking.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Bookings.Submit(ctx, req)
	if err != nil {
		return respondForm(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Booking request submitted successfully!",
		"data":    r,
	})
}

func (h *BookingHandler) Status(c echo.Context) error {
	id, err := booking.ParseID(c.Param("id"))
	if err != nil {
		return respondForm(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Bookings.Status(ctx, id)
	if err != nil {
		return respondForm(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": v})
}

type ContactHandler struct {
	Contacts *contact.Service
	Log      *zap.Logger
}

func (h *ContactHandler) Submit(c echo.Context) error {
	var req contact.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	saved, err := h.Contacts.Submit(ctx, req)
	if err != nil {
		return respondForm(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Your message has been sent successfully!",
		"data":    saved,
	})
}

type SubscribeHandler struct {
	Subscriptions *subscription.Service
	Log           *zap.Logger
}

type subscribeReq struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

func (h *SubscribeHandler) Subscribe(c echo.Context) error {
	var req subscribeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	outcome, err := h.Subscriptions.Subscribe(ctx, req.Email, req.Source)
	if err != nil {
		return respondForm(c, h.Log, err)
	}
	msg := "Thank you for subscribing! Please check your email to confirm your subscription."
	if outcome == subscription.Resent {
		msg = "This email is awaiting confirmation. We have sent the verification link again."
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": msg})
}

// VerifyEmail consumes the token from a verification link.
func (h *SubscribeHandler) VerifyEmail(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Subscriptions.Verify(ctx, c.QueryParam("token")); err != nil {
		return respondForm(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Your email has been verified. Welcome aboard!"})
}
