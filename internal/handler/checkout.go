package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/checkout"
	"github.com/iliyamo/artist-site/internal/payment"
	"github.com/iliyamo/artist-site/internal/session"
)

type CheckoutHandler struct {
	Sessions SessionStore
	Checkout *checkout.Controller
	Log      *zap.Logger
}

func checkoutView(s *session.Session, res *payment.Result) echo.Map {
	out := echo.Map{
		"sessionId": s.ID,
		"checkout":  s.Checkout,
		"items":     s.Cart.Items(),
		"total":     s.Cart.Total(),
	}
	if res != nil {
		out["payment"] = res
	}
	return out
}

func (h *CheckoutHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Sessions.Load(ctx, c.Param("session"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, checkoutView(s, nil))
}

// step applies a synchronous transition and returns the new state.
func (h *CheckoutHandler) step(c echo.Context, fn func(*session.Session) error) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Sessions.Update(ctx, c.Param("session"), fn)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, checkoutView(s, nil))
}

// EnterShipping moves from cart review to the shipping form.
func (h *CheckoutHandler) EnterShipping(c echo.Context) error {
	return h.step(c, func(s *session.Session) error {
		return h.Checkout.ProceedToShipping(s.Checkout, s.Cart)
	})
}

// SubmitShipping stores the address and moves to payment.
func (h *CheckoutHandler) SubmitShipping(c echo.Context) error {
	var info checkout.ShippingInfo
	if err := c.Bind(&info); err != nil {
		return badBody(c)
	}
	return h.step(c, func(s *session.Session) error {
		return h.Checkout.SubmitShipping(s.Checkout, info)
	})
}

func (h *CheckoutHandler) Back(c echo.Context) error {
	return h.step(c, func(s *session.Session) error { return h.Checkout.Back(s.Checkout) })
}

// payCtx covers the longest payment wait plus the surrounding storage work.
func (h *CheckoutHandler) payCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.Checkout.MaxWait()+2*requestTimeout)
}

// pay runs a payment step. A failed payment keeps the flow in payment and
// its state, including the failed result, is still saved.
func (h *CheckoutHandler) pay(c echo.Context, run func(ctx context.Context, s *session.Session) (payment.Result, error)) error {
	ctx, cancel := h.payCtx(c)
	defer cancel()
	var (
		res    payment.Result
		payErr error
	)
	s, err := h.Sessions.Update(ctx, c.Param("session"), func(s *session.Session) error {
		res, payErr = run(ctx, s)
		if payErr != nil && s.Checkout.Stage != checkout.StagePayment {
			return payErr
		}
		return nil
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if payErr != nil {
		kind := apperr.KindOf(payErr)
		return c.JSON(apperr.HTTPStatus(kind), echo.Map{
			"error":    apperr.ClientMessage(payErr),
			"checkout": s.Checkout,
			"payment":  res,
		})
	}
	return c.JSON(http.StatusOK, checkoutView(s, &res))
}

type payReq struct {
	Method string `json:"paymentMethod"`
}

// Pay charges the cart with the chosen method. Crypto payments block until
// confirmed or timed out; card and PayPal return the client secret or
// approval link and stay in payment until Confirm.
func (h *CheckoutHandler) Pay(c echo.Context) error {
	var req payReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	m, ok := payment.ParseMethod(req.Method)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid payment method"})
	}
	return h.pay(c, func(ctx context.Context, s *session.Session) (payment.Result, error) {
		return h.Checkout.SubmitPayment(ctx, s.Checkout, s.Cart, m)
	})
}

type confirmReq struct {
	TransactionID string `json:"transactionId"`
}

// Confirm waits for an outstanding card or PayPal payment to settle.
func (h *CheckoutHandler) Confirm(c echo.Context) error {
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	return h.pay(c, func(ctx context.Context, s *session.Session) (payment.Result, error) {
		return h.Checkout.ConfirmPayment(ctx, s.Checkout, s.Cart, req.TransactionID)
	})
}
