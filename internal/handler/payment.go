package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/payment"
)

type PaymentHandler struct {
	Payments      *payment.Service
	WebhookSecret string
	// SiteURL prefixes the checkout page the PayPal callback redirects to.
	SiteURL string
	Log     *zap.Logger
}

type processReq struct {
	PaymentDetails *payment.Details `json:"paymentDetails"`
	OrderDetails   json.RawMessage  `json:"orderDetails"`
}

// failedResult maps a failed result to its status code and {"error"} body.
func failedResult(c echo.Context, res payment.Result) error {
	status := apperr.HTTPStatus(apperr.KindOf(res.Err))
	if res.Err == nil {
		status = http.StatusBadRequest
	}
	msg := res.Error
	if msg == "" {
		msg = "Payment failed"
	}
	return c.JSON(status, echo.Map{"error": msg})
}

// Process starts a payment for the given details.
func (h *PaymentHandler) Process(c echo.Context) error {
	var req processReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if req.PaymentDetails == nil || len(req.OrderDetails) == 0 || string(req.OrderDetails) == "null" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing payment or order details"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res := h.Payments.ProcessPayment(ctx, *req.PaymentDetails)
	if res.Status == payment.StatusFailed {
		return failedResult(c, res)
	}
	return c.JSON(http.StatusOK, res)
}

type verifyReq struct {
	TransactionID string `json:"transactionId"`
	PaymentMethod string `json:"paymentMethod"`
}

// Verify reports the current state of a payment.
func (h *PaymentHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if req.TransactionID == "" || req.PaymentMethod == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing transaction ID or payment method"})
	}
	m, ok := payment.ParseMethod(req.PaymentMethod)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid payment method"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res := h.Payments.VerifyPayment(ctx, req.TransactionID, m)
	if res.Status == payment.StatusFailed {
		return failedResult(c, res)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHandler) checkoutURL(key, value string) string {
	return h.SiteURL + "/checkout?" + url.Values{key: {value}}.Encode()
}

// PayPalSuccess is the buyer's return from PayPal approval. It captures the
// order and redirects to the checkout page with the outcome.
func (h *PaymentHandler) PayPalSuccess(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" || c.QueryParam("PayerID") == "" {
		return c.Redirect(http.StatusFound, h.checkoutURL("error", "missing_paypal_params"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res := h.Payments.VerifyPayment(ctx, token, payment.PayPal)
	switch {
	case res.Status == payment.StatusCompleted:
		return c.Redirect(http.StatusFound, h.checkoutURL("status", "success"))
	case res.Status == payment.StatusFailed && !apperr.Public(res.Err):
		return c.Redirect(http.StatusFound, h.checkoutURL("error", "internal_error"))
	}
	return c.Redirect(http.StatusFound, h.checkoutURL("error", "payment_failed"))
}

// PayPalCancel is the buyer's return after abandoning PayPal approval.
func (h *PaymentHandler) PayPalCancel(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.checkoutURL("error", "payment_cancelled"))
}

type cryptoConfirmation struct {
	Reference string `json:"reference"`
	TxHash    string `json:"txHash"`
}

// CryptoWebhook records an on-chain confirmation. The body must carry a
// valid HMAC signature in the X-Signature header.
func (h *PaymentHandler) CryptoWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 64<<10))
	if err != nil {
		return badBody(c)
	}
	if !payment.ValidSignature(h.WebhookSecret, body, c.Request().Header.Get(payment.SignatureHeader)) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
	}
	var req cryptoConfirmation
	if err := json.Unmarshal(body, &req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Payments.ConfirmCryptoPayment(ctx, req.Reference, req.TxHash); err != nil {
		return respondError(c, h.Log, err)
	}
	h.Log.Info("crypto payment confirmed", zap.String("reference", req.Reference))
	return c.JSON(http.StatusOK, echo.Map{"status": "confirmed"})
}

// Alert returns the outstanding payment failure notice, if any.
func (h *PaymentHandler) Alert(c echo.Context) error {
	a := h.Payments.Alerts()
	if a == nil {
		return c.JSON(http.StatusOK, echo.Map{"alert": nil})
	}
	if msg := a.Current(); msg != "" {
		return c.JSON(http.StatusOK, echo.Map{"alert": msg})
	}
	return c.JSON(http.StatusOK, echo.Map{"alert": nil})
}
