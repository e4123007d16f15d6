package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/catalog"
	"github.com/iliyamo/artist-site/internal/checkout"
	"github.com/iliyamo/artist-site/internal/mailer"
	"github.com/iliyamo/artist-site/internal/payment"
)

type shop struct {
	e        *echo.Echo
	products *memProducts
	proc     *stubProcessor
	mail     *recorder
}

func newShop(t *testing.T) *shop {
	t.Helper()
	s := &shop{e: newEcho(), products: newMemProducts(), proc: &stubProcessor{}, mail: &recorder{}}
	sessions := newSessions(t)
	cat := catalog.NewService(s.products, nil, nil)
	pay := payment.NewService(
		payment.WithProcessor(payment.Card, s.proc),
		payment.WithProcessor(payment.Bitcoin, s.proc),
	)
	ctl := checkout.NewController(pay, nil, s.mail, mailer.Composer{}, checkout.Config{PollAttempts: 3, PollInterval: time.Millisecond}, nil)

	ch := &CartHandler{Sessions: sessions, Catalog: cat, Log: zap.NewNop()}
	s.e.POST("/cart", ch.Create)
	s.e.GET("/cart/:session", ch.Get)
	s.e.POST("/cart/:session/items", ch.AddItem)
	s.e.PATCH("/cart/:session/items/:item", ch.UpdateItem)
	s.e.DELETE("/cart/:session/items/:item", ch.RemoveItem)
	s.e.DELETE("/cart/:session", ch.Clear)

	co := &CheckoutHandler{Sessions: sessions, Checkout: ctl, Log: zap.NewNop()}
	s.e.GET("/checkout/:session", co.Get)
	s.e.POST("/checkout/:session/shipping", co.EnterShipping)
	s.e.PUT("/checkout/:session/shipping", co.SubmitShipping)
	s.e.POST("/checkout/:session/back", co.Back)
	s.e.POST("/checkout/:session/payment", co.Pay)
	s.e.POST("/checkout/:session/confirm", co.Confirm)
	return s
}

func (s *shop) newCart(t *testing.T) string {
	t.Helper()
	rec := call(s.e, http.MethodPost, "/cart", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode(t, rec)["sessionId"].(string)
}

const shippingJSON = `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","address":"1 Main St","city":"Austin","state":"TX","zipCode":"78701","country":"US"}`

func TestCartFlow(t *testing.T) {
	s := newShop(t)
	id := s.newCart(t)

	rec := call(s.e, http.MethodPost, "/cart/"+id+"/items", `{"productId":"1","quantity":2,"size":"M"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "59.98", body["total"])
	assert.Equal(t, 3, s.products.stock("1"))

	rec = call(s.e, http.MethodPost, "/cart/"+id+"/items", `{"productId":"1","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "please select a size", decode(t, rec)["error"])

	rec = call(s.e, http.MethodPatch, "/cart/"+id+"/items/1-M", `{"quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "29.99", decode(t, rec)["total"])
	assert.Equal(t, 4, s.products.stock("1"))

	rec = call(s.e, http.MethodDelete, "/cart/"+id+"/items/1-S", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(s.e, http.MethodDelete, "/cart/"+id+"/items/1-M", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", decode(t, rec)["total"])
	assert.Equal(t, 5, s.products.stock("1"))
}

func TestCartStockConflictLeavesCart(t *testing.T) {
	s := newShop(t)
	id := s.newCart(t)

	rec := call(s.e, http.MethodPost, "/cart/"+id+"/items", `{"productId":"2","quantity":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(s.e, http.MethodGet, "/cart/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["items"])
	assert.Equal(t, 2, s.products.stock("2"))
}

func TestCartClearRestoresStock(t *testing.T) {
	s := newShop(t)
	id := s.newCart(t)
	call(s.e, http.MethodPost, "/cart/"+id+"/items", `{"productId":"2","quantity":2}`)
	require.Equal(t, 0, s.products.stock("2"))

	rec := call(s.e, http.MethodDelete, "/cart/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, s.products.stock("2"))
}

func TestCartUnknownSession(t *testing.T) {
	s := newShop(t)
	rec := call(s.e, http.MethodGet, "/cart/6f1c2a52-3f1e-4f59-9b41-3b1c9f0d8e11", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutCardFlow(t *testing.T) {
	s := newShop(t)
	id := s.newCart(t)
	call(s.e, http.MethodPost, "/cart/"+id+"/items", `{"productId":"2","quantity":1}`)

	rec := call(s.e, http.MethodPost, "/checkout/"+id+"/shipping", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(s.e, http.MethodPut, "/checkout/"+id+"/shipping", `{"firstName":"Ada"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = call(s.e, http.MethodPut, "/checkout/"+id+"/shipping", shippingJSON)
	require.Equal(t, http.StatusOK, rec.Code)

	s.proc.process = payment.Result{Success: true, Status: payment.StatusPending, TransactionID: "pi_1", PaymentURL: "pi_1_secret"}
	rec = call(s.e, http.MethodPost, "/checkout/"+id+"/payment", `{"paymentMethod":"card"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "pi_1_secret", body["payment"].(map[string]any)["paymentUrl"])
	assert.Equal(t, "payment", body["checkout"].(map[string]any)["stage"])

	s.proc.verify = []payment.Result{{Success: true, Status: payment.StatusCompleted, TransactionID: "pi_1"}}
	rec = call(s.e, http.MethodPost, "/checkout/"+id+"/confirm", `{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	flow := decode(t, rec)["checkout"].(map[string]any)
	assert.Equal(t, "confirmation", flow["stage"])
	assert.Equal(t, float64(3000), flow["closeAfterMs"])
	assert.Len(t, s.mail.sent, 1)

	rec = call(s.e, http.MethodGet, "/cart/"+id, "")
	assert.Empty(t, decode(t, rec)["items"])

	rec = call(s.e, http.MethodPost, "/cart/"+id+"/items", `{"productId":"2","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cart_review", decode(t, rec)["stage"])
}

func TestCartLockedWhilePaymentPending(t *testing.T) {
	s := newShop(t)
	id := s.newCart(t)
	call(s.e, http.MethodPost, "/cart/"+id+"/items", `{"productId":"2","quantity":1}`)
	call(s.e, http.MethodPost, "/checkout/"+id+"/shipping", "")
	call(s.e, http.MethodPut, "/checkout/"+id+"/shipping", shippingJSON)

	s.proc.process = payment.Result{Success: true, Status: payment.StatusPending, TransactionID: "pi_1", PaymentURL: "pi_1_secret"}
	rec := call(s.e, http.MethodPost, "/checkout/"+id+"/payment", `{"paymentMethod":"card"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/cart/" + id + "/items", `{"productId":"2","quantity":1}`},
		{http.MethodPatch, "/cart/" + id + "/items/2", `{"quantity":2}`},
		{http.MethodDelete, "/cart/" + id + "/items/2", ""},
		{http.MethodDelete, "/cart/" + id, ""},
	} {
		rec = call(s.e, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusConflict, rec.Code, tc.method+" "+tc.path)
		assert.Equal(t, "Finish or cancel payment first", decode(t, rec)["error"])
	}
	assert.Equal(t, 1, s.products.stock("2"))

	rec = call(s.e, http.MethodPost, "/checkout/"+id+"/confirm", `{"transactionId":"pi_other"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	call(s.e, http.MethodPost, "/checkout/"+id+"/back", "")
	rec = call(s.e, http.MethodPatch, "/cart/"+id+"/items/2", `{"quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "30", decode(t, rec)["total"])
}

func TestCheckoutCryptoTimeoutKeepsPaymentStage(t *testing.T) {
	s := newShop(t)
	id := s.newCart(t)
	call(s.e, http.MethodPost, "/cart/"+id+"/items", `{"productId":"2","quantity":1}`)
	call(s.e, http.MethodPost, "/checkout/"+id+"/shipping", "")
	call(s.e, http.MethodPut, "/checkout/"+id+"/shipping", shippingJSON)

	s.proc.process = payment.Result{Success: true, Status: payment.StatusPending, TransactionID: "bitcoin_ref"}
	rec := call(s.e, http.MethodPost, "/checkout/"+id+"/payment", `{"paymentMethod":"bitcoin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Minimum payment amount for bitcoin is $20.00", body["error"])
	assert.Zero(t, s.proc.calls)

	call(s.e, http.MethodPost, "/checkout/"+id+"/back", "")
	call(s.e, http.MethodPost, "/checkout/"+id+"/back", "")
	rec = call(s.e, http.MethodPatch, "/cart/"+id+"/items/2", `{"quantity":2}`)
	require.Equal(t, "30", decode(t, rec)["total"])
	call(s.e, http.MethodPost, "/checkout/"+id+"/shipping", "")
	call(s.e, http.MethodPut, "/checkout/"+id+"/shipping", shippingJSON)

	rec = call(s.e, http.MethodPost, "/checkout/"+id+"/payment", `{"paymentMethod":"bitcoin"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "Payment confirmation timed out", body["error"])
	assert.Equal(t, "payment", body["checkout"].(map[string]any)["stage"])

	rec = call(s.e, http.MethodGet, "/checkout/"+id, "")
	flow := decode(t, rec)["checkout"].(map[string]any)
	assert.Equal(t, "payment", flow["stage"])
	assert.Equal(t, "failed", flow["lastResult"].(map[string]any)["status"])
}

func TestCheckoutRejectsUnknownMethod(t *testing.T) {
	s := newShop(t)
	id := s.newCart(t)
	rec := call(s.e, http.MethodPost, "/checkout/"+id+"/payment", `{"paymentMethod":"cash"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutEmptyCart(t *testing.T) {
	s := newShop(t)
	id := s.newCart(t)
	rec := call(s.e, http.MethodPost, "/checkout/"+id+"/shipping", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Your cart is empty", decode(t, rec)["error"])
}
