package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/artist-site/internal/handler"
)

// RegisterShop registers the catalog, cart and checkout endpoints. Only the
// product listing goes through the response cache; cart and checkout writes
// share the rate limiter with the other public POSTs.
func RegisterShop(api *echo.Group, p *handler.ProductHandler, ct *handler.CartHandler, co *handler.CheckoutHandler, cache, limit echo.MiddlewareFunc) {
	api.GET("/products", p.List, cache)
	api.PUT("/products/:id/stock", p.DecrementStock, limit)

	// ---- Cart ----
	api.POST("/cart", ct.Create, limit)
	api.GET("/cart/:session", ct.Get)
	api.POST("/cart/:session/items", ct.AddItem, limit)
	api.PATCH("/cart/:session/items/:item", ct.UpdateItem)
	api.DELETE("/cart/:session/items/:item", ct.RemoveItem)
	api.DELETE("/cart/:session", ct.Clear)

	// ---- Checkout ----
	api.GET("/checkout/:session", co.Get)
	api.POST("/checkout/:session/shipping", co.EnterShipping)
	api.PUT("/checkout/:session/shipping", co.SubmitShipping)
	api.POST("/checkout/:session/back", co.Back)
	api.POST("/checkout/:session/payment", co.Pay, limit)
	api.POST("/checkout/:session/confirm", co.Confirm)
}

// RegisterPayment registers the provider-facing payment endpoints. The
// PayPal return URLs and the crypto webhook are called by third parties and
// are not rate limited.
func RegisterPayment(api *echo.Group, h *handler.PaymentHandler, limit echo.MiddlewareFunc) {
	api.POST("/payment/process", h.Process, limit)
	api.POST("/payment/verify", h.Verify, limit)
	api.GET("/payment/paypal/success", h.PayPalSuccess)
	api.GET("/payment/paypal/cancel", h.PayPalCancel)
	api.POST("/payment/crypto/webhook", h.CryptoWebhook)
	api.GET("/payment/alert", h.Alert)
}
