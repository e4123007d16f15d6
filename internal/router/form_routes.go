package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/artist-site/internal/handler"
)

// RegisterForms registers the booking, contact and newsletter forms. Every
// submission is rate limited per client.
func RegisterForms(api *echo.Group, b *handler.BookingHandler, c *handler.ContactHandler, s *handler.SubscribeHandler, limit echo.MiddlewareFunc) {
	api.POST("/booking", b.Submit, limit)
	api.GET("/booking/:id", b.Status)
	api.POST("/contact", c.Submit, limit)
	api.POST("/subscribe", s.Subscribe, limit)
	api.GET("/verify-email", s.VerifyEmail)
}
