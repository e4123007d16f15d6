package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/artist-site/internal/handler"
	"github.com/iliyamo/artist-site/internal/middleware"
)

// RegisterAdmin registers the admin API. Login is rate limited and open;
// everything else requires a valid JWT carrying the admin role.
func RegisterAdmin(api *echo.Group, a *handler.AdminHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	api.POST("/admin/login", a.Login, limit)

	g := api.Group(
		"/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.AdminRole),
	)
	g.GET("/bookings", a.ListBookings)
	g.PATCH("/bookings/:id/status", a.UpdateBookingStatus)
	g.PUT("/products/:id/stock", a.Restock)
	g.GET("/subscribers", a.ListSubscribers)
}
