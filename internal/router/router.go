package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/artist-site/internal/handler"
)

// RegisterRoutes registers the probes used by load balancers and the
// orchestrator. They live outside /api and are never rate limited.
func RegisterRoutes(e *echo.Echo, ready *handler.ReadyHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", ready.Ready)
}

// API returns the /api group every storefront route hangs off.
func API(e *echo.Echo) *echo.Group {
	return e.Group("/api")
}
