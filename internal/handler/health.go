package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"database/sql"
	"net/http" // net/http provides status codes and response helpers
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
	"github.com/redis/go-redis/v9"
)

// Health is a simple liveness endpoint used by load balancers. It returns a
// plain text "ok" with a 200 status code.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// ReadyHandler reports whether the database and Redis answer pings.
type ReadyHandler struct {
	DB    *sql.DB
	Redis *redis.Client
}

// Ready returns 200 when every configured dependency is reachable and 503
// otherwise, with one entry per dependency.
func (h *ReadyHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	out := echo.Map{}
	status := http.StatusOK
	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			out[name] = "down"
			status = http.StatusServiceUnavailable
			return
		}
		out[name] = "ok"
	}
	if h.DB != nil {
		check("db", h.DB.PingContext)
	}
	if h.Redis != nil {
		check("redis", func(ctx context.Context) error { return h.Redis.Ping(ctx).Err() })
	}
	return c.JSON(status, out)
}
