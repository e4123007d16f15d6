// Package handler exposes the HTTP endpoints of the site backend.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/utils"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

// Validator plugs the shared struct-tag validation into echo's c.Validate.
type Validator struct{}

func (Validator) Validate(i interface{}) error { return utils.Validate(i) }

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// respondError writes {"error": msg} with the status of err's kind. Only
// validation, not-found, conflict and timeout messages reach the client;
// everything else is logged and replaced by a generic message.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	kind := apperr.KindOf(err)
	if !apperr.Public(err) && log != nil {
		log.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("kind", kind.String()),
			zap.Error(err))
	}
	return c.JSON(apperr.HTTPStatus(kind), echo.Map{"error": apperr.ClientMessage(err)})
}

// respondForm is respondError for the site's form endpoints, which answer
// {"success": false, "message": msg}.
func respondForm(c echo.Context, log *zap.Logger, err error) error {
	kind := apperr.KindOf(err)
	if !apperr.Public(err) && log != nil {
		log.Error("form submission failed",
			zap.String("path", c.Path()),
			zap.String("kind", kind.String()),
			zap.Error(err))
	}
	return c.JSON(apperr.HTTPStatus(kind), echo.Map{"success": false, "message": apperr.ClientMessage(err)})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}
