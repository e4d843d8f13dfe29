package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/storage"
)

// fail logs a service error under event and converts it to an HTTP error.
// Unknown errors become 500 with the generic reason.
func fail(l *slog.Logger, event string, err error, reason string) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "reason", "validation failed", "error", err)
		body := echo.Map{"message": "validation failed"}
		if fields := service.FieldErrors(err); len(fields) > 0 {
			body["errors"] = fields
		} else {
			body["message"] = err.Error()
		}
		return echo.NewHTTPError(http.StatusBadRequest, body)
	case errors.Is(err, storage.ErrTooLarge), errors.Is(err, storage.ErrUnsupportedType):
		l.Warn(event, "status", 400, "reason", "bad upload", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		l.Warn(event, "status", 401, "reason", "invalid credentials", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrForbidden):
		l.Warn(event, "status", 403, "reason", "forbidden", "error", err)
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "reason", "not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", 409, "reason", "conflict", "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	l.Error(event, "status", 500, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, reason)
}
