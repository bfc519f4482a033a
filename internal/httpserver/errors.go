package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopcart/internal/service"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err under event and turns it into the HTTP error the client
// sees. Client errors carry the error text, server errors do not.
func fail(l *slog.Logger, event string, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
		return echo.NewHTTPError(code, "internal error").SetInternal(err)
	}

	l.Warn(event, "status", code, "error", err)
	msg := http.StatusText(code)
	switch code {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict:
		msg = err.Error()
	case http.StatusUnauthorized:
		msg = "invalid credentials"
	}
	return echo.NewHTTPError(code, msg)
}
