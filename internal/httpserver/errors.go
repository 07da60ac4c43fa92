package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bbn-nutrition/storefront/internal/service"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrInsufficientStock, http.StatusConflict},
	{service.ErrInvalidTransition, http.StatusConflict},
}

// fail logs err under event and turns it into an HTTP error. Unknown
// errors become a 500 without leaking details.
func fail(l *slog.Logger, event string, err error) error {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			l.Warn(event, "status", s.status, "reason", err.Error())
			return echo.NewHTTPError(s.status, err.Error())
		}
	}
	l.Error(event, "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

func parseID(c echo.Context, l *slog.Logger, event, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		l.Warn(event, "status", 400, "reason", param+" is not a uuid", "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, param+" is not a uuid")
	}
	return id, nil
}
