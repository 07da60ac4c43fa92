package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bbn-nutrition/storefront/internal/logging"
	"github.com/bbn-nutrition/storefront/internal/realtime"
	"github.com/bbn-nutrition/storefront/internal/service"
)

type AdminHTTP struct {
	Svc *service.AdminService
	Hub *realtime.Hub
}

func (h *AdminHTTP) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.dashboard")

	d, err := h.Svc.Dashboard(ctx)
	if err != nil {
		return fail(l, "dashboard_error", err)
	}
	return ok(c, http.StatusOK, d)
}

func (h *AdminHTTP) Feed(c echo.Context) error {
	if h.Hub == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "live feed disabled")
	}
	return h.Hub.ServeWS(c)
}
