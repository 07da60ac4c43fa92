package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bbn-nutrition/storefront/internal/logging"
	"github.com/bbn-nutrition/storefront/internal/util"
)

// Envelope wraps every JSON response body.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Meta    *util.Meta `json:"meta,omitempty"`
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

func okMessage(c echo.Context, status int, msg string) error {
	return c.JSON(status, Envelope{Success: true, Message: msg})
}

func paged(c echo.Context, data any, meta util.Meta) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Meta: &meta})
}

// ErrorHandler renders errors in the same envelope as successful responses.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := http.StatusText(status)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		case nil:
			msg = http.StatusText(status)
		default:
			msg = fmt.Sprint(m)
		}
	} else {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, Envelope{Success: false, Message: msg})
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_handler_write_failed", "error", werr)
	}
}
