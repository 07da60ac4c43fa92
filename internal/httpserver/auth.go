package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bbn-nutrition/storefront/internal/logging"
	authmw "github.com/bbn-nutrition/storefront/internal/middleware/auth"
	"github.com/bbn-nutrition/storefront/internal/service"
	"github.com/bbn-nutrition/storefront/internal/tokens"
	"github.com/bbn-nutrition/storefront/internal/transport"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	CookieSecure bool
}

func authResponse(res *transport.LoginResult) transport.AuthResponse {
	return transport.AuthResponse{
		User:         res.User,
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.AccessExp,
	}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bind(c, l, "register_error", &req); err != nil {
		return err
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return ok(c, http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bind(c, l, "login_error", &req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_error", err)
	}

	authmw.SetAuthCookies(c, res, h.CookieSecure)
	l.Info("login_success", "user_id", res.User.ID, "admin", res.IsAdmin)
	return ok(c, http.StatusOK, authResponse(res))
}

// Refresh takes the refresh token from the cookie, falling back to the body
// for clients that keep tokens themselves.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	raw := ""
	if cookie, err := c.Cookie(tokens.RefreshCookie); err == nil {
		raw = cookie.Value
	}
	if raw == "" {
		var req transport.RefreshRequest
		if err := c.Bind(&req); err == nil {
			raw = req.RefreshToken
		}
	}

	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		authmw.ClearAuthCookies(c, h.CookieSecure)
		return fail(l, "refresh_error", err)
	}

	authmw.SetAuthCookies(c, res, h.CookieSecure)
	return ok(c, http.StatusOK, authResponse(res))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	raw := ""
	if cookie, err := c.Cookie(tokens.RefreshCookie); err == nil {
		raw = cookie.Value
	} else {
		var req transport.RefreshRequest
		if err := c.Bind(&req); err == nil {
			raw = req.RefreshToken
		}
	}

	if err := h.Svc.Logout(ctx, raw); err != nil {
		return fail(l, "logout_error", err)
	}

	authmw.ClearAuthCookies(c, h.CookieSecure)
	return okMessage(c, http.StatusOK, "logged out")
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	id, _ := authmw.IdentityFrom(c)
	user, err := h.Svc.Me(ctx, id.UserID)
	if err != nil {
		return fail(l, "me_error", err)
	}
	return ok(c, http.StatusOK, user)
}
