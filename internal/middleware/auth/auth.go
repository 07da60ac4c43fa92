package authmw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/bbn-nutrition/storefront/internal/logging"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/service"
	"github.com/bbn-nutrition/storefront/internal/tokens"
	"github.com/bbn-nutrition/storefront/internal/transport"
)

const identityKey = "identity"

// Identity is the authenticated caller attached to the echo context.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

func (i *Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

type Middleware struct {
	AccessSecret    []byte
	Auth            *service.AuthService
	AllowMockTokens bool
	CookieSecure    bool
}

// RequireAuth accepts a bearer token or the access cookie. An expired or
// absent access token is renewed from the refresh cookie when possible.
func (m *Middleware) RequireAuth() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:             identityKey,
		TokenLookup:            "header:Authorization:Bearer ,cookie:" + tokens.AccessCookie,
		ParseTokenFunc:         m.parseToken,
		ErrorHandler:           m.handleError,
		ContinueOnIgnoredError: true,
	})
}

func (m *Middleware) parseToken(c echo.Context, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if m.AllowMockTokens && (raw == service.MockAdminToken || raw == service.MockUserToken) {
		user, err := m.Auth.ResolveMockToken(c.Request().Context(), raw)
		if err != nil {
			return nil, err
		}
		return &Identity{UserID: user.ID, Role: user.Role}, nil
	}

	claims, err := tokens.AccessClaimsFromToken(raw, m.AccessSecret)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, jwt.ErrTokenInvalidSubject
	}
	return &Identity{UserID: id, Role: claims.Role}, nil
}

func (m *Middleware) handleError(c echo.Context, err error) error {
	l := logging.FromContext(c.Request().Context()).With("middleware", "auth")

	// forged or broken tokens are never rescued by a refresh
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenMalformed) || errors.Is(err, service.ErrInvalidCredentials) {
		l.Warn("auth_error", "status", 401, "reason", "invalid access token", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
	}

	cookie, cErr := c.Cookie(tokens.RefreshCookie)
	if cErr != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	res, rErr := m.Auth.Refresh(c.Request().Context(), cookie.Value)
	if rErr != nil {
		l.Warn("auth_error", "status", 401, "reason", "refresh failed", "error", rErr)
		ClearAuthCookies(c, m.CookieSecure)
		return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
	}

	SetAuthCookies(c, res, m.CookieSecure)
	c.Set(identityKey, &Identity{UserID: res.User.ID, Role: res.User.Role})
	return nil
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		if !id.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

func IdentityFrom(c echo.Context) (*Identity, bool) {
	id, ok := c.Get(identityKey).(*Identity)
	return id, ok && id != nil
}

func SetAuthCookies(c echo.Context, res *transport.LoginResult, secure bool) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp, secure))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp, secure))
}

func ClearAuthCookies(c echo.Context, secure bool) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", secure))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", secure))
}
