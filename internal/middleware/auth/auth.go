package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/jwtmiddleware"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

type Middleware struct {
	JWTSecret []byte
	// CurrentRole, when set, is used instead of the role claim on admin routes.
	CurrentRole func(ctx context.Context, userID uint) (string, error)
}

func hasToken(c echo.Context) bool {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return true
	}
	if ck, err := c.Cookie(jwtmiddleware.TokenCookie); err == nil && ck.Value != "" {
		return true
	}
	return c.QueryParam("token") != ""
}

// RequireAuth rejects requests without a valid access token.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return jwtmiddleware.New(m.JWTSecret, nil)(func(c echo.Context) error {
		if _, ok := UserID(c); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		return next(c)
	})
}

// OptionalAuth identifies the caller when a token is sent and lets anonymous requests through.
func (m *Middleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return jwtmiddleware.New(m.JWTSecret, func(c echo.Context) bool { return !hasToken(c) })(next)
}

// RequireAdmin must run after RequireAuth.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		role := Role(c)
		if m.CurrentRole != nil {
			id, _ := UserID(c)
			r, err := m.CurrentRole(ctx, id)
			if err != nil {
				logging.FromContext(ctx).
					Warn("auth_error", "status", 401, "reason", "user lookup failed", "user_id", id, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			role = r
		}
		if role != models.RoleAdmin {
			logging.FromContext(ctx).
				Warn("auth_error", "status", 403, "reason", "admin role required", "path", c.Path())
			return echo.NewHTTPError(http.StatusForbidden, "admin role required")
		}
		return next(c)
	}
}

func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(jwtmiddleware.UserIDKey).(uint)
	return id, ok && id != 0
}

func Role(c echo.Context) string {
	r, _ := c.Get(jwtmiddleware.RoleKey).(string)
	return r
}
