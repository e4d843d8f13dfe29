package jwtmiddleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const (
	ContextKey    = "user"
	UserIDKey     = "user_id"
	RoleKey       = "role"
	EmailKey      = "email"
	TokenCookie   = "accessToken"
	TokenLookup   = "header:Authorization:Bearer ,cookie:" + TokenCookie + ",query:token"
	signingMethod = "HS256"
)

// New validates HS256 access tokens and stores user_id, role and email in the context.
func New(secret []byte, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper:       skipper,
		SigningKey:    secret,
		SigningMethod: signingMethod,
		ContextKey:    ContextKey,
		TokenLookup:   TokenLookup,
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(tokens.AccessClaims)
		},
		SuccessHandler: func(c echo.Context) {
			tkn, ok := c.Get(ContextKey).(*jwt.Token)
			if !ok {
				return
			}
			claims, ok := tkn.Claims.(*tokens.AccessClaims)
			if !ok {
				return
			}
			id, err := claims.UserID()
			if err != nil {
				return
			}
			c.Set(UserIDKey, id)
			c.Set(RoleKey, claims.Role)
			c.Set(EmailKey, claims.Email)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).
				Warn("auth_error", "status", 401, "reason", "invalid or missing token", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		},
	})
}
