package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

var secret = []byte("test-secret")

func token(t *testing.T, id uint, role string, ttl time.Duration) string {
	t.Helper()
	tkn, _, err := tokens.SignAccessToken(id, "x@example.com", role, ttl, secret)
	require.NoError(t, err)
	return tkn
}

func newServer() *echo.Echo {
	return newServerWith(&Middleware{JWTSecret: secret})
}

func newServerWith(m *Middleware) *echo.Echo {
	e := echo.New()
	who := func(c echo.Context) error {
		id, _ := UserID(c)
		return c.JSON(http.StatusOK, map[string]any{"id": id, "role": Role(c)})
	}
	e.GET("/me", who, m.RequireAuth)
	e.GET("/admin", who, m.RequireAuth, m.RequireAdmin)
	e.GET("/maybe", who, m.OptionalAuth)
	return e
}

func do(e *echo.Echo, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	e := newServer()

	assert.Equal(t, http.StatusUnauthorized, do(e, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "/me", "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "/me", "Bearer "+token(t, 3, models.RoleUser, -time.Minute)).Code)

	rec := do(e, "/me", "Bearer "+token(t, 3, models.RoleUser, time.Hour))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":3,"role":"user"}`, rec.Body.String())

	rec = do(e, "/me?token="+token(t, 4, models.RoleUser, time.Hour), "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	e := newServer()
	assert.Equal(t, http.StatusForbidden, do(e, "/admin", "Bearer "+token(t, 3, models.RoleUser, time.Hour)).Code)
	assert.Equal(t, http.StatusOK, do(e, "/admin", "Bearer "+token(t, 1, models.RoleAdmin, time.Hour)).Code)
}

func TestRequireAdmin_CurrentRole(t *testing.T) {
	stored := map[uint]string{1: models.RoleUser, 2: models.RoleAdmin}
	e := newServerWith(&Middleware{
		JWTSecret: secret,
		CurrentRole: func(_ context.Context, id uint) (string, error) {
			role, ok := stored[id]
			if !ok {
				return "", errors.New("no such user")
			}
			return role, nil
		},
	})

	assert.Equal(t, http.StatusForbidden, do(e, "/admin", "Bearer "+token(t, 1, models.RoleAdmin, time.Hour)).Code)
	assert.Equal(t, http.StatusOK, do(e, "/admin", "Bearer "+token(t, 2, models.RoleUser, time.Hour)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "/admin", "Bearer "+token(t, 3, models.RoleAdmin, time.Hour)).Code)
	assert.Equal(t, http.StatusOK, do(e, "/me", "Bearer "+token(t, 3, models.RoleAdmin, time.Hour)).Code)
}

func TestOptionalAuth(t *testing.T) {
	e := newServer()

	rec := do(e, "/maybe", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":0,"role":""}`, rec.Body.String())

	rec = do(e, "/maybe", "Bearer "+token(t, 9, models.RoleUser, time.Hour))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":9,"role":"user"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(e, "/maybe", "Bearer garbage").Code)
}
