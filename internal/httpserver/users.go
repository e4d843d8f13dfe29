package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/jwtmiddleware"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
)

type UserHTTP struct {
	Svc          *service.UserService
	Carts        *service.CartService
	SecureCookie bool
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.register")

	v, err := readValues(c)
	if err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	u, err := h.Svc.Register(ctx, v)
	if err != nil {
		return fail(l, "register_error", err, "cannot register user")
	}

	l.Info("register_success", "user_id", u.ID)
	return c.JSON(http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	sess, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_error", err, "cannot log in")
	}

	if guest := guestOwner(c); guest != cart.GuestOwner && h.Carts != nil {
		owner := strconv.FormatUint(uint64(sess.User.ID), 10)
		if _, err := h.Carts.Merge(ctx, guest, owner); err != nil {
			l.Error("cart_merge_failed", "user_id", sess.User.ID, "error", err)
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     jwtmiddleware.TokenCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	l.Info("login_success", "user_id", sess.User.ID)
	return c.JSON(http.StatusOK, sess)
}

func (h *UserHTTP) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     jwtmiddleware.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.me")

	u, err := h.Svc.GetUser(ctx, actor(c).UserID)
	if err != nil {
		return fail(l, "me_error", err, "cannot load user")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, users, err := h.Svc.ListUsers(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_users_error", err, "cannot load users")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": users,
		"meta": util.Meta(page, offset, limit, total),
	})
}

func (h *UserHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("get_user_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	u, err := h.Svc.GetUser(ctx, id)
	if err != nil {
		return fail(l, "get_user_error", err, "cannot load user")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("update_user_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	v, err := readValues(c)
	if err != nil {
		l.Warn("update_user_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	u, err := h.Svc.UpdateUser(ctx, id, v)
	if err != nil {
		return fail(l, "update_user_error", err, "cannot update user")
	}

	l.Info("update_user_success", "user_id", id)
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("delete_user_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	if err := h.Svc.DeleteUser(ctx, actor(c), id); err != nil {
		return fail(l, "delete_user_error", err, "cannot delete user")
	}

	l.Info("delete_user_success", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}
