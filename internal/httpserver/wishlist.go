package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
)

type WishlistHTTP struct {
	Svc *service.WishlistService
}

func (h *WishlistHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.get")

	products, err := h.Svc.Get(ctx, actor(c).UserID)
	if err != nil {
		return fail(l, "get_wishlist_error", err, "cannot load wishlist")
	}
	return c.JSON(http.StatusOK, products)
}

type wishlistRequest struct {
	ProductID uint `json:"productId" form:"productId"`
}

func (h *WishlistHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.add")

	var req wishlistRequest
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		l.Warn("add_wishlist_error", "status", 400, "reason", "productId is required", "error", err)
		return badRequest("productId is required")
	}
	created, err := h.Svc.Add(ctx, actor(c).UserID, req.ProductID)
	if err != nil {
		return fail(l, "add_wishlist_error", err, "cannot update wishlist")
	}

	l.Info("add_wishlist_success", "product_id", req.ProductID, "created", created)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{"productId": req.ProductID, "added": created})
}

func (h *WishlistHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.remove")

	productID, err := parseID(c, "productId")
	if err != nil {
		l.Warn("remove_wishlist_error", "status", 400, "reason", "bad productId", "error", err)
		return badRequest(err.Error())
	}
	if err := h.Svc.Remove(ctx, actor(c).UserID, productID); err != nil {
		return fail(l, "remove_wishlist_error", err, "cannot update wishlist")
	}

	l.Info("remove_wishlist_success", "product_id", productID)
	return c.NoContent(http.StatusNoContent)
}
