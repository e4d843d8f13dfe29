package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
)

type CartHTTP struct {
	Svc *service.CartService
}

type cartView struct {
	Items []cart.Item `json:"items"`
	Count uint        `json:"count"`
	Total string      `json:"total"`
}

func viewCart(ct *cart.Cart) cartView {
	return cartView{Items: ct.Items, Count: ct.Count(), Total: ct.Total().StringFixed(2)}
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	ct, err := h.Svc.Get(ctx, cartOwner(c))
	if err != nil {
		return fail(l, "get_cart_error", err, "cannot load cart")
	}
	return c.JSON(http.StatusOK, viewCart(ct))
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req service.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	ct, err := h.Svc.Add(ctx, cartOwner(c), req)
	if err != nil {
		return fail(l, "add_to_cart_error", err, "cannot add to cart")
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, viewCart(ct))
}

type cartLineRequest struct {
	ProductID uint   `json:"productId" query:"productId"`
	Size      string `json:"size" query:"size"`
	Color     string `json:"color" query:"color"`
	Quantity  uint   `json:"quantity" query:"quantity"`
}

func (r cartLineRequest) key() cart.Key {
	return cart.Key{ProductID: r.ProductID, Size: r.Size, Color: r.Color}
}

func (h *CartHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	var req cartLineRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	ct, err := h.Svc.Update(ctx, cartOwner(c), req.key(), req.Quantity)
	if err != nil {
		return fail(l, "update_cart_error", err, "cannot update cart")
	}

	l.Info("update_cart_success", "product_id", req.ProductID, "quantity", req.Quantity)
	return c.JSON(http.StatusOK, viewCart(ct))
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	var req cartLineRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("remove_from_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	ct, err := h.Svc.Remove(ctx, cartOwner(c), req.key())
	if err != nil {
		return fail(l, "remove_from_cart_error", err, "cannot update cart")
	}

	l.Info("remove_from_cart_success", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, viewCart(ct))
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.Clear(ctx, cartOwner(c)); err != nil {
		return fail(l, "clear_cart_error", err, "cannot clear cart")
	}

	l.Info("clear_cart_success")
	return c.NoContent(http.StatusNoContent)
}
