package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/forms"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tracking"
	"github.com/Skotchmaster/storefront/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
	Hub *tracking.Hub
}

type placeOrderRequest struct {
	FullName      string      `json:"fullName"`
	PhoneNumber   FlexString  `json:"phoneNumber"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	PaymentMethod string      `json:"paymentMethod"`
	Items         []cart.Item `json:"items"`
}

func (r placeOrderRequest) values() forms.Values {
	return forms.Values{
		"fullName":      {r.FullName},
		"phoneNumber":   {string(r.PhoneNumber)},
		"address":       {r.Address},
		"city":          {r.City},
		"paymentMethod": {r.PaymentMethod},
	}
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.place_order")

	var req placeOrderRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		l.Warn("place_order_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}

	o, err := h.Svc.PlaceOrder(ctx, actor(c), service.PlaceOrderRequest{
		Owner:  cartOwner(c),
		Values: req.values(),
		Items:  req.Items,
	})
	if err != nil {
		return fail(l, "place_order_error", err, "cannot place order")
	}

	l.Info("place_order_success", "order_id", o.ID, "reference", o.Reference, "total", o.Total.String())
	return c.JSON(http.StatusCreated, o)
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.ListMyOrders(ctx, actor(c), offset, limit)
	if err != nil {
		return fail(l, "my_orders_error", err, "cannot load orders")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": util.Meta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.ListOrders(ctx, c.QueryParam("status"), offset, limit)
	if err != nil {
		return fail(l, "list_orders_error", err, "cannot load orders")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": util.Meta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	o, err := h.Svc.GetOrder(ctx, actor(c), id)
	if err != nil {
		return fail(l, "get_order_error", err, "cannot load order")
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) Tracking(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.tracking")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("tracking_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	t, err := h.Svc.Tracking(ctx, actor(c), id)
	if err != nil {
		return fail(l, "tracking_error", err, "cannot load tracking")
	}
	return c.JSON(http.StatusOK, t)
}

// Live streams status changes of one order over a websocket.
func (h *OrderHTTP) Live(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.live")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("live_tracking_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	o, err := h.Svc.GetOrder(ctx, actor(c), id)
	if err != nil {
		return fail(l, "live_tracking_error", err, "cannot load order")
	}

	initial := tracking.Update{OrderID: o.ID, Reference: o.Reference, Status: o.Status, At: o.UpdatedAt}
	l.Info("live_tracking_open", "order_id", id)
	if err := h.Hub.Serve(c.Response(), c.Request(), id, &initial); err != nil {
		// the upgrader has already written the response
		l.Warn("live_tracking_error", "status", 400, "reason", "upgrade failed", "error", err)
	}
	return nil
}

type statusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("cancel_order_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("cancel_order_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	o, err := h.Svc.Cancel(ctx, actor(c), id, strings.TrimSpace(req.Reason))
	if err != nil {
		return fail(l, "cancel_order_error", err, "cannot cancel order")
	}

	l.Info("cancel_order_success", "order_id", id)
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("update_order_status_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_order_status_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	o, err := h.Svc.UpdateStatus(ctx, id, req.Status, req.Note)
	if err != nil {
		return fail(l, "update_order_status_error", err, "cannot update order status")
	}

	l.Info("update_order_status_success", "order_id", id, "status", o.Status)
	return c.JSON(http.StatusOK, o)
}
