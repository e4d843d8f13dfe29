package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/util"
)

type ReturnHTTP struct {
	Svc   *service.ReturnService
	Files *storage.Local
}

// Submit accepts JSON or multipart; a multipart "image" file becomes the imageUrl.
func (h *ReturnHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "return.submit")

	v, err := readValues(c)
	if err != nil {
		l.Warn("submit_return_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	urls, err := saveUploads(c, h.Files, "image")
	if err != nil {
		return fail(l, "submit_return_error", err, "cannot store image")
	}
	if len(urls) > 0 {
		v.Set("imageUrl", urls[0])
	}

	rr, err := h.Svc.Submit(ctx, actor(c), v)
	if err != nil {
		discardUploads(h.Files, urls)
		return fail(l, "submit_return_error", err, "cannot submit return request")
	}

	l.Info("submit_return_success", "return_id", rr.ID, "order_id", rr.OrderID)
	return c.JSON(http.StatusCreated, rr)
}

func (h *ReturnHTTP) All(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "return.all")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.ListAll(ctx, c.QueryParam("status"), offset, limit)
	if err != nil {
		return fail(l, "list_returns_error", err, "cannot load return requests")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.Meta(page, offset, limit, total),
	})
}

func (h *ReturnHTTP) ByOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "return.by_order")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("returns_by_order_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	items, err := h.Svc.ByOrder(ctx, actor(c), id)
	if err != nil {
		return fail(l, "returns_by_order_error", err, "cannot load return requests")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ReturnHTTP) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "return.mine")

	items, err := h.Svc.Mine(ctx, actor(c))
	if err != nil {
		return fail(l, "my_returns_error", err, "cannot load return requests")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ReturnHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "return.set_status")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("set_return_status_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_return_status_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	rr, err := h.Svc.SetStatus(ctx, id, req.Status, req.Note)
	if err != nil {
		return fail(l, "set_return_status_error", err, "cannot update return request")
	}

	l.Info("set_return_status_success", "return_id", id, "status", rr.Status)
	return c.JSON(http.StatusOK, rr)
}
