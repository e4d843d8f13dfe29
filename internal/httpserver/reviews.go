package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
)

type ReviewHTTP struct {
	Svc *service.ReviewService
}

func (h *ReviewHTTP) ForProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.for_product")

	id, err := parseID(c, "productId")
	if err != nil {
		l.Warn("list_reviews_error", "status", 400, "reason", "bad productId", "error", err)
		return badRequest(err.Error())
	}
	res, err := h.Svc.List(ctx, id)
	if err != nil {
		return fail(l, "list_reviews_error", err, "cannot load reviews")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ReviewHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.add")

	v, err := readValues(c)
	if err != nil {
		l.Warn("add_review_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	rv, err := h.Svc.Add(ctx, actor(c), util.ParseUint(strings.TrimSpace(v.Get("productId"))), v)
	if err != nil {
		return fail(l, "add_review_error", err, "cannot save review")
	}

	l.Info("add_review_success", "product_id", rv.ProductID, "rating", rv.Rating)
	return c.JSON(http.StatusCreated, rv)
}
