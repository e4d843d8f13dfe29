package httpserver

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/export"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/util"
)

type CatalogHTTP struct {
	Svc   *service.CatalogService
	Files *storage.Local
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list")

	cats, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return fail(l, "list_categories_error", err, "cannot load categories")
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CatalogHTTP) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("get_category_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	cat, err := h.Svc.GetCategory(ctx, id)
	if err != nil {
		return fail(l, "get_category_error", err, "cannot load category")
	}
	return c.JSON(http.StatusOK, cat)
}

// withImage stores an optional uploaded "image" file as the imageUrl value.
func (h *CatalogHTTP) withImage(c echo.Context) ([]string, error) {
	return saveUploads(c, h.Files, "image")
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create")

	v, err := readValues(c)
	if err != nil {
		l.Warn("create_category_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	urls, err := h.withImage(c)
	if err != nil {
		return fail(l, "create_category_error", err, "cannot store image")
	}
	if len(urls) > 0 {
		v.Set("imageUrl", urls[0])
	}

	cat, err := h.Svc.CreateCategory(ctx, v)
	if err != nil {
		discardUploads(h.Files, urls)
		return fail(l, "create_category_error", err, "cannot create category")
	}

	l.Info("create_category_success", "category_id", cat.ID)
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.update")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("update_category_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	v, err := readValues(c)
	if err != nil {
		l.Warn("update_category_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	urls, err := h.withImage(c)
	if err != nil {
		return fail(l, "update_category_error", err, "cannot store image")
	}
	if len(urls) > 0 {
		v.Set("imageUrl", urls[0])
	}

	cat, err := h.Svc.UpdateCategory(ctx, id, v)
	if err != nil {
		discardUploads(h.Files, urls)
		return fail(l, "update_category_error", err, "cannot update category")
	}

	l.Info("update_category_success", "category_id", id)
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("delete_category_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return fail(l, "delete_category_error", err, "cannot delete category")
	}

	l.Info("delete_category_success", "category_id", id)
	return c.NoContent(http.StatusNoContent)
}

type subCategoryRequest struct {
	Name string `json:"name" form:"name"`
}

func (h *CatalogHTTP) AddSubCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.add_sub")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("add_subcategory_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	var req subCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_subcategory_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}

	sub, err := h.Svc.AddSubCategory(ctx, id, req.Name)
	if err != nil {
		return fail(l, "add_subcategory_error", err, "cannot add subcategory")
	}

	l.Info("add_subcategory_success", "category_id", id, "subcategory_id", sub.ID)
	return c.JSON(http.StatusCreated, sub)
}

func (h *CatalogHTTP) DeleteSubCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete_sub")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("delete_subcategory_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	subID, err := parseID(c, "subId")
	if err != nil {
		l.Warn("delete_subcategory_error", "status", 400, "reason", "bad subId", "error", err)
		return badRequest(err.Error())
	}
	if err := h.Svc.DeleteSubCategory(ctx, id, subID); err != nil {
		return fail(l, "delete_subcategory_error", err, "cannot delete subcategory")
	}

	l.Info("delete_subcategory_success", "category_id", id, "subcategory_id", subID)
	return c.NoContent(http.StatusNoContent)
}

// Products

func (h *CatalogHTTP) GetAllProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_all")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)
	f := repo.ProductFilter{
		CategoryID:    util.ParseUint(c.QueryParam("categoryId")),
		SubCategoryID: util.ParseUint(c.QueryParam("subCategoryId")),
	}

	total, items, err := h.Svc.ListProducts(ctx, f, offset, limit)
	if err != nil {
		return fail(l, "get_products_error", err, "cannot load products")
	}

	l.Info("get_products_success")
	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.Meta(page, offset, limit, total),
	})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("get_product_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err, "cannot get product")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	res, err := h.Svc.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		return fail(l, "search_products_error", err, "search failed")
	}

	l.Info("search_products_success", "q", q, "total", res.Total)
	return c.JSON(http.StatusOK, map[string]any{
		"data": res.Items,
		"meta": util.Meta(page, offset, limit, res.Total),
	})
}

func (h *CatalogHTTP) AddProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.add")

	v, err := readValues(c)
	if err != nil {
		l.Warn("add_product_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	urls, err := saveUploads(c, h.Files, "images")
	if err != nil {
		return fail(l, "add_product_error", err, "cannot store images")
	}
	v["images"] = append(v["images"], urls...)

	p, err := h.Svc.CreateProduct(ctx, v)
	if err != nil {
		discardUploads(h.Files, urls)
		return fail(l, "add_product_error", err, "cannot add product")
	}

	l.Info("add_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("update_product_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	v, err := readValues(c)
	if err != nil {
		l.Warn("update_product_error", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	urls, err := saveUploads(c, h.Files, "images")
	if err != nil {
		return fail(l, "update_product_error", err, "cannot store images")
	}
	if len(urls) > 0 {
		v["images"] = append(v["images"], urls...)
	}

	var previous []string
	if old, err := h.Svc.GetProduct(ctx, id); err == nil {
		previous = old.Images
	}
	p, err := h.Svc.UpdateProduct(ctx, id, v)
	if err != nil {
		discardUploads(h.Files, urls)
		return fail(l, "update_product_error", err, "cannot update product")
	}
	discardUploads(h.Files, dropped(previous, p.Images))

	l.Info("update_product_success", "product_id", id)
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("delete_product_error", "status", 400, "reason", "bad id", "error", err)
		return badRequest(err.Error())
	}
	p, err := h.Svc.DeleteProduct(ctx, id)
	if err != nil {
		return fail(l, "delete_product_error", err, "cannot delete product")
	}
	discardUploads(h.Files, p.Images)

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) ExportProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.export")

	var buf bytes.Buffer
	if err := h.Svc.ExportProducts(ctx, &buf); err != nil {
		return fail(l, "export_products_error", err, "cannot export products")
	}

	l.Info("export_products_success", "bytes", buf.Len())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.xlsx"`)
	return c.Blob(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}

// dropped returns the entries of before that are missing from after.
func dropped(before, after []string) []string {
	keep := make(map[string]struct{}, len(after))
	for _, s := range after {
		keep[s] = struct{}{}
	}
	var out []string
	for _, s := range before {
		if _, ok := keep[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
