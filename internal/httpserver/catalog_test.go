package httpserver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/Skotchmaster/storefront/internal/export"
	"github.com/Skotchmaster/storefront/internal/models"
)

func TestAddProduct_MultipartThenListedFirst(t *testing.T) {
	s := newTestServer(t)
	cat := s.seedMen(t)
	s.seedProduct(t, cat, "Blue Jeans", 3)

	body, ct := multipartBody(t, map[string][]string{
		"name":          {"Red Shirt"},
		"description":   {"Cotton tee"},
		"categoryId":    {strconv.FormatUint(uint64(cat.ID), 10)},
		"subCategoryId": {strconv.FormatUint(uint64(cat.SubCategories[0].ID), 10)},
		"price":         {"1500"},
		"stockQuantity": {"10"},
		"sizes":         {"S", "M"},
		"colors":        {"Red"},
	}, "images", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/Product/Addproduct", body)
	req.Header.Set(echo.HeaderContentType, ct)
	withToken(s.admin)(req)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Product
	decode(t, rec, &created)
	require.Len(t, created.Images, 1)
	assert.True(t, strings.HasPrefix(created.Images[0], "/uploads/"))
	assert.True(t, strings.HasSuffix(created.Images[0], ".png"))
	_, err := os.Stat(filepath.Join(s.files.Dir, filepath.Base(created.Images[0])))
	require.NoError(t, err)

	rec = s.do(t, http.MethodGet, "/api/Product/GetAllProducts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data []models.Product `json:"data"`
		Meta map[string]any   `json:"meta"`
	}
	decode(t, rec, &page)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Red Shirt", page.Data[0].Name)
	assert.Equal(t, "1500", page.Data[0].Price.String())
	assert.EqualValues(t, 10, page.Data[0].StockQuantity)
	assert.EqualValues(t, 2, page.Meta["total"])

	assert.Contains(t, s.events.Types("product_events"), "product_created")
}

func TestAddProduct_RejectsBadInputAndKeepsNoFiles(t *testing.T) {
	s := newTestServer(t)
	cat := s.seedMen(t)

	body, ct := multipartBody(t, map[string][]string{
		"name":          {"Red Shirt"},
		"categoryId":    {strconv.FormatUint(uint64(cat.ID), 10)},
		"subCategoryId": {strconv.FormatUint(uint64(cat.SubCategories[0].ID), 10)},
		"price":         {"-5"},
		"stockQuantity": {"ten"},
	}, "images", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/Product/Addproduct", body)
	req.Header.Set(echo.HeaderContentType, ct)
	withToken(s.admin)(req)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	var eb errorBody
	decode(t, rec, &eb)
	assert.Contains(t, eb.Errors, "price")
	assert.Contains(t, eb.Errors, "stockQuantity")

	entries, err := os.ReadDir(s.files.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAddProduct_RequiresImage(t *testing.T) {
	s := newTestServer(t)
	cat := s.seedMen(t)

	rec := s.do(t, http.MethodPost, "/api/Product/Addproduct", echo.Map{
		"name":          "Red Shirt",
		"categoryId":    cat.ID,
		"subCategoryId": cat.SubCategories[0].ID,
		"price":         1500,
		"stockQuantity": 10,
	}, withToken(s.admin))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var eb errorBody
	decode(t, rec, &eb)
	assert.Contains(t, eb.Errors, "images")
}

func TestAddProduct_PaddedNumbers(t *testing.T) {
	s := newTestServer(t)
	cat := s.seedMen(t)

	rec := s.do(t, http.MethodPost, "/api/Product/Addproduct", echo.Map{
		"name":          "Red Shirt",
		"categoryId":    " " + strconv.FormatUint(uint64(cat.ID), 10),
		"subCategoryId": cat.SubCategories[0].ID,
		"price":         " 1500",
		"stockQuantity": "10 ",
		"images":        []string{"/uploads/seed.jpg"},
	}, withToken(s.admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p models.Product
	decode(t, rec, &p)
	assert.Equal(t, "1500", p.Price.String())
	assert.EqualValues(t, 10, p.StockQuantity)
}

func TestAdminRoutes_Guarded(t *testing.T) {
	s := newTestServer(t)
	user := s.registerAndLogin(t, "shopper@shop.test")

	rec := s.do(t, http.MethodPost, "/api/Categories", echo.Map{"name": "Kids"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/Categories", echo.Map{"name": "Kids"}, withToken(user))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/Product/export", nil, withToken(user))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCategories_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	cat := s.seedMen(t)

	rec := s.do(t, http.MethodPost, "/api/Categories", echo.Map{"name": "men"}, withToken(s.admin))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/Categories", echo.Map{"name": "K"}, withToken(s.admin))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var eb errorBody
	decode(t, rec, &eb)
	assert.Contains(t, eb.Errors, "name")

	path := "/api/Categories/" + strconv.FormatUint(uint64(cat.ID), 10)
	rec = s.do(t, http.MethodPost, path+"/SubCategories", echo.Map{"name": "t-shirts"}, withToken(s.admin))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, path+"/SubCategories", echo.Map{"name": "Shorts"}, withToken(s.admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, path, echo.Map{"description": "All menswear"}, withToken(s.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/Categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []models.Category
	decode(t, rec, &cats)
	require.Len(t, cats, 1)
	assert.Equal(t, "All menswear", cats[0].Description)
	assert.Len(t, cats[0].SubCategories, 3)

	s.seedProduct(t, cat, "Red Shirt", 1)
	rec = s.do(t, http.MethodDelete, path, nil, withToken(s.admin))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProducts_UpdateDeleteSearchExport(t *testing.T) {
	s := newTestServer(t)
	cat := s.seedMen(t)
	p := s.seedProduct(t, cat, "Red Shirt", 5)
	id := strconv.FormatUint(uint64(p.ID), 10)

	rec := s.do(t, http.MethodPut, "/api/Product/UpdateProduct/"+id, echo.Map{"price": "1999.90"}, withToken(s.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Product
	decode(t, rec, &updated)
	assert.Equal(t, "1999.9", updated.Price.String())
	assert.Equal(t, "Red Shirt", updated.Name)

	rec = s.do(t, http.MethodGet, "/api/Product/search?q=red", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found struct {
		Data []models.Product `json:"data"`
	}
	decode(t, rec, &found)
	require.Len(t, found.Data, 1)

	rec = s.do(t, http.MethodGet, "/api/Product/export", nil, withToken(s.admin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get(echo.HeaderContentType))
	wb, err := xlsx.OpenBinary(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, wb.Sheets[0].Rows, 2)

	rec = s.do(t, http.MethodDelete, "/api/Product/DeleteProduct/"+id, nil, withToken(s.admin))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/Product/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/Product/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
