package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

// deliveredOrder places an order for one Red Shirt and marks it delivered.
func (s *testServer) deliveredOrder(t *testing.T, tok string) (models.Order, models.Product) {
	t.Helper()
	cat := s.seedMen(t)
	p := s.seedProduct(t, cat, "Red Shirt", 10)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/Cart/Add",
		echo.Map{"productId": p.ID, "size": "S"}, withToken(tok)).Code)
	rec := s.do(t, http.MethodPost, "/api/Checkout/PlaceOrder", checkoutBody(), withToken(tok))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var o models.Order
	decode(t, rec, &o)
	rec = s.do(t, http.MethodPut, "/api/Orders/"+strconv.FormatUint(uint64(o.ID), 10)+"/status",
		echo.Map{"status": "Delivered"}, withToken(s.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return o, p
}

func TestReturns_SubmitAndReview(t *testing.T) {
	s := newTestServer(t)
	tok := s.registerAndLogin(t, "shopper@shop.test")
	o, p := s.deliveredOrder(t, tok)
	orderID := strconv.FormatUint(uint64(o.ID), 10)
	productID := strconv.FormatUint(uint64(p.ID), 10)

	body := echo.Map{
		"orderId":       o.ID,
		"productId":     p.ID,
		"reason":        "damaged",
		"condition":     "Used",
		"description":   "torn seam",
		"termsAccepted": false,
	}
	rec := s.do(t, http.MethodPost, "/api/ReturnRequest/submit", body, withToken(tok))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var eb errorBody
	decode(t, rec, &eb)
	assert.NotEmpty(t, eb.Errors)

	mp, ct := multipartBody(t, map[string][]string{
		"orderId":       {orderID},
		"productId":     {productID},
		"reason":        {"Damaged"},
		"condition":     {"Used"},
		"termsAccepted": {"true"},
	}, "image", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/ReturnRequest/submit", mp)
	req.Header.Set(echo.HeaderContentType, ct)
	withToken(tok)(req)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rr models.ReturnRequest
	decode(t, rec, &rr)
	assert.Equal(t, models.ReturnStatusPending, rr.Status)
	assert.True(t, strings.HasPrefix(rr.ImageURL, "/uploads/"))

	body["termsAccepted"] = true
	rec = s.do(t, http.MethodPost, "/api/ReturnRequest/submit", body, withToken(tok))
	assert.Equal(t, http.StatusConflict, rec.Code, "one open request per order line")

	var mine []models.ReturnRequest
	decode(t, s.do(t, http.MethodGet, "/api/ReturnRequest/my", nil, withToken(tok)), &mine)
	require.Len(t, mine, 1)
	decode(t, s.do(t, http.MethodGet, "/api/ReturnRequest/by-order/"+orderID, nil, withToken(tok)), &mine)
	require.Len(t, mine, 1)

	other := s.registerAndLogin(t, "other@shop.test")
	assert.Equal(t, http.StatusForbidden,
		s.do(t, http.MethodGet, "/api/ReturnRequest/by-order/"+orderID, nil, withToken(other)).Code)
	assert.Equal(t, http.StatusForbidden,
		s.do(t, http.MethodGet, "/api/ReturnRequest/all", nil, withToken(tok)).Code)

	path := "/api/ReturnRequest/" + strconv.FormatUint(uint64(rr.ID), 10) + "/status"
	rec = s.do(t, http.MethodPut, path, echo.Map{"status": "Approved", "note": "refund issued"}, withToken(s.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPut, path, echo.Map{"status": "Rejected"}, withToken(s.admin))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var all struct {
		Data []models.ReturnRequest `json:"data"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/ReturnRequest/all?status=Approved", nil, withToken(s.admin)), &all)
	require.Len(t, all.Data, 1)
	assert.Equal(t, "refund issued", all.Data[0].AdminNote)
}

func TestWishlistAndReviews(t *testing.T) {
	s := newTestServer(t)
	cat := s.seedMen(t)
	p := s.seedProduct(t, cat, "Red Shirt", 10)
	tok := s.registerAndLogin(t, "shopper@shop.test")
	pid := strconv.FormatUint(uint64(p.ID), 10)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/Wishlist/Get", nil).Code)
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/Wishlist/Add", echo.Map{"productId": p.ID}, withToken(tok)).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/Wishlist/Add", echo.Map{"productId": p.ID}, withToken(tok)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/Wishlist/Add", echo.Map{"productId": 999}, withToken(tok)).Code)

	var list []models.Product
	decode(t, s.do(t, http.MethodGet, "/api/Wishlist/Get", nil, withToken(tok)), &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Red Shirt", list[0].Name)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/Wishlist/Remove/"+pid, nil, withToken(tok)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/Wishlist/Remove/"+pid, nil, withToken(tok)).Code)

	rec := s.do(t, http.MethodPost, "/api/ProductReview", echo.Map{"productId": p.ID, "rating": 6}, withToken(tok))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/ProductReview", echo.Map{"productId": p.ID, "rating": 4, "comment": "fits well"}, withToken(tok))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/ProductReview", echo.Map{"productId": p.ID, "rating": 5}, withToken(tok))
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/ProductReview", echo.Map{"productId": p.ID, "rating": 2}, withToken(s.admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reviews struct {
		Average float64                `json:"average"`
		Count   int64                  `json:"count"`
		Reviews []models.ProductReview `json:"reviews"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/ProductReview/product/"+pid, nil), &reviews)
	assert.EqualValues(t, 2, reviews.Count)
	assert.InDelta(t, 3.0, reviews.Average, 0.001)
	require.Len(t, reviews.Reviews, 2)
}

func TestUsers_AdminManagement(t *testing.T) {
	s := newTestServer(t)
	tok := s.registerAndLogin(t, "shopper@shop.test")

	rec := s.do(t, http.MethodPost, "/api/Users/register", echo.Map{
		"fullName": "Jane Again", "email": "SHOPPER@shop.test", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/Users/login", echo.Map{"email": "shopper@shop.test", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var me models.User
	decode(t, s.do(t, http.MethodGet, "/api/Users/me", nil, withToken(tok)), &me)
	assert.Equal(t, "shopper@shop.test", me.Email)
	assert.Equal(t, models.RoleUser, me.Role)
	assert.NotContains(t, s.do(t, http.MethodGet, "/api/Users/me", nil, withToken(tok)).Body.String(), "password")

	id := strconv.FormatUint(uint64(me.ID), 10)
	rec = s.do(t, http.MethodPut, "/api/Users/"+id, echo.Map{"role": "admin", "phoneNumber": "987654321"}, withToken(s.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var users struct {
		Data []models.User `json:"data"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/Users", nil, withToken(s.admin)), &users)
	assert.Len(t, users.Data, 2)

	var adminUser models.User
	decode(t, s.do(t, http.MethodGet, "/api/Users/me", nil, withToken(s.admin)), &adminUser)
	self := strconv.FormatUint(uint64(adminUser.ID), 10)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodDelete, "/api/Users/"+self, nil, withToken(s.admin)).Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/Users/"+id, nil, withToken(s.admin)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/Users/"+id, nil, withToken(s.admin)).Code)

	rec = s.do(t, http.MethodPost, "/api/Users/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "accessToken=")
}

func TestAdminRoutes_UseStoredRole(t *testing.T) {
	s := newTestServer(t)
	tok := s.registerAndLogin(t, "staff@shop.test")
	var me models.User
	decode(t, s.do(t, http.MethodGet, "/api/Users/me", nil, withToken(tok)), &me)
	id := strconv.FormatUint(uint64(me.ID), 10)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/Users", nil, withToken(tok)).Code)

	rec := s.do(t, http.MethodPut, "/api/Users/"+id, echo.Map{"role": "admin"}, withToken(s.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	adminTok := s.login(t, "staff@shop.test", "secret123")
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/Users", nil, withToken(adminTok)).Code)

	rec = s.do(t, http.MethodPut, "/api/Users/"+id, echo.Map{"role": "user"}, withToken(s.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/Users", nil, withToken(adminTok)).Code)
	assert.Equal(t, http.StatusForbidden,
		s.do(t, http.MethodPost, "/api/Categories", echo.Map{"name": "Kids"}, withToken(adminTok)).Code)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/Users/"+id, nil, withToken(s.admin)).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/Users", nil, withToken(adminTok)).Code)
}
