package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tracking"
)

func checkoutBody() echo.Map {
	return echo.Map{
		"fullName":      "Jane Doe",
		"phoneNumber":   123456789,
		"address":       "12 Main Street",
		"city":          "Lahore",
		"paymentMethod": "cashondelivery",
	}
}

func TestCart_GuestCartMergedAtLogin(t *testing.T) {
	s := newTestServer(t)
	cat := s.seedMen(t)
	p := s.seedProduct(t, cat, "Red Shirt", 10)

	guest := withGuest("b7f7c7a2")
	rec := s.do(t, http.MethodPost, "/api/Cart/Add", echo.Map{"productId": p.ID, "size": "m", "quantity": 2}, guest)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view cartView
	decode(t, rec, &view)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "M", view.Items[0].Size)
	assert.Equal(t, "Red", view.Items[0].Color)
	assert.Equal(t, "3000.00", view.Total)

	rec = s.do(t, http.MethodGet, "/api/Cart", nil)
	decode(t, rec, &view)
	assert.Empty(t, view.Items, "anonymous cart is separate from the guest cart")

	rec = s.do(t, http.MethodPost, "/api/Cart/Add", echo.Map{"productId": p.ID, "quantity": 1}, guest)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "size must be chosen when several exist")

	tok := s.registerAndLogin(t, "shopper@shop.test", guest)
	rec = s.do(t, http.MethodGet, "/api/Cart", nil, withToken(tok))
	decode(t, rec, &view)
	require.Len(t, view.Items, 1)
	assert.EqualValues(t, 2, view.Count)

	rec = s.do(t, http.MethodPut, "/api/Cart/Update", echo.Map{"productId": p.ID, "size": "M", "color": "Red", "quantity": 11}, withToken(tok))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/Cart/Remove?productId="+strconv.FormatUint(uint64(p.ID), 10)+"&size=S&color=Red", nil, withToken(tok))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/Cart/Clear", nil, withToken(tok))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/Cart", nil, withToken(tok))
	decode(t, rec, &view)
	assert.Empty(t, view.Items)
}

func TestCheckout_PlaceOrderTrackAndCancel(t *testing.T) {
	s := newTestServer(t)
	cat := s.seedMen(t)
	p := s.seedProduct(t, cat, "Red Shirt", 10)
	tok := s.registerAndLogin(t, "shopper@shop.test")

	rec := s.do(t, http.MethodPost, "/api/Checkout/PlaceOrder", checkoutBody(), withToken(tok))
	require.Equal(t, http.StatusBadRequest, rec.Code, "empty cart")

	rec = s.do(t, http.MethodPost, "/api/Cart/Add", echo.Map{"productId": p.ID, "size": "S", "quantity": 3}, withToken(tok))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	bad := checkoutBody()
	bad["phoneNumber"] = "12345"
	rec = s.do(t, http.MethodPost, "/api/Checkout/PlaceOrder", bad, withToken(tok))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var eb errorBody
	decode(t, rec, &eb)
	assert.Contains(t, eb.Errors, "phoneNumber")

	rec = s.do(t, http.MethodPost, "/api/Checkout/PlaceOrder", checkoutBody(), withToken(tok))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var o models.Order
	decode(t, rec, &o)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Equal(t, "CashOnDelivery", o.PaymentMethod)
	assert.Equal(t, "4500", o.Subtotal.String())
	assert.Equal(t, "250", o.ShippingCost.String())
	assert.Equal(t, "4750", o.Total.String())

	stored, err := s.repo.GetProduct(t.Context(), p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 7, stored.StockQuantity)

	var view cartView
	decode(t, s.do(t, http.MethodGet, "/api/Cart", nil, withToken(tok)), &view)
	assert.Empty(t, view.Items)

	id := strconv.FormatUint(uint64(o.ID), 10)
	other := s.registerAndLogin(t, "other@shop.test")
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/Orders/"+id, nil, withToken(other)).Code)

	rec = s.do(t, http.MethodPut, "/api/Orders/"+id+"/status", echo.Map{"status": "confirmed", "note": "packed"}, withToken(s.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/Orders/"+id+"/tracking", nil, withToken(tok))
	require.Equal(t, http.StatusOK, rec.Code)
	var tr service.Tracking
	decode(t, rec, &tr)
	require.Len(t, tr.Steps, len(models.OrderFlow))
	assert.True(t, tr.Steps[0].Completed)
	assert.True(t, tr.Steps[1].Current)
	assert.False(t, tr.Steps[2].Completed)

	rec = s.do(t, http.MethodPost, "/api/Orders/"+id+"/cancel", echo.Map{"reason": "changed my mind"}, withToken(tok))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored, err = s.repo.GetProduct(t.Context(), p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, stored.StockQuantity)

	rec = s.do(t, http.MethodPut, "/api/Orders/"+id+"/status", echo.Map{"status": "Shipped"}, withToken(s.admin))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var mine struct {
		Data []models.Order `json:"data"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/Orders/my", nil, withToken(tok)), &mine)
	require.Len(t, mine.Data, 1)
	assert.Equal(t, models.OrderStatusCancelled, mine.Data[0].Status)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/Orders", nil, withToken(tok)).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/Orders?status=Cancelled", nil, withToken(s.admin)).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/Orders?status=Lost", nil, withToken(s.admin)).Code)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	s := newTestServer(t)
	cat := s.seedMen(t)
	p := s.seedProduct(t, cat, "Red Shirt", 2)
	tok := s.registerAndLogin(t, "shopper@shop.test")

	body := checkoutBody()
	body["items"] = []echo.Map{{"productId": p.ID, "name": p.Name, "size": "S", "color": "Red", "quantity": 5, "price": "1500"}}
	rec := s.do(t, http.MethodPost, "/api/Checkout/PlaceOrder", body, withToken(tok))
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestCheckout_ExplicitItemsPricedFromCatalog(t *testing.T) {
	s := newTestServer(t)
	cat := s.seedMen(t)
	p := s.seedProduct(t, cat, "Red Shirt", 5)
	tok := s.registerAndLogin(t, "shopper@shop.test")

	body := checkoutBody()
	body["items"] = []echo.Map{{"productId": p.ID, "name": "Gift", "size": "XL", "quantity": 1, "price": "0"}}
	rec := s.do(t, http.MethodPost, "/api/Checkout/PlaceOrder", body, withToken(tok))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	body["items"] = []echo.Map{{"productId": p.ID, "name": "Gift", "size": "S", "quantity": 2, "price": "0"}}
	rec = s.do(t, http.MethodPost, "/api/Checkout/PlaceOrder", body, withToken(tok))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var o models.Order
	decode(t, rec, &o)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Red Shirt", o.Items[0].Name)
	assert.Equal(t, "1500", o.Items[0].UnitPrice.String())
	assert.Equal(t, "3000", o.Subtotal.String())
	assert.Equal(t, "3250", o.Total.String())
}

func TestOrders_LiveTracking(t *testing.T) {
	s := newTestServer(t)
	cat := s.seedMen(t)
	p := s.seedProduct(t, cat, "Red Shirt", 10)
	tok := s.registerAndLogin(t, "shopper@shop.test")

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/Cart/Add",
		echo.Map{"productId": p.ID, "size": "S"}, withToken(tok)).Code)
	rec := s.do(t, http.MethodPost, "/api/Checkout/PlaceOrder", checkoutBody(), withToken(tok))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var o models.Order
	decode(t, rec, &o)
	id := strconv.FormatUint(uint64(o.ID), 10)

	srv := httptest.NewServer(s.e)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/Orders/" + id + "/ws?token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var u tracking.Update
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&u))
	assert.Equal(t, models.OrderStatusPending, u.Status)

	require.Eventually(t, func() bool { return s.hub.Subscribers(o.ID) == 1 }, 2*time.Second, 10*time.Millisecond)
	rec = s.do(t, http.MethodPut, "/api/Orders/"+id+"/status", echo.Map{"status": "Shipped"}, withToken(s.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, conn.ReadJSON(&u))
	assert.Equal(t, models.OrderStatusShipped, u.Status)
	assert.Equal(t, o.Reference, u.Reference)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/Orders/"+id+"/ws", nil)
	assert.Error(t, err, "token is required")
}
