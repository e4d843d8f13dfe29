package tracking

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

func TestHub_SubscribePublish(t *testing.T) {
	h := NewHub(logging.Discard(), nil)

	ch, cancel := h.Subscribe(1)
	other, cancelOther := h.Subscribe(2)
	defer cancelOther()
	require.Equal(t, 1, h.Subscribers(1))

	h.Publish(Update{OrderID: 1, Status: models.OrderStatusShipped})

	select {
	case u := <-ch:
		assert.Equal(t, models.OrderStatusShipped, u.Status)
	case <-time.After(time.Second):
		t.Fatal("no update")
	}
	select {
	case <-other:
		t.Fatal("order 2 must not receive order 1 updates")
	default:
	}

	cancel()
	cancel()
	assert.Zero(t, h.Subscribers(1))
}

func TestHub_PublishDoesNotBlock(t *testing.T) {
	h := NewHub(logging.Discard(), nil)
	_, cancel := h.Subscribe(5)
	defer cancel()

	for i := 0; i < bufferSize*3; i++ {
		h.Publish(Update{OrderID: 5, Status: models.OrderStatusConfirmed})
	}
}

func TestHub_Serve(t *testing.T) {
	h := NewHub(logging.Discard(), nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, 9, &Update{OrderID: 9, Status: models.OrderStatusPending})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first Update
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, models.OrderStatusPending, first.Status)

	h.Publish(Update{OrderID: 9, Status: models.OrderStatusShipped, Note: "left warehouse"})

	var next Update
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, models.OrderStatusShipped, next.Status)
	assert.Equal(t, "left warehouse", next.Note)

	conn.Close()
	require.Eventually(t, func() bool { return h.Subscribers(9) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	h := NewHub(logging.Discard(), []string{"http://shop.example"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, 1, nil)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
