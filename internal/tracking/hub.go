// Package tracking fans order status changes out to websocket subscribers.
package tracking

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	bufferSize = 8
)

type Update struct {
	OrderID   uint               `json:"orderId"`
	Reference string             `json:"reference"`
	Status    models.OrderStatus `json:"status"`
	Note      string             `json:"note,omitempty"`
	At        time.Time          `json:"at"`
}

type subscriber struct {
	ch chan Update
}

type Hub struct {
	mu   sync.RWMutex
	subs map[uint]map[*subscriber]struct{}

	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHub accepts websocket upgrades from the given origins; none means any origin.
func NewHub(log *slog.Logger, origins []string) *Hub {
	h := &Hub{
		subs: make(map[uint]map[*subscriber]struct{}),
		log:  log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range origins {
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}
	return h
}

// Subscribe registers interest in one order. The returned func must be called to unsubscribe.
func (h *Hub) Subscribe(orderID uint) (<-chan Update, func()) {
	s := &subscriber{ch: make(chan Update, bufferSize)}

	h.mu.Lock()
	set, ok := h.subs[orderID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[orderID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[orderID], s)
			if len(h.subs[orderID]) == 0 {
				delete(h.subs, orderID)
			}
			h.mu.Unlock()
		})
	}
}

// Publish never blocks; a subscriber whose buffer is full misses the update.
func (h *Hub) Publish(u Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[u.OrderID] {
		select {
		case s.ch <- u:
		default:
			h.log.Warn("tracking_update_dropped", "order_id", u.OrderID, "status", u.Status)
		}
	}
}

func (h *Hub) Subscribers(orderID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[orderID])
}

// Serve upgrades the request and streams updates for orderID until the client goes away.
// initial, when non-nil, is written first.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, orderID uint, initial *Update) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	updates, unsubscribe := h.Subscribe(orderID)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if initial != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(initial); err != nil {
			return nil
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case u := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(u); err != nil {
				h.log.Debug("tracking_write_failed", "order_id", orderID, "error", err)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}
