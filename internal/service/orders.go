package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/forms"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/tracking"
)

var (
	FreeShippingFrom = decimal.NewFromInt(5000)
	ShippingFee      = decimal.NewFromInt(250)
)

// Notifier receives order status changes for live tracking.
type Notifier interface {
	Publish(u tracking.Update)
}

type OrderService struct {
	Repo     *repo.GormRepo
	Carts    *cart.Store
	Events   events.Publisher
	Notifier Notifier
	Now      func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingFrom) {
		return decimal.Zero
	}
	return ShippingFee
}

func NewReference(at time.Time) string {
	return at.Format("20060102150405") + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

type PlaceOrderRequest struct {
	Owner  string
	Values forms.Values
	// Items overrides the stored cart when non-empty. Only product, size, color
	// and quantity are taken from them; everything else comes from the catalog.
	Items []cart.Item
}

// PlaceOrder turns the caller's cart into an order. Stock is reserved in the
// same transaction; the cart is cleared only after the order is stored.
func (s *OrderService) PlaceOrder(ctx context.Context, actor Actor, req PlaceOrderRequest) (*models.Order, error) {
	req.Values = req.Values.Trimmed()
	if err := forms.Checkout.Validate(req.Values); err != nil {
		return nil, invalid(err)
	}

	var items []cart.Item
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, invalidf("invalid line for product %d", it.ProductID)
		}
		line, _, err := snapshot(ctx, s.Repo, it.ProductID, it.Size, it.Color, it.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, line)
	}
	if len(req.Items) == 0 {
		c, err := s.Carts.Get(ctx, req.Owner)
		if err != nil {
			return nil, err
		}
		items = c.Items
	}
	if len(items) == 0 {
		return nil, invalidf("cart is empty")
	}

	order := &models.Order{
		UserID:        actor.UserID,
		FullName:      strings.TrimSpace(req.Values.Get("fullName")),
		PhoneNumber:   strings.TrimSpace(req.Values.Get("phoneNumber")),
		Address:       strings.TrimSpace(req.Values.Get("address")),
		City:          strings.TrimSpace(req.Values.Get("city")),
		PaymentMethod: req.Values.Get("paymentMethod"),
		Status:        models.OrderStatusPending,
	}
	for _, m := range forms.PaymentMethods {
		if strings.EqualFold(m, order.PaymentMethod) {
			order.PaymentMethod = m
		}
	}

	subtotal := decimal.Zero
	for _, it := range items {
		if it.ProductID == 0 || it.Quantity < 1 {
			return nil, invalidf("invalid line for product %d", it.ProductID)
		}
		if it.Price.IsNegative() {
			return nil, invalidf("invalid price for product %d", it.ProductID)
		}
		line := it.LineTotal()
		subtotal = subtotal.Add(line)
		order.Items = append(order.Items, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			ImageURL:  it.ImageURL,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			LineTotal: line,
		})
	}
	order.Subtotal = subtotal
	order.ShippingCost = ShippingFor(subtotal)
	order.Total = subtotal.Add(order.ShippingCost)

	now := s.now()
	order.Reference = NewReference(now)
	order.History = []models.OrderStatusEvent{{Status: models.OrderStatusPending, Note: "order placed"}}

	if err := s.Repo.PlaceOrder(ctx, order); err != nil {
		var se *repo.StockError
		if errors.As(err, &se) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return nil, notFound(err, "product")
	}

	if len(req.Items) == 0 {
		if err := s.Carts.Clear(ctx, req.Owner); err != nil {
			return nil, err
		}
	}

	publish(ctx, s.Events, events.TopicOrders, order.Reference, events.Event{
		"type":      "order_placed",
		"orderID":   order.ID,
		"reference": order.Reference,
		"userID":    order.UserID,
		"total":     order.Total.String(),
	})
	s.notify(order, "order placed")
	return order, nil
}

func (s *OrderService) notify(o *models.Order, note string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Publish(tracking.Update{
		OrderID:   o.ID,
		Reference: o.Reference,
		Status:    o.Status,
		Note:      note,
		At:        s.now(),
	})
}

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if !actor.Owns(o.UserID) {
		return nil, fmt.Errorf("order %d: %w", id, ErrForbidden)
	}
	return o, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, actor Actor, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, actor.UserID, offset, limit)
}

func (s *OrderService) ListOrders(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	st, err := parseOrderStatus(status, true)
	if err != nil {
		return 0, nil, err
	}
	return s.Repo.ListOrders(ctx, st, offset, limit)
}

func parseOrderStatus(raw string, allowEmpty bool) (models.OrderStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" && allowEmpty {
		return "", nil
	}
	if strings.EqualFold(raw, string(models.OrderStatusCancelled)) {
		return models.OrderStatusCancelled, nil
	}
	for _, st := range models.OrderFlow {
		if strings.EqualFold(string(st), raw) {
			return st, nil
		}
	}
	return "", invalidf("unknown order status %q", raw)
}

func flowIndex(st models.OrderStatus) int {
	for i, f := range models.OrderFlow {
		if f == st {
			return i
		}
	}
	return -1
}

// CanTransition allows forward moves along the flow and cancellation before shipping.
func CanTransition(from, to models.OrderStatus) bool {
	if to == models.OrderStatusCancelled {
		return from == models.OrderStatusPending || from == models.OrderStatusConfirmed
	}
	fi, ti := flowIndex(from), flowIndex(to)
	return fi >= 0 && ti > fi
}

func (s *OrderService) transition(ctx context.Context, o *models.Order, to models.OrderStatus, note string) (*models.Order, error) {
	if !CanTransition(o.Status, to) {
		return nil, fmt.Errorf("order %d cannot move from %s to %s: %w", o.ID, o.Status, to, ErrConflict)
	}
	updated, err := s.Repo.TransitionOrder(ctx, o.ID, o.Status, to, note, to == models.OrderStatusCancelled)
	if errors.Is(err, repo.ErrStaleStatus) {
		return nil, fmt.Errorf("order %d: %w: %w", o.ID, ErrConflict, err)
	}
	if err != nil {
		return nil, notFound(err, "order")
	}

	publish(ctx, s.Events, events.TopicOrders, updated.Reference, events.Event{
		"type":      "order_status_changed",
		"orderID":   updated.ID,
		"reference": updated.Reference,
		"from":      string(o.Status),
		"status":    string(to),
	})
	s.notify(updated, note)
	return updated, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status, note string) (*models.Order, error) {
	to, err := parseOrderStatus(status, false)
	if err != nil {
		return nil, err
	}
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return s.transition(ctx, o, to, strings.TrimSpace(note))
}

// Cancel lets a customer cancel an order that has not shipped yet.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, id uint, reason string) (*models.Order, error) {
	o, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	note := strings.TrimSpace(reason)
	if note == "" {
		note = "cancelled by customer"
	}
	return s.transition(ctx, o, models.OrderStatusCancelled, note)
}

type TrackingStep struct {
	Status    models.OrderStatus `json:"status"`
	Completed bool               `json:"completed"`
	Current   bool               `json:"current"`
	At        *time.Time         `json:"at,omitempty"`
}

type Tracking struct {
	OrderID   uint                      `json:"orderId"`
	Reference string                    `json:"reference"`
	Status    models.OrderStatus        `json:"status"`
	Cancelled bool                      `json:"cancelled"`
	Steps     []TrackingStep            `json:"steps"`
	History   []models.OrderStatusEvent `json:"history"`
}

func BuildTracking(o *models.Order) Tracking {
	reached := map[models.OrderStatus]time.Time{}
	for _, ev := range o.History {
		if _, ok := reached[ev.Status]; !ok {
			reached[ev.Status] = ev.CreatedAt
		}
	}
	cur := flowIndex(o.Status)
	if o.Status == models.OrderStatusCancelled {
		cur = -1
		for i, st := range models.OrderFlow {
			if _, ok := reached[st]; ok {
				cur = i
			}
		}
	}

	t := Tracking{
		OrderID:   o.ID,
		Reference: o.Reference,
		Status:    o.Status,
		Cancelled: o.Status == models.OrderStatusCancelled,
		History:   o.History,
	}
	for i, st := range models.OrderFlow {
		step := TrackingStep{Status: st, Completed: i <= cur, Current: i == cur && !t.Cancelled}
		if at, ok := reached[st]; ok {
			at := at
			step.At = &at
		}
		t.Steps = append(t.Steps, step)
	}
	return t
}

func (s *OrderService) Tracking(ctx context.Context, actor Actor, id uint) (Tracking, error) {
	o, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return Tracking{}, err
	}
	return BuildTracking(o), nil
}
