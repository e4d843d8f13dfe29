package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/forms"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type ReturnService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func canonical(options []string, v string) string {
	for _, o := range options {
		if strings.EqualFold(o, v) {
			return o
		}
	}
	return v
}

// Submit files a return request. The form, terms included, is checked before
// anything is read from storage.
func (s *ReturnService) Submit(ctx context.Context, actor Actor, v forms.Values) (*models.ReturnRequest, error) {
	v = v.Trimmed()
	if err := forms.ReturnOrder.Validate(v); err != nil {
		return nil, invalid(err)
	}
	orderID, err := parseID(v, "orderId")
	if err != nil {
		return nil, err
	}
	productID, err := parseID(v, "productId")
	if err != nil {
		return nil, err
	}

	o, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if o.UserID != actor.UserID {
		return nil, fmt.Errorf("order %d: %w", o.ID, ErrForbidden)
	}
	if o.Status != models.OrderStatusDelivered {
		return nil, fmt.Errorf("order %d is %s, only delivered orders can be returned: %w", o.ID, o.Status, ErrConflict)
	}
	found := false
	for _, it := range o.Items {
		if it.ProductID == productID {
			found = true
			break
		}
	}
	if !found {
		return nil, invalidf("product %d is not part of order %d", productID, o.ID)
	}
	open, err := s.Repo.HasOpenReturn(ctx, o.ID, productID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, fmt.Errorf("a return for this product is already pending: %w", ErrConflict)
	}

	rr := models.ReturnRequest{
		OrderID:       o.ID,
		ProductID:     productID,
		UserID:        actor.UserID,
		Reason:        canonical(forms.ReturnReasons, v.Get("reason")),
		Condition:     canonical(forms.ReturnConditions, v.Get("condition")),
		Description:   strings.TrimSpace(v.Get("description")),
		ImageURL:      strings.TrimSpace(v.Get("imageUrl")),
		TermsAccepted: true,
		Status:        models.ReturnStatusPending,
	}
	if err := s.Repo.CreateReturn(ctx, &rr); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicReturns, o.Reference, events.Event{
		"type":      "return_submitted",
		"returnID":  rr.ID,
		"orderID":   rr.OrderID,
		"productID": rr.ProductID,
		"reason":    rr.Reason,
	})
	return &rr, nil
}

func (s *ReturnService) ListAll(ctx context.Context, status string, offset, limit int) (int64, []models.ReturnRequest, error) {
	st := models.ReturnStatus("")
	if status = strings.TrimSpace(status); status != "" {
		var err error
		if st, err = parseReturnStatus(status); err != nil {
			return 0, nil, err
		}
	}
	return s.Repo.ListReturns(ctx, st, offset, limit)
}

func (s *ReturnService) ByOrder(ctx context.Context, actor Actor, orderID uint) ([]models.ReturnRequest, error) {
	o, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if !actor.Owns(o.UserID) {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrForbidden)
	}
	return s.Repo.ListReturnsByOrder(ctx, orderID)
}

func (s *ReturnService) Mine(ctx context.Context, actor Actor) ([]models.ReturnRequest, error) {
	return s.Repo.ListReturnsByUser(ctx, actor.UserID)
}

func parseReturnStatus(raw string) (models.ReturnStatus, error) {
	for _, st := range []models.ReturnStatus{models.ReturnStatusPending, models.ReturnStatusApproved, models.ReturnStatusRejected} {
		if strings.EqualFold(string(st), strings.TrimSpace(raw)) {
			return st, nil
		}
	}
	return "", invalidf("unknown return status %q", raw)
}

// SetStatus resolves a pending request; resolved requests are final.
func (s *ReturnService) SetStatus(ctx context.Context, id uint, status, note string) (*models.ReturnRequest, error) {
	to, err := parseReturnStatus(status)
	if err != nil {
		return nil, err
	}
	if to == models.ReturnStatusPending {
		return nil, invalidf("a return can only be approved or rejected")
	}
	rr, err := s.Repo.SetReturnStatus(ctx, id, models.ReturnStatusPending, to, strings.TrimSpace(note))
	if errors.Is(err, repo.ErrStaleStatus) {
		return nil, fmt.Errorf("return %d is already resolved: %w", id, ErrConflict)
	}
	if err != nil {
		return nil, notFound(err, "return request")
	}

	publish(ctx, s.Events, events.TopicReturns, strconv.FormatUint(uint64(rr.OrderID), 10), events.Event{
		"type":     "return_status_changed",
		"returnID": rr.ID,
		"status":   string(rr.Status),
	})
	return rr, nil
}
