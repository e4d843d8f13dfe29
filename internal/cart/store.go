package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/internal/kv"
)

const (
	DefaultTTL = 30 * 24 * time.Hour
	GuestOwner = "guest"
)

type Store struct {
	KV  kv.Store
	TTL time.Duration
}

func NewStore(s kv.Store) *Store {
	return &Store{KV: s, TTL: DefaultTTL}
}

func key(owner string) string {
	return "cart:" + owner
}

func (s *Store) Get(ctx context.Context, owner string) (*Cart, error) {
	if owner == "" {
		owner = GuestOwner
	}
	c := &Cart{Owner: owner, Items: []Item{}}
	raw, err := s.KV.Get(ctx, key(owner))
	if errors.Is(err, kv.ErrNotFound) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	c.Owner = owner
	if c.Items == nil {
		c.Items = []Item{}
	}
	return c, nil
}

func (s *Store) save(ctx context.Context, c *Cart) error {
	if c.Empty() {
		return s.KV.Delete(ctx, key(c.Owner))
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.KV.Set(ctx, key(c.Owner), raw, s.TTL)
}

func (s *Store) mutate(ctx context.Context, owner string, fn func(*Cart) error) (*Cart, error) {
	c, err := s.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return c, nil
}

func (s *Store) Add(ctx context.Context, owner string, item Item) (*Cart, error) {
	return s.mutate(ctx, owner, func(c *Cart) error { return c.Add(item) })
}

func (s *Store) Update(ctx context.Context, owner string, k Key, qty uint) (*Cart, error) {
	return s.mutate(ctx, owner, func(c *Cart) error { return c.SetQuantity(k, qty) })
}

func (s *Store) Remove(ctx context.Context, owner string, k Key) (*Cart, error) {
	return s.mutate(ctx, owner, func(c *Cart) error { return c.Remove(k) })
}

func (s *Store) Clear(ctx context.Context, owner string) error {
	if owner == "" {
		owner = GuestOwner
	}
	return s.KV.Delete(ctx, key(owner))
}

// Merge moves every line of the from cart into the to cart and drops from.
func (s *Store) Merge(ctx context.Context, from, to string) (*Cart, error) {
	src, err := s.Get(ctx, from)
	if err != nil {
		return nil, err
	}
	if src.Empty() || src.Owner == to {
		return s.Get(ctx, to)
	}
	c, err := s.mutate(ctx, to, func(c *Cart) error {
		for _, it := range src.Items {
			if err := c.Add(it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, s.Clear(ctx, from)
}
