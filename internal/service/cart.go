package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type CartService struct {
	Repo  *repo.GormRepo
	Carts *cart.Store
}

type AddToCartRequest struct {
	ProductID uint   `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  uint   `json:"quantity"`
}

func (s *CartService) Get(ctx context.Context, owner string) (*cart.Cart, error) {
	return s.Carts.Get(ctx, owner)
}

func pickOption(options []string, value, what string) (string, error) {
	value = strings.TrimSpace(value)
	if len(options) == 0 {
		return value, nil
	}
	if value == "" {
		if len(options) == 1 {
			return options[0], nil
		}
		return "", invalidf("%s is required", what)
	}
	for _, o := range options {
		if strings.EqualFold(o, value) {
			return o, nil
		}
	}
	return "", invalidf("%s %q is not available", what, value)
}

// snapshot resolves a requested line against the catalog: size and color must
// be offered by the product and name, image and price are copied from it.
func snapshot(ctx context.Context, r *repo.GormRepo, productID uint, size, color string, qty uint) (cart.Item, *models.Product, error) {
	if productID == 0 {
		return cart.Item{}, nil, invalidf("productId is required")
	}
	if qty == 0 {
		qty = 1
	}
	p, err := r.GetProduct(ctx, productID)
	if err != nil {
		return cart.Item{}, nil, notFound(err, "product")
	}
	if size, err = pickOption(p.Sizes, size, "size"); err != nil {
		return cart.Item{}, nil, err
	}
	if color, err = pickOption(p.Colors, color, "color"); err != nil {
		return cart.Item{}, nil, err
	}
	return cart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		ImageURL:  p.ImageURL(),
		Size:      size,
		Color:     color,
		Quantity:  qty,
		Price:     p.Price,
	}, p, nil
}

// unitsInCart counts every unit of productID across sizes and colors,
// leaving out the line skip when given.
func unitsInCart(c *cart.Cart, productID uint, skip *cart.Key) uint {
	var n uint
	for _, it := range c.Items {
		if it.ProductID != productID || (skip != nil && it.Key() == *skip) {
			continue
		}
		n += it.Quantity
	}
	return n
}

func checkStock(p *models.Product, want uint) error {
	if want > p.StockQuantity {
		return fmt.Errorf("only %d of %q in stock: %w", p.StockQuantity, p.Name, ErrConflict)
	}
	return nil
}

// Add snapshots the product's name, image and price into the cart line.
func (s *CartService) Add(ctx context.Context, owner string, req AddToCartRequest) (*cart.Cart, error) {
	item, p, err := snapshot(ctx, s.Repo, req.ProductID, req.Size, req.Color, req.Quantity)
	if err != nil {
		return nil, err
	}

	current, err := s.Carts.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := checkStock(p, unitsInCart(current, p.ID, nil)+item.Quantity); err != nil {
		return nil, err
	}

	c, err := s.Carts.Add(ctx, owner, item)
	if errors.Is(err, cart.ErrInvalidItem) {
		return nil, invalid(err)
	}
	return c, err
}

func (s *CartService) Update(ctx context.Context, owner string, k cart.Key, qty uint) (*cart.Cart, error) {
	if qty > 0 {
		p, err := s.Repo.GetProduct(ctx, k.ProductID)
		if err != nil {
			return nil, notFound(err, "product")
		}
		current, err := s.Carts.Get(ctx, owner)
		if err != nil {
			return nil, err
		}
		if err := checkStock(p, unitsInCart(current, p.ID, &k)+qty); err != nil {
			return nil, err
		}
	}
	c, err := s.Carts.Update(ctx, owner, k, qty)
	if errors.Is(err, cart.ErrItemNotFound) {
		return nil, fmt.Errorf("cart line: %w", ErrNotFound)
	}
	return c, err
}

func (s *CartService) Remove(ctx context.Context, owner string, k cart.Key) (*cart.Cart, error) {
	c, err := s.Carts.Remove(ctx, owner, k)
	if errors.Is(err, cart.ErrItemNotFound) {
		return nil, fmt.Errorf("cart line: %w", ErrNotFound)
	}
	return c, err
}

func (s *CartService) Clear(ctx context.Context, owner string) error {
	return s.Carts.Clear(ctx, owner)
}

// Merge folds a guest cart into the signed-in user's cart.
func (s *CartService) Merge(ctx context.Context, from, to string) (*cart.Cart, error) {
	return s.Carts.Merge(ctx, from, to)
}
