// Package cart keeps shopping carts keyed by owner in a kv.Store.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidItem  = errors.New("cart: invalid item")
	ErrItemNotFound = errors.New("cart: item not found")
)

type Item struct {
	ProductID uint            `json:"productId"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageUrl"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  uint            `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	UserID    string          `json:"userId"`
}

// Key identifies a cart line; the same product in another size or color is a separate line.
type Key struct {
	ProductID uint   `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func (i Item) Key() Key {
	return Key{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	Owner string `json:"owner"`
	Items []Item `json:"items"`
}

func (c *Cart) index(k Key) int {
	for i, it := range c.Items {
		if it.Key() == k {
			return i
		}
	}
	return -1
}

// Add merges the quantity into an existing line or appends a new one.
func (c *Cart) Add(item Item) error {
	if item.ProductID == 0 || item.Quantity < 1 {
		return ErrInvalidItem
	}
	item.UserID = c.Owner
	if i := c.index(item.Key()); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		return nil
	}
	c.Items = append(c.Items, item)
	return nil
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (c *Cart) SetQuantity(k Key, qty uint) error {
	i := c.index(k)
	if i < 0 {
		return ErrItemNotFound
	}
	if qty == 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return nil
	}
	c.Items[i].Quantity = qty
	return nil
}

func (c *Cart) Remove(k Key) error {
	return c.SetQuantity(k, 0)
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Count is the number of units across all lines.
func (c *Cart) Count() uint {
	var n uint
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Empty() bool { return len(c.Items) == 0 }
