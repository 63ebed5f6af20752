// Package domain holds the cart value types shared by the cart service layers.
package domain

import (
	"errors"
	"fmt"
	"slices"
)

// Product is a catalog product. Amount is only meaningful inside a Cart.
type Product struct {
	ID       int64   `json:"id"       validate:"required,min=1"`
	Title    string  `json:"title"    validate:"required"`
	Price    float64 `json:"price"    validate:"min=0"`
	ImageURL string  `json:"imageUrl"`
	Amount   int     `json:"amount"`
}

// StockInfo is the quantity of a product available for purchase, as reported by the stock service.
type StockInfo struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount" validate:"min=0"`
}

// Cart is an ordered, immutable list of products unique by ID.
// Every method that changes the cart returns a new value and leaves the receiver untouched.
type Cart struct {
	items []Product
}

// NewCart builds a cart from items. The slice is copied.
func NewCart(items ...Product) Cart {
	return Cart{items: slices.Clone(items)}
}

// Items returns a copy of the cart entries in insertion order.
func (c Cart) Items() []Product {
	if c.items == nil {
		return []Product{}
	}
	return slices.Clone(c.items)
}

// Len returns the number of distinct products in the cart.
func (c Cart) Len() int {
	return len(c.items)
}

// Find returns the entry for productID and whether it exists.
func (c Cart) Find(productID int64) (Product, bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return Product{}, false
	}
	return c.items[i], true
}

// WithAdded returns a cart with p appended. If an entry with the same ID exists it is replaced in place.
func (c Cart) WithAdded(p Product) Cart {
	items := slices.Clone(c.items)
	if i := c.indexOf(p.ID); i >= 0 {
		items[i] = p
		return Cart{items: items}
	}
	return Cart{items: append(items, p)}
}

// WithAmount returns a cart where the entry for productID has the given amount.
// The second result is false when the cart has no such entry.
func (c Cart) WithAmount(productID int64, amount int) (Cart, bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return c, false
	}
	items := slices.Clone(c.items)
	items[i].Amount = amount
	return Cart{items: items}, true
}

// Without returns a cart with the entry for productID removed.
// The second result is false when the cart has no such entry.
func (c Cart) Without(productID int64) (Cart, bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return c, false
	}
	return Cart{items: slices.Delete(slices.Clone(c.items), i, i+1)}, true
}

// Validate reports whether every entry has a positive amount and IDs are unique.
func (c Cart) Validate() error {
	seen := make(map[int64]struct{}, len(c.items))
	for _, p := range c.items {
		if p.Amount < 1 {
			return fmt.Errorf("product %d: amount %d is below 1", p.ID, p.Amount)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("product %d: %w", p.ID, ErrDuplicateEntry)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// ErrDuplicateEntry is returned by Validate when two entries share a product ID.
var ErrDuplicateEntry = errors.New("duplicate cart entry")

func (c Cart) indexOf(productID int64) int {
	return slices.IndexFunc(c.items, func(p Product) bool { return p.ID == productID })
}
