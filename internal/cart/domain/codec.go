package domain

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the cart as a JSON array of products.
func (c Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Items())
}

// UnmarshalJSON decodes a JSON array of products into the cart.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var items []Product
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	c.items = items
	return nil
}

// ParseCart decodes a persisted snapshot and checks the cart invariants.
func ParseCart(raw string) (Cart, error) {
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Cart{}, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Cart{}, fmt.Errorf("invalid cart snapshot: %w", err)
	}
	return c, nil
}
