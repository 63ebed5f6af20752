// Package errors provides custom error types for cart-related operations.
package errors

import "errors"

// ErrStockExceeded is returned when the requested amount is above the available stock.
var ErrStockExceeded = errors.New("requested quantity exceeds stock")

// ErrEntryNotFound is returned when an operation targets a product that is not in the cart.
var ErrEntryNotFound = errors.New("cart entry not found")

var ErrProductNotFound = errors.New("product not found")
var ErrTransport = errors.New("catalog request failed")

// ErrPersist is returned when the cart snapshot cannot be written to the slot.
var ErrPersist = errors.New("failed to persist cart")
