// Package store provides the persistence slot that keeps the cart snapshot between restarts.
package store

import "context"

// Slot is a string-keyed store holding opaque string values.
// It abstracts the underlying medium, allowing for different implementations (e.g., in-memory, database, cache).
type Slot interface {
	// Read returns the value stored under key.
	// The boolean is false when nothing is stored; that is not an error.
	Read(ctx context.Context, key string) (string, bool, error)

	// Write stores value under key, replacing any previous value.
	Write(ctx context.Context, key, value string) error
}
