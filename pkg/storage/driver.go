// Package storage defines how completed screens are persisted.
package storage

import (
	"context"

	"github.com/papercomputeco/screens/pkg/generate"
)

// Driver defines the interface for persisting and retrieving screens in a
// storage backend. Implementations are safe for concurrent use.
type Driver interface {
	// Put stores a screen. Storing a screen with an existing ID replaces
	// it.
	Put(ctx context.Context, screen *generate.Screen) error

	// Get retrieves a screen by its ID.
	Get(ctx context.Context, id string) (*generate.Screen, error)

	// ListGeneration returns the screens of a generation ordered by
	// index, refined versions after the screen they were derived from.
	ListGeneration(ctx context.Context, generationID string) ([]*generate.Screen, error)

	// Close closes the store and releases any resources.
	Close() error
}
