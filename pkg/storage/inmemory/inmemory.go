// Package inmemory provides a map-backed storage driver.
package inmemory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of screens
	mu sync.RWMutex

	// screens is the in memory map of screens keyed by screen ID
	screens map[string]*generate.Screen
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		screens: make(map[string]*generate.Screen),
	}
}

// Put stores a copy of the screen.
func (s *Driver) Put(_ context.Context, screen *generate.Screen) error {
	if screen == nil {
		return storage.ErrNilScreen
	}

	cp := *screen

	s.mu.Lock()
	defer s.mu.Unlock()

	s.screens[screen.ID] = &cp
	return nil
}

// Get retrieves a screen by its ID.
func (s *Driver) Get(_ context.Context, id string) (*generate.Screen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	screen, ok := s.screens[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	cp := *screen
	return &cp, nil
}

// ListGeneration returns the screens of a generation ordered by index and
// creation time.
func (s *Driver) ListGeneration(_ context.Context, generationID string) ([]*generate.Screen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*generate.Screen{}
	for _, screen := range s.screens {
		if screen.GenerationID == generationID {
			cp := *screen
			out = append(out, &cp)
		}
	}

	slices.SortFunc(out, func(a, b *generate.Screen) int {
		if c := cmp.Compare(a.Index, b.Index); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return out, nil
}

// Close is a no-op for the in-memory driver.
func (s *Driver) Close() error {
	return nil
}
