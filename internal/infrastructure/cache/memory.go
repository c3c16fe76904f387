// Package cache provides cart.Store implementations: an in-process
// memory store for single-node deployments and a Redis store for
// shared ones.
package cache

import (
	"context"
	"sync"

	"tillpoint/internal/domain/cart"
)

// MemoryCartStore keeps live carts in a process-local map. Carts are
// deep-copied on the way in and out so callers never share state with
// the store.
type MemoryCartStore struct {
	mu    sync.RWMutex
	carts map[string]*cart.Cart
}

var _ cart.Store = (*MemoryCartStore)(nil)

// NewMemoryCartStore creates an empty in-process cart store.
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string]*cart.Cart)}
}

func (s *MemoryCartStore) Get(_ context.Context, tenantID, registerID string) (*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[cartKey(tenantID, registerID)]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (s *MemoryCartStore) Put(_ context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[cartKey(c.TenantID, c.RegisterID)] = c.Clone()
	return nil
}

func (s *MemoryCartStore) Delete(_ context.Context, tenantID, registerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, cartKey(tenantID, registerID))
	return nil
}

func cartKey(tenantID, registerID string) string {
	return "cart:" + tenantID + ":" + registerID
}
