package cart

import "context"

// Store persists live carts keyed by tenant and register. A register
// has at most one live cart. Implementations: in-process memory store
// for single-node deployments, Redis for shared ones.
type Store interface {
	// Get returns the live cart for a register, or nil when none exists.
	Get(ctx context.Context, tenantID, registerID string) (*Cart, error)

	// Put saves the cart, replacing any previous state for the register.
	Put(ctx context.Context, c *Cart) error

	// Delete drops the live cart for a register. Deleting a missing
	// cart is not an error.
	Delete(ctx context.Context, tenantID, registerID string) error
}
