package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tenant"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/catalog/product"
)

// Service provides cart edit operations. It loads the live cart from
// the store, applies the mutation and writes it back; each edit
// snapshots prices from the catalog at the moment of the call.
type Service struct {
	store    Store
	products product.Repository
}

// NewService creates a new cart service.
func NewService(store Store, products product.Repository) *Service {
	return &Service{
		store:    store,
		products: products,
	}
}

// Get returns the live cart for a register, creating an empty one in
// memory (not persisted) when none exists.
func (s *Service) Get(ctx context.Context, registerID string) (*Cart, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.store.Get(ctx, tenantID, registerID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if c == nil {
		c = New(tenantID, registerID)
	}
	return c, nil
}

// AddItem adds qty units of a product to the register's cart.
func (s *Service) AddItem(ctx context.Context, registerID string, productID id.ID, qty types.Quantity) (*Cart, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive")
	}
	c, err := s.Get(ctx, registerID)
	if err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, c.TenantID, productID)
	if err != nil {
		return nil, err
	}
	c.AddItem(p, qty)
	return c, s.save(ctx, c)
}

// SetQuantity sets a line's quantity; zero or negative removes the line.
func (s *Service) SetQuantity(ctx context.Context, registerID string, productID id.ID, qty types.Quantity) (*Cart, error) {
	c, err := s.Get(ctx, registerID)
	if err != nil {
		return nil, err
	}
	if qty <= 0 {
		if !c.RemoveItem(productID) {
			return nil, apperror.NewNotFound("cart item", productID.String())
		}
		return c, s.save(ctx, c)
	}
	p, err := s.products.GetByID(ctx, c.TenantID, productID)
	if err != nil {
		return nil, err
	}
	if !c.SetQuantity(p, qty) {
		return nil, apperror.NewNotFound("cart item", productID.String())
	}
	return c, s.save(ctx, c)
}

// RemoveItem removes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, registerID string, productID id.ID) (*Cart, error) {
	c, err := s.Get(ctx, registerID)
	if err != nil {
		return nil, err
	}
	if !c.RemoveItem(productID) {
		return nil, apperror.NewNotFound("cart item", productID.String())
	}
	return c, s.save(ctx, c)
}

// Clear empties the cart and resets its customer and discount.
func (s *Service) Clear(ctx context.Context, registerID string) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, tenantID, registerID)
}

// SetDiscount attaches the cart's single discount; nil removes it.
func (s *Service) SetDiscount(ctx context.Context, registerID string, d *Discount) (*Cart, error) {
	if d != nil {
		if err := validateDiscount(d); err != nil {
			return nil, err
		}
	}
	c, err := s.Get(ctx, registerID)
	if err != nil {
		return nil, err
	}
	c.SetDiscount(d)
	return c, s.save(ctx, c)
}

// SetCustomer sets the customer reference; empty reverts to walk-in.
func (s *Service) SetCustomer(ctx context.Context, registerID, customerID string) (*Cart, error) {
	c, err := s.Get(ctx, registerID)
	if err != nil {
		return nil, err
	}
	c.SetCustomer(customerID)
	return c, s.save(ctx, c)
}

// Replace overwrites the live cart wholesale, used by held-order recall.
func (s *Service) Replace(ctx context.Context, c *Cart) error {
	return s.save(ctx, c)
}

func (s *Service) save(ctx context.Context, c *Cart) error {
	if err := s.store.Put(ctx, c); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func validateDiscount(d *Discount) error {
	switch d.Type {
	case DiscountPercentage:
		if d.Value.IsNegative() || d.Value.GreaterThan(decimal.NewFromInt(100)) {
			return apperror.NewValidation("percentage discount must be between 0 and 100")
		}
	case DiscountFixed:
		if d.Value.IsNegative() {
			return apperror.NewValidation("fixed discount must not be negative")
		}
	default:
		return apperror.NewValidation(fmt.Sprintf("unknown discount type: %s", d.Type))
	}
	return nil
}
