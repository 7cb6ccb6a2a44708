package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thmjiya022/nnhair/internal/catalog"
	"github.com/thmjiya022/nnhair/internal/money"
	"github.com/thmjiya022/nnhair/internal/pricing"
)

// Store is the durable storage collaborator for carts.
type Store interface {
	GetActive(ctx context.Context, userID uuid.UUID) (Cart, error)
	Create(ctx context.Context, c *Cart) error
	SaveItem(ctx context.Context, cartID uuid.UUID, item Item) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	SaveTotals(ctx context.Context, c Cart) error
	Deactivate(ctx context.Context, cartID uuid.UUID) error
	DeactivateExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Catalog supplies priced product snapshots for new cart lines.
type Catalog interface {
	Snapshot(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (catalog.Snapshot, error)
}

// Service coordinates cart mutations. Every mutation re-derives the
// aggregate totals before persisting.
type Service struct {
	Store     Store
	Catalog   Catalog
	Retention time.Duration
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) retention() time.Duration {
	if s == nil || s.Retention <= 0 {
		return DefaultRetention
	}
	return s.Retention
}

// Get returns the user's active cart, creating an empty one on first use.
// An expired cart is skipped and a fresh cart takes its place; the sweep
// worker deactivates the stale row later.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	now := s.now()
	existing, err := s.Store.GetActive(ctx, userID)
	if err == nil && !existing.Expired(now, s.retention()) {
		return existing, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Cart{}, err
	}
	fresh := Cart{
		ID:        uuid.New(),
		UserID:    userID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fresh.Recalculate()
	if err := s.Store.Create(ctx, &fresh); err != nil {
		return Cart{}, err
	}
	return fresh, nil
}

// AddItem appends a product line, or bumps the quantity when the same
// product/variant pair is already in the cart.
func (s *Service) AddItem(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID, qty int) (Cart, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return Cart{}, pricing.ErrInvalidQuantity
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return Cart{}, err
	}

	idx := c.findLine(productID, variantID)
	now := s.now()
	if idx >= 0 {
		line := &c.Items[idx]
		line.Qty += qty
		line.Total = money.Round2(line.UnitPrice.Mul(decimalFromInt(line.Qty)))
	} else {
		snap, err := s.Catalog.Snapshot(ctx, productID, variantID)
		if err != nil {
			return Cart{}, err
		}
		unit := money.Round2(snap.UnitPrice.Add(snap.VariantDelta))
		c.Items = append(c.Items, Item{
			ID:          uuid.New(),
			ProductID:   snap.ProductID,
			VariantID:   snap.VariantID,
			ProductName: snap.Name,
			ImageURL:    snap.ImageURL,
			Qty:         qty,
			UnitPrice:   unit,
			Total:       money.Round2(unit.Mul(decimalFromInt(qty))),
			CreatedAt:   now,
		})
		idx = len(c.Items) - 1
	}
	if err := s.Store.SaveItem(ctx, c.ID, c.Items[idx]); err != nil {
		return Cart{}, err
	}
	return s.persistTotals(ctx, c, now)
}

// UpdateQty replaces the quantity on an existing line.
func (s *Service) UpdateQty(ctx context.Context, userID, itemID uuid.UUID, qty int) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return Cart{}, pricing.ErrInvalidQuantity
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	idx := c.findItem(itemID)
	if idx < 0 {
		return Cart{}, ErrNotFound
	}
	line := &c.Items[idx]
	line.Qty = qty
	line.Total = money.Round2(line.UnitPrice.Mul(decimalFromInt(qty)))
	if err := s.Store.SaveItem(ctx, c.ID, *line); err != nil {
		return Cart{}, err
	}
	return s.persistTotals(ctx, c, s.now())
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	idx := c.findItem(itemID)
	if idx < 0 {
		return Cart{}, ErrNotFound
	}
	if err := s.Store.DeleteItem(ctx, c.ID, itemID); err != nil {
		return Cart{}, err
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return s.persistTotals(ctx, c, s.now())
}

// Clear removes every line, leaving an empty active cart.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	if err := s.Store.ClearItems(ctx, c.ID); err != nil {
		return Cart{}, err
	}
	c.Items = nil
	return s.persistTotals(ctx, c, s.now())
}

// Deactivate retires the user's active cart, typically after checkout.
func (s *Service) Deactivate(ctx context.Context, userID uuid.UUID) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	c, err := s.Store.GetActive(ctx, userID)
	if err != nil {
		return err
	}
	return s.Store.Deactivate(ctx, c.ID)
}

// DeactivateExpired retires every active cart older than the retention
// window. Only the scheduled worker calls this.
func (s *Service) DeactivateExpired(ctx context.Context) (int64, error) {
	if s == nil || s.Store == nil {
		return 0, errors.New("cart service not configured")
	}
	cutoff := s.now().Add(-s.retention())
	return s.Store.DeactivateExpired(ctx, cutoff)
}

func (s *Service) persistTotals(ctx context.Context, c Cart, now time.Time) (Cart, error) {
	c.Recalculate()
	c.UpdatedAt = now
	if err := s.Store.SaveTotals(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

func decimalFromInt(v int) decimal.Decimal {
	return decimal.NewFromInt(int64(v))
}

func (c *Cart) findLine(productID uuid.UUID, variantID *uuid.UUID) int {
	for i, item := range c.Items {
		if item.ProductID != productID {
			continue
		}
		if (item.VariantID == nil) != (variantID == nil) {
			continue
		}
		if item.VariantID == nil || *item.VariantID == *variantID {
			return i
		}
	}
	return -1
}

func (c *Cart) findItem(itemID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}
