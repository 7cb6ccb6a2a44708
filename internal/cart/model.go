// Package cart owns the shopping cart aggregate: line management and the
// derived totals that are recomputed on every mutation.
package cart

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thmjiya022/nnhair/internal/money"
)

var (
	// ErrNotFound indicates the cart or cart item could not be located.
	ErrNotFound = errors.New("cart: not found")
	// ErrInactive is returned for mutations against a deactivated cart.
	ErrInactive = errors.New("cart: cart is inactive")
)

// DefaultRetention is how long an untouched cart stays alive.
const DefaultRetention = 30 * 24 * time.Hour

// Item is one product line in a cart. UnitPrice is the variant-adjusted
// price snapshotted when the line was added.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	VariantID   *uuid.UUID      `json:"variantId,omitempty"`
	ProductName string          `json:"productName"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Cart is the aggregate root. Totals and ItemCount are stored fields,
// re-derived from the lines by Recalculate after every mutation.
type Cart struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"userId"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
	ItemCount      int             `json:"itemCount"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Items          []Item          `json:"items"`
}

// Recalculate re-derives subtotal, total and item count from the lines.
// ItemCount counts distinct lines, not units; the order aggregate sums
// quantities instead.
func (c *Cart) Recalculate() {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.Total)
	}
	c.Subtotal = money.Round2(subtotal)
	total := c.Subtotal.Sub(c.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	c.Total = money.Round2(total)
	c.ItemCount = len(c.Items)
}

// Expired reports whether the cart has outlived the retention window.
// Expiry is advisory on reads; the scheduled sweep performs the actual
// deactivation.
func (c Cart) Expired(now time.Time, retention time.Duration) bool {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return now.After(c.CreatedAt.Add(retention))
}
