// Package pricing computes line and order totals. All functions are pure;
// recomputing with the same inputs always yields the same output.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/thmjiya022/nnhair/internal/money"
)

var (
	// ErrInvalidQuantity is returned when a line quantity is zero or negative.
	ErrInvalidQuantity = errors.New("pricing: quantity must be greater than 0")
	// ErrInvalidPrice is returned when a unit price, or a variant-adjusted
	// unit price, falls below zero.
	ErrInvalidPrice = errors.New("pricing: effective unit price must not be negative")
	// ErrDiscountExceedsTotal is returned when a discount is negative or
	// larger than the amount it discounts.
	ErrDiscountExceedsTotal = errors.New("pricing: discount exceeds order total")
)

// Line describes a single order line to be priced. VariantDelta adjusts the
// unit price for a selected variant and may be negative as long as the
// effective unit price stays non-negative.
type Line struct {
	UnitPrice    decimal.Decimal
	Qty          int
	VariantDelta decimal.Decimal
}

// ExtendedPrice returns round2((unitPrice + variantDelta) * qty).
func (l Line) ExtendedPrice() (decimal.Decimal, error) {
	if l.Qty <= 0 {
		return decimal.Zero, ErrInvalidQuantity
	}
	if l.UnitPrice.IsNegative() {
		return decimal.Zero, ErrInvalidPrice
	}
	effective := l.UnitPrice.Add(l.VariantDelta)
	if effective.IsNegative() {
		return decimal.Zero, ErrInvalidPrice
	}
	return money.Mul(effective, l.Qty), nil
}

// Rates carries the configured defaults applied when the caller does not
// supply explicit amounts.
type Rates struct {
	TaxRate          decimal.Decimal // e.g. 0.15 for South African VAT
	StandardShipping decimal.Decimal // flat rate applied when shipping is absent or zero
}

// Summary aggregates the computed pricing components of an order.
type Summary struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Compute prices every line, sums the subtotal and applies shipping, tax and
// discount. Shipping and tax fall back to the configured rates when nil or
// zero and are rejected when negative; discount defaults to zero and must
// not exceed subtotal+shipping+tax.
func Compute(lines []Line, shipping, tax, discount *decimal.Decimal, rates Rates) (Summary, error) {
	subtotal := decimal.Zero
	for _, line := range lines {
		extended, err := line.ExtendedPrice()
		if err != nil {
			return Summary{}, err
		}
		subtotal = subtotal.Add(extended)
	}
	subtotal = money.Round2(subtotal)

	ship := rates.StandardShipping
	if shipping != nil {
		if shipping.IsNegative() {
			return Summary{}, ErrInvalidPrice
		}
		if shipping.IsPositive() {
			ship = money.Round2(*shipping)
		}
	}

	taxAmount := money.Round2(subtotal.Mul(rates.TaxRate))
	if tax != nil && !tax.IsZero() {
		if tax.IsNegative() {
			return Summary{}, ErrInvalidPrice
		}
		taxAmount = money.Round2(*tax)
	}

	disc := decimal.Zero
	if discount != nil {
		disc = money.Round2(*discount)
	}
	if disc.IsNegative() || disc.GreaterThan(subtotal.Add(ship).Add(taxAmount)) {
		return Summary{}, ErrDiscountExceedsTotal
	}

	total := money.Round2(subtotal.Add(ship).Add(taxAmount).Sub(disc))
	return Summary{
		Subtotal: subtotal,
		Shipping: ship,
		Tax:      taxAmount,
		Discount: disc,
		Total:    total,
	}, nil
}
