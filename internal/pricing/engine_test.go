package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func standardRates() Rates {
	return Rates{TaxRate: dec("0.15"), StandardShipping: dec("150.00")}
}

func TestExtendedPrice(t *testing.T) {
	line := Line{UnitPrice: dec("100.00"), Qty: 2}
	got, err := line.ExtendedPrice()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("200.00")) {
		t.Fatalf("extended price = %s, want 200.00", got)
	}
}

func TestExtendedPriceIdempotent(t *testing.T) {
	line := Line{UnitPrice: dec("19.995"), Qty: 3, VariantDelta: dec("5.00")}
	first, err := line.ExtendedPrice()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := line.ExtendedPrice()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Equal(second) {
		t.Fatalf("recomputed price drifted: %s vs %s", first, second)
	}
}

func TestExtendedPriceInvalidQuantity(t *testing.T) {
	for _, qty := range []int{0, -1} {
		line := Line{UnitPrice: dec("10.00"), Qty: qty}
		if _, err := line.ExtendedPrice(); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestExtendedPriceNegativeEffectivePrice(t *testing.T) {
	line := Line{UnitPrice: dec("10.00"), Qty: 1, VariantDelta: dec("-15.00")}
	if _, err := line.ExtendedPrice(); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestExtendedPriceNegativeDeltaAllowed(t *testing.T) {
	line := Line{UnitPrice: dec("100.00"), Qty: 2, VariantDelta: dec("-20.00")}
	got, err := line.ExtendedPrice()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("160.00")) {
		t.Fatalf("extended price = %s, want 160.00", got)
	}
}

func TestComputeDefaults(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("100.00"), Qty: 2},
		{UnitPrice: dec("50.00"), Qty: 1},
	}
	summary, err := Compute(lines, nil, nil, nil, standardRates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.Subtotal.Equal(dec("250.00")) {
		t.Errorf("subtotal = %s, want 250.00", summary.Subtotal)
	}
	if !summary.Shipping.Equal(dec("150.00")) {
		t.Errorf("shipping = %s, want 150.00", summary.Shipping)
	}
	if !summary.Tax.Equal(dec("37.50")) {
		t.Errorf("tax = %s, want 37.50", summary.Tax)
	}
	if !summary.Discount.IsZero() {
		t.Errorf("discount = %s, want 0", summary.Discount)
	}
	if !summary.Total.Equal(dec("437.50")) {
		t.Errorf("total = %s, want 437.50", summary.Total)
	}
}

func TestComputeZeroShippingFallsBackToStandardRate(t *testing.T) {
	zero := decimal.Zero
	summary, err := Compute([]Line{{UnitPrice: dec("10.00"), Qty: 1}}, &zero, nil, nil, standardRates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.Shipping.Equal(dec("150.00")) {
		t.Fatalf("shipping = %s, want standard 150.00", summary.Shipping)
	}
}

func TestComputeNegativeShippingRejected(t *testing.T) {
	ship := dec("-1.00")
	_, err := Compute([]Line{{UnitPrice: dec("10.00"), Qty: 1}}, &ship, nil, nil, standardRates())
	if !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("err = %v, want ErrInvalidPrice", err)
	}
}

func TestComputeExplicitAmounts(t *testing.T) {
	ship := dec("80.00")
	tax := dec("12.34")
	disc := dec("50.00")
	summary, err := Compute([]Line{{UnitPrice: dec("200.00"), Qty: 1}}, &ship, &tax, &disc, standardRates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.Total.Equal(dec("242.34")) {
		t.Fatalf("total = %s, want 242.34", summary.Total)
	}
}

func TestComputeDiscountExceedsTotal(t *testing.T) {
	disc := dec("10000.00")
	_, err := Compute([]Line{{UnitPrice: dec("10.00"), Qty: 1}}, nil, nil, &disc, standardRates())
	if !errors.Is(err, ErrDiscountExceedsTotal) {
		t.Fatalf("expected ErrDiscountExceedsTotal, got %v", err)
	}
	neg := dec("-5.00")
	_, err = Compute([]Line{{UnitPrice: dec("10.00"), Qty: 1}}, nil, nil, &neg, standardRates())
	if !errors.Is(err, ErrDiscountExceedsTotal) {
		t.Fatalf("expected ErrDiscountExceedsTotal for negative discount, got %v", err)
	}
}

func TestComputeTotalsInvariant(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("19.99"), Qty: 3},
		{UnitPrice: dec("249.50"), Qty: 1, VariantDelta: dec("25.00")},
	}
	summary, err := Compute(lines, nil, nil, nil, standardRates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recomputed := summary.Subtotal.Add(summary.Shipping).Add(summary.Tax).Sub(summary.Discount).Round(2)
	if !summary.Total.Equal(recomputed) {
		t.Fatalf("total %s does not satisfy invariant, recomputed %s", summary.Total, recomputed)
	}
}
