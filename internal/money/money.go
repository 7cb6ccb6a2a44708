// Package money provides fixed-scale monetary arithmetic for the shop.
// All amounts are stored at 2 decimal places; rounding is half-up.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNegativeAmount is returned when an amount below zero reaches a
// context where negative money is not meaningful.
var ErrNegativeAmount = errors.New("money: negative amount")

// DefaultSymbol is the rand symbol used when no currency symbol is configured.
const DefaultSymbol = "R"

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Round2 rounds the amount to exactly two fractional digits, half-up.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// Mul multiplies an amount by an integer quantity and rounds the result.
func Mul(amount decimal.Decimal, qty int) decimal.Decimal {
	return Round2(amount.Mul(decimal.NewFromInt(int64(qty))))
}

// FromString parses a decimal amount, rejecting negative values.
func FromString(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// Format renders an amount with the currency symbol and two decimals,
// e.g. "R1234.50".
func Format(symbol string, amount decimal.Decimal) string {
	if strings.TrimSpace(symbol) == "" {
		symbol = DefaultSymbol
	}
	return symbol + Round2(amount).StringFixed(2)
}
