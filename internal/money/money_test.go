package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRound2HalfUp(t *testing.T) {
	cases := map[string]string{
		"10.005":  "10.01",
		"10.004":  "10.00",
		"10":      "10",
		"1234.5":  "1234.5",
		"0.125":   "0.13",
		"99.9949": "99.99",
	}
	for in, want := range cases {
		d, err := decimal.NewFromString(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got := Round2(d); got.String() != want {
			t.Errorf("Round2(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestFromStringRejectsNegative(t *testing.T) {
	if _, err := FromString("-10.00"); err != ErrNegativeAmount {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	d, err := FromString(" 150.00 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "150" {
		t.Fatalf("expected 150, got %s", d)
	}
}

func TestFormat(t *testing.T) {
	d := decimal.RequireFromString("1234.5")
	if got := Format("R", d); got != "R1234.50" {
		t.Fatalf("Format = %q, want R1234.50", got)
	}
	if got := Format("", decimal.Zero); got != "R0.00" {
		t.Fatalf("Format zero = %q, want R0.00", got)
	}
}

func TestMul(t *testing.T) {
	unit := decimal.RequireFromString("33.335")
	if got := Mul(unit, 3); got.String() != "100.01" {
		t.Fatalf("Mul = %s, want 100.01", got)
	}
}
