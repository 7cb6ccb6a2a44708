// Package order implements the order fulfillment core: priced, auditable
// orders tracked through an order- and payment-status lifecycle with an
// append-only history trail.
package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thmjiya022/nnhair/internal/money"
)

var (
	// ErrEmptyOrder is returned when an order is created without lines.
	ErrEmptyOrder = errors.New("order: at least one line is required")
	// ErrIncompleteAddress is returned when the shipping address misses
	// street, city or postal code.
	ErrIncompleteAddress = errors.New("order: complete shipping address is required")
	// ErrOrderClosed is returned when a transition is attempted on an order
	// in a terminal status.
	ErrOrderClosed = errors.New("order: order is closed")
	// ErrInvalidTransition is returned for transitions the state machine
	// does not permit.
	ErrInvalidTransition = errors.New("order: invalid status transition")
	// ErrConcurrentModification is returned when a racing writer updated the
	// order first; the caller's view is stale.
	ErrConcurrentModification = errors.New("order: concurrent modification")
	// ErrNotFound is returned for unknown order identifiers.
	ErrNotFound = errors.New("order: not found")
)

// DefaultCurrency and DefaultCountry are the shop defaults applied when the
// caller leaves the fields blank.
const (
	DefaultCurrency = "ZAR"
	DefaultCountry  = "South Africa"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending          Status = "PENDING"
	StatusProcessing       Status = "PROCESSING"
	StatusConfirmed        Status = "CONFIRMED"
	StatusPreparing        Status = "PREPARING"
	StatusReadyForShipping Status = "READY_FOR_SHIPPING"
	StatusShipped          Status = "SHIPPED"
	StatusInTransit        Status = "IN_TRANSIT"
	StatusOutForDelivery   Status = "OUT_FOR_DELIVERY"
	StatusDelivered        Status = "DELIVERED"
	StatusCancelled        Status = "CANCELLED"
	StatusRefunded         Status = "REFUNDED"
	StatusFailed           Status = "FAILED"
)

// ParseStatus validates an external status label.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(value)))
	switch s {
	case StatusPending, StatusProcessing, StatusConfirmed, StatusPreparing,
		StatusReadyForShipping, StatusShipped, StatusInTransit,
		StatusOutForDelivery, StatusDelivered, StatusCancelled,
		StatusRefunded, StatusFailed:
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, value)
}

// PaymentStatus is the payment lifecycle state reported by the gateway.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentAuthorized        PaymentStatus = "AUTHORIZED"
	PaymentCaptured          PaymentStatus = "CAPTURED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentCancelled         PaymentStatus = "CANCELLED"
)

// ParsePaymentStatus validates an external payment status label.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	s := PaymentStatus(strings.ToUpper(strings.TrimSpace(value)))
	switch s {
	case PaymentPending, PaymentAuthorized, PaymentCaptured,
		PaymentPartiallyRefunded, PaymentRefunded, PaymentFailed,
		PaymentCancelled:
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown payment status %q", ErrInvalidTransition, value)
}

// PaymentMethod enumerates the payment channels the shop accepts.
type PaymentMethod string

const (
	MethodCreditCard     PaymentMethod = "CREDIT_CARD"
	MethodDebitCard      PaymentMethod = "DEBIT_CARD"
	MethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
	MethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	MethodPayPal         PaymentMethod = "PAYPAL"
	MethodPayStack       PaymentMethod = "PAYSTACK"
)

// ParsePaymentMethod validates a payment method label; empty is allowed.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return "", nil
	}
	m := PaymentMethod(trimmed)
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodBankTransfer,
		MethodCashOnDelivery, MethodPayPal, MethodPayStack:
		return m, nil
	}
	return "", fmt.Errorf("order: unknown payment method %q", value)
}

// ShippingAddress is an embedded value on the order header, not a standalone
// entity.
type ShippingAddress struct {
	Street               string `json:"street"`
	City                 string `json:"city"`
	Province             string `json:"province,omitempty"`
	PostalCode           string `json:"postalCode"`
	Country              string `json:"country,omitempty"`
	Apartment            string `json:"apartment,omitempty"`
	DeliveryInstructions string `json:"deliveryInstructions,omitempty"`
}

// Complete reports whether street, city and postal code are all present.
func (a ShippingAddress) Complete() bool {
	return strings.TrimSpace(a.Street) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.PostalCode) != ""
}

// Full renders the address as a multi-line postal block.
func (a ShippingAddress) Full() string {
	var b strings.Builder
	b.WriteString(a.Street)
	if a.Apartment != "" {
		b.WriteString(", ")
		b.WriteString(a.Apartment)
	}
	b.WriteString("\n")
	b.WriteString(a.City)
	if a.Province != "" {
		b.WriteString(", ")
		b.WriteString(a.Province)
	}
	b.WriteString("\n")
	b.WriteString(a.PostalCode)
	if a.Country != "" {
		b.WriteString("\n")
		b.WriteString(a.Country)
	}
	return b.String()
}

// Line is one priced product/variant/quantity entry within an order. The
// product fields are a snapshot taken at creation time so price history
// survives catalog edits; lines never change after the order is created.
type Line struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	VariantID   *uuid.UUID      `json:"variantId,omitempty"`
	ProductName string          `json:"productName"`
	ProductSKU  string          `json:"productSku,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

// HistoryEntry is one immutable row of the status history ledger.
type HistoryEntry struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"orderId"`
	Status    Status    `json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Order is the aggregate root owning its lines and history.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	Number         string          `json:"orderNumber"`
	UserID         uuid.UUID       `json:"userId"`
	CustomerEmail  string          `json:"customerEmail"`
	CustomerPhone  string          `json:"customerPhone,omitempty"`
	CustomerName   string          `json:"customerName,omitempty"`
	Address        ShippingAddress `json:"shippingAddress"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	Status         Status          `json:"status"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod,omitempty"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	UpdatedBy      string          `json:"updatedBy,omitempty"`
	Version        int             `json:"-"`
	Lines          []Line          `json:"items,omitempty"`
}

// IsPaid reports whether payment has been authorized or captured.
func (o Order) IsPaid() bool {
	return o.PaymentStatus == PaymentCaptured || o.PaymentStatus == PaymentAuthorized
}

// IsShippable reports whether the order is paid and in a preparable state.
func (o Order) IsShippable() bool {
	return o.IsPaid() && (o.Status == StatusConfirmed || o.Status == StatusProcessing)
}

// TotalItems counts distinct lines.
func (o Order) TotalItems() int {
	return len(o.Lines)
}

// ItemCount sums quantities across all lines. Distinct from TotalItems and
// from the cart's line count; both behaviors are intentional.
func (o Order) ItemCount() int {
	count := 0
	for _, line := range o.Lines {
		count += line.Qty
	}
	return count
}

// FormattedTotal renders the total with the currency symbol, e.g. "R437.50".
func (o Order) FormattedTotal(symbol string) string {
	return money.Format(symbol, o.Total)
}
