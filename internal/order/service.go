package order

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thmjiya022/nnhair/internal/catalog"
	"github.com/thmjiya022/nnhair/internal/events"
	"github.com/thmjiya022/nnhair/internal/money"
	"github.com/thmjiya022/nnhair/internal/pricing"
)

// ErrNumberConflict is returned by the store when the generated order number
// collides with an existing one; the service regenerates and retries.
var ErrNumberConflict = errors.New("order: order number already taken")

const numberAttempts = 5

// StatusUpdate carries one atomic status mutation: the new states, the
// optimistic version expectation, and the history entries to append in the
// same transaction.
type StatusUpdate struct {
	OrderID         uuid.UUID
	ExpectedVersion int
	Status          Status
	PaymentStatus   PaymentStatus
	UpdatedBy       string
	Entries         []HistoryEntry
}

// Store is the durable storage collaborator. Every method that mutates is
// all-or-nothing; UpdateStatus fails with ErrConcurrentModification when the
// version check loses a race.
type Store interface {
	Create(ctx context.Context, o *Order, initial HistoryEntry) error
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, int64, error)
	UpdateStatus(ctx context.Context, update StatusUpdate) (Order, error)
	History(ctx context.Context, orderID uuid.UUID) ([]HistoryEntry, error)
}

// Catalog supplies product snapshots at order creation time.
type Catalog interface {
	Snapshot(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (catalog.Snapshot, error)
}

// Service orchestrates order creation and lifecycle transitions.
type Service struct {
	Store    Store
	Catalog  Catalog
	Rates    pricing.Rates
	Currency string
	Events   *events.Bus
	Now      func() time.Time
	Rand     *rand.Rand
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newNumber() string {
	rnd := s.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return NewNumber(s.now(), rnd)
}

func (s *Service) currency() string {
	if s != nil && strings.TrimSpace(s.Currency) != "" {
		return s.Currency
	}
	return DefaultCurrency
}

// CreateLine identifies one requested product/variant/quantity.
type CreateLine struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Qty       int
}

// CreateInput is the order creation request.
type CreateInput struct {
	Lines         []CreateLine
	Address       ShippingAddress
	PaymentMethod string
	CustomerEmail string
	CustomerPhone string
	CustomerName  string
	ShippingCost  *decimal.Decimal
	Discount      *decimal.Decimal
	Notes         string
}

// Create validates the request, snapshots catalog prices, computes totals
// and persists header, lines and the first history entry atomically.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (Order, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return Order{}, errors.New("order service not configured")
	}
	if len(in.Lines) == 0 {
		return Order{}, ErrEmptyOrder
	}
	addr := in.Address
	if strings.TrimSpace(addr.Country) == "" {
		addr.Country = DefaultCountry
	}
	if !addr.Complete() {
		return Order{}, ErrIncompleteAddress
	}
	method, err := ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return Order{}, err
	}

	lines := make([]Line, 0, len(in.Lines))
	priced := make([]pricing.Line, 0, len(in.Lines))
	for _, req := range in.Lines {
		snap, err := s.Catalog.Snapshot(ctx, req.ProductID, req.VariantID)
		if err != nil {
			return Order{}, err
		}
		pl := pricing.Line{UnitPrice: snap.UnitPrice, Qty: req.Qty, VariantDelta: snap.VariantDelta}
		extended, err := pl.ExtendedPrice()
		if err != nil {
			return Order{}, err
		}
		lines = append(lines, Line{
			ID:          uuid.New(),
			ProductID:   snap.ProductID,
			VariantID:   snap.VariantID,
			ProductName: snap.Name,
			ProductSKU:  snap.SKU,
			ImageURL:    snap.ImageURL,
			Qty:         req.Qty,
			UnitPrice:   money.Round2(snap.UnitPrice.Add(snap.VariantDelta)),
			Total:       extended,
		})
		priced = append(priced, pl)
	}

	summary, err := pricing.Compute(priced, in.ShippingCost, nil, in.Discount, s.Rates)
	if err != nil {
		return Order{}, err
	}

	now := s.now()
	actor := userID.String()
	ord := Order{
		ID:             uuid.New(),
		Number:         s.newNumber(),
		UserID:         userID,
		CustomerEmail:  strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:  strings.TrimSpace(in.CustomerPhone),
		CustomerName:   strings.TrimSpace(in.CustomerName),
		Address:        addr,
		Subtotal:       summary.Subtotal,
		ShippingCost:   summary.Shipping,
		TaxAmount:      summary.Tax,
		DiscountAmount: summary.Discount,
		Total:          summary.Total,
		Currency:       s.currency(),
		Status:         StatusPending,
		PaymentMethod:  method,
		PaymentStatus:  PaymentPending,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
		UpdatedBy:      actor,
		Version:        1,
		Lines:          lines,
	}
	initial := HistoryEntry{
		ID:        uuid.New(),
		OrderID:   ord.ID,
		Status:    StatusPending,
		Note:      "Order created",
		CreatedBy: actor,
		CreatedAt: now,
	}

	for attempt := 0; ; attempt++ {
		err = s.Store.Create(ctx, &ord, initial)
		if err == nil {
			break
		}
		if errors.Is(err, ErrNumberConflict) && attempt < numberAttempts {
			ord.Number = s.newNumber()
			continue
		}
		return Order{}, err
	}

	s.emit(ctx, events.TopicOrderCreated, ord.ID, map[string]any{
		"orderId":     ord.ID.String(),
		"orderNumber": ord.Number,
		"userId":      ord.UserID.String(),
		"total":       ord.Total.String(),
		"currency":    ord.Currency,
	})
	return ord, nil
}

// ChangeStatus applies an explicit order status transition. Terminal orders
// reject every transition, including a repeat of the current status; on an
// open order a request for the current status is a no-op.
func (s *Service) ChangeStatus(ctx context.Context, orderID uuid.UUID, newStatus Status, actor, note string) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, errors.New("order service not configured")
	}
	ord, err := s.Store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if ord.Status.Terminal() {
		return Order{}, fmt.Errorf("%w: status is %s", ErrOrderClosed, ord.Status)
	}
	if ord.Status == newStatus {
		return ord, nil
	}
	if err := CanTransition(ord.Status, newStatus); err != nil {
		return Order{}, err
	}
	now := s.now()
	if strings.TrimSpace(note) == "" {
		note = fmt.Sprintf("Status updated to %s", newStatus)
	}
	updated, err := s.Store.UpdateStatus(ctx, StatusUpdate{
		OrderID:         ord.ID,
		ExpectedVersion: ord.Version,
		Status:          newStatus,
		PaymentStatus:   ord.PaymentStatus,
		UpdatedBy:       actor,
		Entries: []HistoryEntry{{
			ID:        uuid.New(),
			OrderID:   ord.ID,
			Status:    newStatus,
			Note:      note,
			CreatedBy: actor,
			CreatedAt: now,
		}},
	})
	if err != nil {
		return Order{}, err
	}

	topic := events.TopicOrderStatusChanged
	if newStatus == StatusCancelled {
		topic = events.TopicOrderCancelled
	}
	s.emit(ctx, topic, ord.ID, map[string]any{
		"orderId": ord.ID.String(),
		"from":    string(ord.Status),
		"to":      string(newStatus),
		"actor":   actor,
	})
	return updated, nil
}

// RecordPaymentEvent records an externally reported payment status and
// applies the derived order status cascade. One payment event may append two
// history entries: the payment note and the cascaded order-status note.
func (s *Service) RecordPaymentEvent(ctx context.Context, orderID uuid.UUID, newPayment PaymentStatus, actor string) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, errors.New("order service not configured")
	}
	ord, err := s.Store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if ord.PaymentStatus == newPayment {
		return ord, nil
	}
	if err := CanTransitionPayment(ord.PaymentStatus, newPayment); err != nil {
		return Order{}, err
	}

	now := s.now()
	status := ord.Status
	entries := []HistoryEntry{{
		ID:        uuid.New(),
		OrderID:   ord.ID,
		Status:    status,
		Note:      fmt.Sprintf("Payment status updated to %s", newPayment),
		CreatedBy: actor,
		CreatedAt: now,
	}}
	if cascade, ok := DeriveCascade(status, newPayment); ok {
		status = cascade.Status
		entries = append(entries, HistoryEntry{
			ID:        uuid.New(),
			OrderID:   ord.ID,
			Status:    cascade.Status,
			Note:      cascade.Note,
			CreatedBy: actor,
			CreatedAt: now,
		})
	}

	updated, err := s.Store.UpdateStatus(ctx, StatusUpdate{
		OrderID:         ord.ID,
		ExpectedVersion: ord.Version,
		Status:          status,
		PaymentStatus:   newPayment,
		UpdatedBy:       actor,
		Entries:         entries,
	})
	if err != nil {
		return Order{}, err
	}

	s.emit(ctx, events.TopicPaymentEvent, ord.ID, map[string]any{
		"orderId":       ord.ID.String(),
		"paymentStatus": string(newPayment),
		"orderStatus":   string(status),
		"actor":         actor,
	})
	return updated, nil
}

// CancelOwn lets the owner cancel an order that is still pending.
func (s *Service) CancelOwn(ctx context.Context, orderID, userID uuid.UUID) (Order, error) {
	ord, err := s.Store.GetForUser(ctx, orderID, userID)
	if err != nil {
		return Order{}, err
	}
	if ord.Status != StatusPending {
		return Order{}, fmt.Errorf("%w: only pending orders can be cancelled", ErrInvalidTransition)
	}
	return s.ChangeStatus(ctx, ord.ID, StatusCancelled, userID.String(), "Cancelled by customer")
}

// History returns the full status history ledger in insertion order.
func (s *Service) History(ctx context.Context, orderID uuid.UUID) ([]HistoryEntry, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("order service not configured")
	}
	if _, err := s.Store.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.Store.History(ctx, orderID)
}

func (s *Service) emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload map[string]any) {
	if s.Events == nil {
		return
	}
	_, _ = s.Events.Emit(ctx, topic, aggregateID, payload)
}
