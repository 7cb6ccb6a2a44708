package order

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/thmjiya022/nnhair/internal/catalog"
	"github.com/thmjiya022/nnhair/internal/pricing"
)

type fakeStore struct {
	orders       map[uuid.UUID]*Order
	history      map[uuid.UUID][]HistoryEntry
	numbers      map[string]bool
	conflictLeft int
	createCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:  map[uuid.UUID]*Order{},
		history: map[uuid.UUID][]HistoryEntry{},
		numbers: map[string]bool{},
	}
}

func (f *fakeStore) Create(_ context.Context, o *Order, initial HistoryEntry) error {
	f.createCalls++
	if f.conflictLeft > 0 {
		f.conflictLeft--
		return ErrNumberConflict
	}
	if f.numbers[o.Number] {
		return ErrNumberConflict
	}
	f.numbers[o.Number] = true
	clone := *o
	f.orders[o.ID] = &clone
	f.history[o.ID] = append(f.history[o.ID], initial)
	return nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return *o, nil
}

func (f *fakeStore) GetForUser(_ context.Context, id, userID uuid.UUID) (Order, error) {
	o, ok := f.orders[id]
	if !ok || o.UserID != userID {
		return Order{}, ErrNotFound
	}
	return *o, nil
}

func (f *fakeStore) ListForUser(_ context.Context, userID uuid.UUID, _, _ int) ([]Order, int64, error) {
	var out []Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, update StatusUpdate) (Order, error) {
	o, ok := f.orders[update.OrderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	if o.Version != update.ExpectedVersion {
		return Order{}, ErrConcurrentModification
	}
	o.Status = update.Status
	o.PaymentStatus = update.PaymentStatus
	o.UpdatedBy = update.UpdatedBy
	o.Version++
	f.history[o.ID] = append(f.history[o.ID], update.Entries...)
	return *o, nil
}

func (f *fakeStore) History(_ context.Context, orderID uuid.UUID) ([]HistoryEntry, error) {
	return f.history[orderID], nil
}

type fakeCatalog struct {
	snapshots map[uuid.UUID]catalog.Snapshot
}

func (f *fakeCatalog) Snapshot(_ context.Context, productID uuid.UUID, variantID *uuid.UUID) (catalog.Snapshot, error) {
	snap, ok := f.snapshots[productID]
	if !ok {
		return catalog.Snapshot{}, catalog.ErrNotFound
	}
	snap.VariantID = variantID
	return snap, nil
}

func newTestService(store *fakeStore, cat *fakeCatalog) *Service {
	return &Service{
		Store:   store,
		Catalog: cat,
		Rates: pricing.Rates{
			TaxRate:          decimal.RequireFromString("0.15"),
			StandardShipping: decimal.RequireFromString("150.00"),
		},
		Currency: "ZAR",
		Now:      func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) },
		Rand:     rand.New(rand.NewSource(1)),
	}
}

func testAddress() ShippingAddress {
	return ShippingAddress{Street: "12 Juta Street", City: "Johannesburg", PostalCode: "2001"}
}

func TestCreateComputesTotals(t *testing.T) {
	store := newFakeStore()
	productID := uuid.New()
	cat := &fakeCatalog{snapshots: map[uuid.UUID]catalog.Snapshot{
		productID: {
			ProductID:    productID,
			Name:         "Peruvian Straight 20\"",
			SKU:          "PS-20",
			UnitPrice:    decimal.RequireFromString("100.00"),
			VariantDelta: decimal.RequireFromString("25.00"),
			Stock:        10,
		},
	}}
	svc := newTestService(store, cat)

	ord, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Lines:         []CreateLine{{ProductID: productID, Qty: 2}},
		Address:       testAddress(),
		CustomerEmail: "thandi@example.com",
	})
	require.NoError(t, err)

	require.Equal(t, "250", ord.Subtotal.String())
	require.Equal(t, "150", ord.ShippingCost.String())
	require.Equal(t, "37.5", ord.TaxAmount.String())
	require.Equal(t, "437.5", ord.Total.String())
	require.Equal(t, "ZAR", ord.Currency)
	require.Equal(t, StatusPending, ord.Status)
	require.Equal(t, PaymentPending, ord.PaymentStatus)
	require.Equal(t, 1, ord.Version)
	require.Regexp(t, `^NN-\d{6}-\d{3}$`, ord.Number)
	require.Equal(t, "South Africa", ord.Address.Country)

	require.Len(t, ord.Lines, 1)
	require.Equal(t, "125", ord.Lines[0].UnitPrice.String())
	require.Equal(t, "250", ord.Lines[0].Total.String())
	require.Equal(t, 1, ord.TotalItems())
	require.Equal(t, 2, ord.ItemCount())

	history, err := svc.History(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "Order created", history[0].Note)
	require.Equal(t, StatusPending, history[0].Status)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeCatalog{})

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{Address: testAddress()})
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = svc.Create(context.Background(), uuid.New(), CreateInput{
		Lines:   []CreateLine{{ProductID: uuid.New(), Qty: 1}},
		Address: ShippingAddress{Street: "12 Juta Street"},
	})
	require.ErrorIs(t, err, ErrIncompleteAddress)
}

func TestCreateRetriesNumberConflicts(t *testing.T) {
	store := newFakeStore()
	store.conflictLeft = 2
	productID := uuid.New()
	cat := &fakeCatalog{snapshots: map[uuid.UUID]catalog.Snapshot{
		productID: {ProductID: productID, Name: "Closure 4x4", UnitPrice: decimal.RequireFromString("450.00")},
	}}
	svc := newTestService(store, cat)

	ord, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Lines:         []CreateLine{{ProductID: productID, Qty: 1}},
		Address:       testAddress(),
		CustomerEmail: "thandi@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, 3, store.createCalls)
	require.NotEmpty(t, ord.Number)
}

func TestChangeStatusAppendsHistory(t *testing.T) {
	store := newFakeStore()
	productID := uuid.New()
	cat := &fakeCatalog{snapshots: map[uuid.UUID]catalog.Snapshot{
		productID: {ProductID: productID, Name: "Bob Wig", UnitPrice: decimal.RequireFromString("899.00")},
	}}
	svc := newTestService(store, cat)

	ord, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Lines:         []CreateLine{{ProductID: productID, Qty: 1}},
		Address:       testAddress(),
		CustomerEmail: "thandi@example.com",
	})
	require.NoError(t, err)

	updated, err := svc.ChangeStatus(context.Background(), ord.ID, StatusProcessing, "admin-1", "")
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, updated.Status)
	require.Equal(t, 2, updated.Version)

	// Same status is a no-op: nothing appended.
	again, err := svc.ChangeStatus(context.Background(), ord.ID, StatusProcessing, "admin-1", "")
	require.NoError(t, err)
	require.Equal(t, 2, again.Version)

	_, err = svc.ChangeStatus(context.Background(), ord.ID, StatusPending, "admin-1", "")
	require.ErrorIs(t, err, ErrInvalidTransition)

	history, err := svc.History(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "Status updated to PROCESSING", history[1].Note)
	require.Equal(t, "admin-1", history[1].CreatedBy)
}

func TestCreateWithoutProvince(t *testing.T) {
	store := newFakeStore()
	productID := uuid.New()
	cat := &fakeCatalog{snapshots: map[uuid.UUID]catalog.Snapshot{
		productID: {ProductID: productID, Name: "HD Lace Closure", UnitPrice: decimal.RequireFromString("450.00")},
	}}
	svc := newTestService(store, cat)

	// Province is optional: street, city and postal code alone complete the address.
	addr := ShippingAddress{Street: "8 Long Street", City: "Cape Town", PostalCode: "8001"}
	require.True(t, addr.Complete())

	ord, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Lines:         []CreateLine{{ProductID: productID, Qty: 1}},
		Address:       addr,
		CustomerEmail: "naledi@example.com",
	})
	require.NoError(t, err)
	require.Empty(t, ord.Address.Province)

	stored, err := store.Get(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Empty(t, stored.Address.Province)
	require.Equal(t, "Cape Town", stored.Address.City)
}

func TestChangeStatusTerminalRejectsRepeat(t *testing.T) {
	store := newFakeStore()
	productID := uuid.New()
	cat := &fakeCatalog{snapshots: map[uuid.UUID]catalog.Snapshot{
		productID: {ProductID: productID, Name: "Bob Wig", UnitPrice: decimal.RequireFromString("899.00")},
	}}
	svc := newTestService(store, cat)

	ord, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Lines:         []CreateLine{{ProductID: productID, Qty: 1}},
		Address:       testAddress(),
		CustomerEmail: "thandi@example.com",
	})
	require.NoError(t, err)

	_, err = svc.ChangeStatus(context.Background(), ord.ID, StatusCancelled, "admin-1", "")
	require.NoError(t, err)

	// A closed order rejects every further transition, including a repeat
	// of its current status; no history may be appended.
	_, err = svc.ChangeStatus(context.Background(), ord.ID, StatusCancelled, "admin-1", "")
	require.ErrorIs(t, err, ErrOrderClosed)
	_, err = svc.ChangeStatus(context.Background(), ord.ID, StatusProcessing, "admin-1", "")
	require.ErrorIs(t, err, ErrOrderClosed)

	history, err := svc.History(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestRecordPaymentEventCapturedCascades(t *testing.T) {
	store := newFakeStore()
	productID := uuid.New()
	cat := &fakeCatalog{snapshots: map[uuid.UUID]catalog.Snapshot{
		productID: {ProductID: productID, Name: "Frontal 13x4", UnitPrice: decimal.RequireFromString("1250.00")},
	}}
	svc := newTestService(store, cat)

	ord, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Lines:         []CreateLine{{ProductID: productID, Qty: 1}},
		Address:       testAddress(),
		CustomerEmail: "thandi@example.com",
	})
	require.NoError(t, err)

	updated, err := svc.RecordPaymentEvent(context.Background(), ord.ID, PaymentCaptured, "gateway")
	require.NoError(t, err)
	require.Equal(t, PaymentCaptured, updated.PaymentStatus)
	require.Equal(t, StatusConfirmed, updated.Status)
	require.True(t, updated.IsPaid())

	history, err := svc.History(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, "Payment status updated to CAPTURED", history[1].Note)
	require.Equal(t, StatusPending, history[1].Status)
	require.Equal(t, "Payment confirmed, order auto-confirmed", history[2].Note)
	require.Equal(t, StatusConfirmed, history[2].Status)
}

func TestRecordPaymentEventRefundCascades(t *testing.T) {
	store := newFakeStore()
	productID := uuid.New()
	cat := &fakeCatalog{snapshots: map[uuid.UUID]catalog.Snapshot{
		productID: {ProductID: productID, Name: "Tape-ins 50g", UnitPrice: decimal.RequireFromString("700.00")},
	}}
	svc := newTestService(store, cat)

	ord, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Lines:         []CreateLine{{ProductID: productID, Qty: 1}},
		Address:       testAddress(),
		CustomerEmail: "thandi@example.com",
	})
	require.NoError(t, err)

	_, err = svc.RecordPaymentEvent(context.Background(), ord.ID, PaymentCaptured, "gateway")
	require.NoError(t, err)
	_, err = svc.ChangeStatus(context.Background(), ord.ID, StatusShipped, "admin-1", "")
	require.NoError(t, err)

	updated, err := svc.RecordPaymentEvent(context.Background(), ord.ID, PaymentRefunded, "gateway")
	require.NoError(t, err)
	require.Equal(t, PaymentRefunded, updated.PaymentStatus)
	require.Equal(t, StatusRefunded, updated.Status)

	// Refunded is terminal both ways.
	_, err = svc.RecordPaymentEvent(context.Background(), ord.ID, PaymentCaptured, "gateway")
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.ChangeStatus(context.Background(), ord.ID, StatusProcessing, "admin-1", "")
	require.ErrorIs(t, err, ErrOrderClosed)

	history, err := svc.History(context.Background(), ord.ID)
	require.NoError(t, err)
	last := history[len(history)-1]
	require.Equal(t, "Order refunded", last.Note)
	require.Equal(t, StatusRefunded, last.Status)
}

func TestCancelOwn(t *testing.T) {
	store := newFakeStore()
	productID := uuid.New()
	cat := &fakeCatalog{snapshots: map[uuid.UUID]catalog.Snapshot{
		productID: {ProductID: productID, Name: "Clip-ins", UnitPrice: decimal.RequireFromString("550.00")},
	}}
	svc := newTestService(store, cat)
	userID := uuid.New()

	ord, err := svc.Create(context.Background(), userID, CreateInput{
		Lines:         []CreateLine{{ProductID: productID, Qty: 1}},
		Address:       testAddress(),
		CustomerEmail: "thandi@example.com",
	})
	require.NoError(t, err)

	// Someone else's order looks like it does not exist.
	_, err = svc.CancelOwn(context.Background(), ord.ID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	cancelled, err := svc.CancelOwn(context.Background(), ord.ID, userID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)

	history, err := svc.History(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Equal(t, "Cancelled by customer", history[len(history)-1].Note)
}

func TestCancelOwnRejectsProcessing(t *testing.T) {
	store := newFakeStore()
	productID := uuid.New()
	cat := &fakeCatalog{snapshots: map[uuid.UUID]catalog.Snapshot{
		productID: {ProductID: productID, Name: "Ponytail", UnitPrice: decimal.RequireFromString("320.00")},
	}}
	svc := newTestService(store, cat)
	userID := uuid.New()

	ord, err := svc.Create(context.Background(), userID, CreateInput{
		Lines:         []CreateLine{{ProductID: productID, Qty: 1}},
		Address:       testAddress(),
		CustomerEmail: "thandi@example.com",
	})
	require.NoError(t, err)

	_, err = svc.ChangeStatus(context.Background(), ord.ID, StatusProcessing, "admin-1", "")
	require.NoError(t, err)

	_, err = svc.CancelOwn(context.Background(), ord.ID, userID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusConcurrentModification(t *testing.T) {
	store := newFakeStore()
	id := uuid.New()
	store.orders[id] = &Order{ID: id, Status: StatusPending, PaymentStatus: PaymentPending, Version: 3}

	svc := newTestService(store, &fakeCatalog{})
	store.orders[id].Version = 4 // simulate a concurrent writer
	_, err := svc.Store.UpdateStatus(context.Background(), StatusUpdate{
		OrderID:         id,
		ExpectedVersion: 3,
		Status:          StatusProcessing,
		PaymentStatus:   PaymentPending,
	})
	require.ErrorIs(t, err, ErrConcurrentModification)
}

func TestHistoryUnknownOrder(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeCatalog{})
	_, err := svc.History(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
