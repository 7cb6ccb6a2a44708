package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/thmjiya022/nnhair/internal/catalog"
	"github.com/thmjiya022/nnhair/internal/pricing"
)

type fakeStore struct {
	carts map[uuid.UUID]*Cart // keyed by cart ID
}

func newFakeStore() *fakeStore {
	return &fakeStore{carts: map[uuid.UUID]*Cart{}}
}

func (f *fakeStore) GetActive(_ context.Context, userID uuid.UUID) (Cart, error) {
	for _, c := range f.carts {
		if c.UserID == userID && c.IsActive {
			clone := *c
			clone.Items = append([]Item(nil), c.Items...)
			return clone, nil
		}
	}
	return Cart{}, ErrNotFound
}

func (f *fakeStore) Create(_ context.Context, c *Cart) error {
	clone := *c
	f.carts[c.ID] = &clone
	return nil
}

func (f *fakeStore) SaveItem(_ context.Context, cartID uuid.UUID, item Item) error {
	c := f.carts[cartID]
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			c.Items[i] = item
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

func (f *fakeStore) DeleteItem(_ context.Context, cartID, itemID uuid.UUID) error {
	c := f.carts[cartID]
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) ClearItems(_ context.Context, cartID uuid.UUID) error {
	f.carts[cartID].Items = nil
	return nil
}

func (f *fakeStore) SaveTotals(_ context.Context, c Cart) error {
	stored, ok := f.carts[c.ID]
	if !ok || !stored.IsActive {
		return ErrInactive
	}
	stored.Subtotal = c.Subtotal
	stored.DiscountAmount = c.DiscountAmount
	stored.Total = c.Total
	stored.ItemCount = c.ItemCount
	stored.UpdatedAt = c.UpdatedAt
	return nil
}

func (f *fakeStore) Deactivate(_ context.Context, cartID uuid.UUID) error {
	c, ok := f.carts[cartID]
	if !ok || !c.IsActive {
		return ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (f *fakeStore) DeactivateExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var swept int64
	for _, c := range f.carts {
		if c.IsActive && c.CreatedAt.Before(cutoff) {
			c.IsActive = false
			swept++
		}
	}
	return swept, nil
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
		Now:     func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) },
	}
}

func seedCatalog(products ...catalog.Snapshot) *fakeCatalog {
	cat := &fakeCatalog{snapshots: map[uuid.UUID]catalog.Snapshot{}}
	for _, p := range products {
		cat.snapshots[p.ProductID] = p
	}
	return cat
}

func TestGetCreatesEmptyCart(t *testing.T) {
	svc := newTestService(newFakeStore(), seedCatalog())
	userID := uuid.New()

	c, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, c.IsActive)
	require.Equal(t, 0, c.ItemCount)
	require.True(t, c.Subtotal.IsZero())
	require.True(t, c.Total.IsZero())

	// Second read returns the same cart.
	again, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, c.ID, again.ID)
}

func TestAddItemRecalculatesAggregates(t *testing.T) {
	wigID, bundleID := uuid.New(), uuid.New()
	cat := seedCatalog(
		catalog.Snapshot{ProductID: wigID, Name: "Bob Wig", UnitPrice: decimal.RequireFromString("899.00")},
		catalog.Snapshot{ProductID: bundleID, Name: "Brazilian Bundle 18\"", UnitPrice: decimal.RequireFromString("450.00")},
	)
	svc := newTestService(newFakeStore(), cat)
	userID := uuid.New()

	c, err := svc.AddItem(context.Background(), userID, wigID, nil, 1)
	require.NoError(t, err)
	require.Equal(t, 1, c.ItemCount)
	require.Equal(t, "899", c.Subtotal.String())

	c, err = svc.AddItem(context.Background(), userID, bundleID, nil, 3)
	require.NoError(t, err)
	// Item count is distinct lines, not units.
	require.Equal(t, 2, c.ItemCount)
	require.Equal(t, "2249", c.Subtotal.String())
	require.Equal(t, "2249", c.Total.String())

	// Adding the same product again merges into the existing line.
	c, err = svc.AddItem(context.Background(), userID, wigID, nil, 1)
	require.NoError(t, err)
	require.Equal(t, 2, c.ItemCount)
	require.Equal(t, "3148", c.Subtotal.String())
	require.Equal(t, 2, c.Items[0].Qty)
}

func TestAddItemAppliesVariantDelta(t *testing.T) {
	productID, variantID := uuid.New(), uuid.New()
	cat := seedCatalog(catalog.Snapshot{
		ProductID:    productID,
		Name:         "Peruvian Straight",
		UnitPrice:    decimal.RequireFromString("400.00"),
		VariantDelta: decimal.RequireFromString("150.00"),
	})
	svc := newTestService(newFakeStore(), cat)

	c, err := svc.AddItem(context.Background(), uuid.New(), productID, &variantID, 2)
	require.NoError(t, err)
	require.Equal(t, "550", c.Items[0].UnitPrice.String())
	require.Equal(t, "1100", c.Subtotal.String())
}

func TestAddItemRejectsNonPositiveQty(t *testing.T) {
	svc := newTestService(newFakeStore(), seedCatalog())
	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), nil, 0)
	require.ErrorIs(t, err, pricing.ErrInvalidQuantity)
}

func TestUpdateQtyAndRemove(t *testing.T) {
	productID := uuid.New()
	cat := seedCatalog(catalog.Snapshot{ProductID: productID, Name: "Clip-ins", UnitPrice: decimal.RequireFromString("550.00")})
	svc := newTestService(newFakeStore(), cat)
	userID := uuid.New()

	c, err := svc.AddItem(context.Background(), userID, productID, nil, 1)
	require.NoError(t, err)
	itemID := c.Items[0].ID

	c, err = svc.UpdateQty(context.Background(), userID, itemID, 4)
	require.NoError(t, err)
	require.Equal(t, "2200", c.Subtotal.String())
	require.Equal(t, 1, c.ItemCount)

	_, err = svc.UpdateQty(context.Background(), userID, uuid.New(), 2)
	require.ErrorIs(t, err, ErrNotFound)

	c, err = svc.RemoveItem(context.Background(), userID, itemID)
	require.NoError(t, err)
	require.Equal(t, 0, c.ItemCount)
	require.True(t, c.Subtotal.IsZero())
}

func TestClear(t *testing.T) {
	productID := uuid.New()
	cat := seedCatalog(catalog.Snapshot{ProductID: productID, Name: "Ponytail", UnitPrice: decimal.RequireFromString("320.00")})
	svc := newTestService(newFakeStore(), cat)
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, productID, nil, 2)
	require.NoError(t, err)

	c, err := svc.Clear(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, c.Items)
	require.Equal(t, 0, c.ItemCount)
	require.True(t, c.Total.IsZero())
}

func TestExpiredCartIsReplacedOnRead(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, seedCatalog())
	userID := uuid.New()

	stale := &Cart{
		ID:        uuid.New(),
		UserID:    userID,
		IsActive:  true,
		CreatedAt: svc.Now().Add(-31 * 24 * time.Hour),
	}
	store.carts[stale.ID] = stale

	c, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	require.NotEqual(t, stale.ID, c.ID)
}

func TestDeactivateExpiredSweep(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, seedCatalog())
	now := svc.Now()

	old := &Cart{ID: uuid.New(), UserID: uuid.New(), IsActive: true, CreatedAt: now.Add(-45 * 24 * time.Hour)}
	recent := &Cart{ID: uuid.New(), UserID: uuid.New(), IsActive: true, CreatedAt: now.Add(-24 * time.Hour)}
	store.carts[old.ID] = old
	store.carts[recent.ID] = recent

	swept, err := svc.DeactivateExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, swept)
	require.False(t, old.IsActive)
	require.True(t, recent.IsActive)
}
