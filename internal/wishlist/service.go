// Package wishlist keeps the per-user saved-products list. Unlike the cart
// it carries no money fields; the only derived aggregate is the item count.
package wishlist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/thmjiya022/nnhair/internal/catalog"
)

var (
	// ErrNotFound indicates the wishlist item could not be located.
	ErrNotFound = errors.New("wishlist: not found")
	// ErrDuplicate is returned when the product is already on the list.
	ErrDuplicate = errors.New("wishlist: product already saved")
)

// Item is one saved product with a display snapshot.
type Item struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Wishlist is the aggregate. ItemCount is re-derived on every mutation.
type Wishlist struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	ItemCount int       `json:"itemCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Items     []Item    `json:"items"`
}

// Recalculate re-derives the item count from the lines.
func (l *Wishlist) Recalculate() {
	l.ItemCount = len(l.Items)
}

// Store is the durable storage collaborator.
type Store interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (Wishlist, error)
	Create(ctx context.Context, l *Wishlist) error
	AddItem(ctx context.Context, listID uuid.UUID, item Item) error
	DeleteItem(ctx context.Context, listID, itemID uuid.UUID) error
	ClearItems(ctx context.Context, listID uuid.UUID) error
	SaveCount(ctx context.Context, l Wishlist) error
}

// Catalog supplies display snapshots for saved products.
type Catalog interface {
	Snapshot(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (catalog.Snapshot, error)
}

// Service coordinates wishlist mutations.
type Service struct {
	Store   Store
	Catalog Catalog
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get returns the user's wishlist, creating an empty one on first use.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (Wishlist, error) {
	if s == nil || s.Store == nil {
		return Wishlist{}, errors.New("wishlist service not configured")
	}
	existing, err := s.Store.GetByUser(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Wishlist{}, err
	}
	now := s.now()
	fresh := Wishlist{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	fresh.Recalculate()
	if err := s.Store.Create(ctx, &fresh); err != nil {
		return Wishlist{}, err
	}
	return fresh, nil
}

// AddItem saves a product. Saving the same product twice is rejected.
func (s *Service) AddItem(ctx context.Context, userID, productID uuid.UUID) (Wishlist, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return Wishlist{}, errors.New("wishlist service not configured")
	}
	l, err := s.Get(ctx, userID)
	if err != nil {
		return Wishlist{}, err
	}
	for _, item := range l.Items {
		if item.ProductID == productID {
			return Wishlist{}, ErrDuplicate
		}
	}
	snap, err := s.Catalog.Snapshot(ctx, productID, nil)
	if err != nil {
		return Wishlist{}, err
	}
	item := Item{
		ID:          uuid.New(),
		ProductID:   snap.ProductID,
		ProductName: snap.Name,
		ImageURL:    snap.ImageURL,
		CreatedAt:   s.now(),
	}
	if err := s.Store.AddItem(ctx, l.ID, item); err != nil {
		return Wishlist{}, err
	}
	l.Items = append(l.Items, item)
	return s.persist(ctx, l)
}

// RemoveItem drops one saved product.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (Wishlist, error) {
	if s == nil || s.Store == nil {
		return Wishlist{}, errors.New("wishlist service not configured")
	}
	l, err := s.Get(ctx, userID)
	if err != nil {
		return Wishlist{}, err
	}
	idx := -1
	for i, item := range l.Items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Wishlist{}, ErrNotFound
	}
	if err := s.Store.DeleteItem(ctx, l.ID, itemID); err != nil {
		return Wishlist{}, err
	}
	l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
	return s.persist(ctx, l)
}

// Clear removes every saved product.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) (Wishlist, error) {
	if s == nil || s.Store == nil {
		return Wishlist{}, errors.New("wishlist service not configured")
	}
	l, err := s.Get(ctx, userID)
	if err != nil {
		return Wishlist{}, err
	}
	if err := s.Store.ClearItems(ctx, l.ID); err != nil {
		return Wishlist{}, err
	}
	l.Items = nil
	return s.persist(ctx, l)
}

func (s *Service) persist(ctx context.Context, l Wishlist) (Wishlist, error) {
	l.Recalculate()
	l.UpdatedAt = s.now()
	if err := s.Store.SaveCount(ctx, l); err != nil {
		return Wishlist{}, err
	}
	return l, nil
}
