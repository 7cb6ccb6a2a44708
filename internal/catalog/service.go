// Package catalog supplies product snapshots to the order core and a small
// browse surface. Stock arithmetic lives at the storage layer as an atomic
// compare-and-decrement so concurrent checkouts cannot oversell.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the product or variant does not exist or is inactive.
	ErrNotFound = errors.New("catalog: product not found")
	// ErrInsufficientStock indicates the requested quantity exceeds available stock.
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
	// ErrVariantMismatch indicates the variant does not belong to the product.
	ErrVariantMismatch = errors.New("catalog: variant does not belong to product")
)

// Snapshot freezes the catalog fields an order line needs at creation time.
type Snapshot struct {
	ProductID    uuid.UUID       `json:"productId"`
	VariantID    *uuid.UUID      `json:"variantId,omitempty"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku,omitempty"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	VariantDelta decimal.Decimal `json:"variantDelta"`
	Stock        int             `json:"stock"`
}

// Service reads product data with a Redis read-through cache in front of
// Postgres.
type Service struct {
	Pool  *pgxpool.Pool
	Cache *Cache
}

// Product is the browse-facing product view.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Slug      string          `json:"slug"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku,omitempty"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Stock     int             `json:"stock"`
	Active    bool            `json:"active"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Snapshot loads the pricing snapshot for a product and optional variant.
func (s *Service) Snapshot(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (Snapshot, error) {
	if s == nil || s.Pool == nil {
		return Snapshot{}, errors.New("catalog service not configured")
	}
	var snap Snapshot
	err := s.Pool.QueryRow(ctx,
		`SELECT id, name, sku, COALESCE(image_url, ''), price, stock_quantity
		 FROM products WHERE id = $1 AND is_active`, productID).
		Scan(&snap.ProductID, &snap.Name, &snap.SKU, &snap.ImageURL, &snap.UnitPrice, &snap.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("load product: %w", err)
	}
	if variantID != nil {
		var owner uuid.UUID
		var stock int
		err := s.Pool.QueryRow(ctx,
			`SELECT product_id, additional_price, stock_quantity
			 FROM product_variants WHERE id = $1`, *variantID).
			Scan(&owner, &snap.VariantDelta, &stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Snapshot{}, ErrNotFound
			}
			return Snapshot{}, fmt.Errorf("load variant: %w", err)
		}
		if owner != productID {
			return Snapshot{}, ErrVariantMismatch
		}
		snap.VariantID = variantID
		snap.Stock = stock
	}
	return snap, nil
}

// Get returns the browse view for a product slug, served from cache when warm.
func (s *Service) Get(ctx context.Context, slug string) (Product, error) {
	if s == nil || s.Pool == nil {
		return Product{}, errors.New("catalog service not configured")
	}
	key := "catalog:slug:" + slug
	var cached Product
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}
	var p Product
	err := s.Pool.QueryRow(ctx,
		`SELECT id, slug, name, sku, price, COALESCE(image_url, ''), stock_quantity, is_active, updated_at
		 FROM products WHERE slug = $1 AND is_active`, slug).
		Scan(&p.ID, &p.Slug, &p.Name, &p.SKU, &p.Price, &p.ImageURL, &p.Stock, &p.Active, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("load product: %w", err)
	}
	_ = s.Cache.SetJSON(ctx, key, p)
	return p, nil
}

// List returns active products, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Product, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("catalog service not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, slug, name, sku, price, COALESCE(image_url, ''), stock_quantity, is_active, updated_at
		 FROM products WHERE is_active
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.SKU, &p.Price, &p.ImageURL, &p.Stock, &p.Active, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// DecrementStock atomically decreases available stock for a product or
// variant inside the provided transaction. The WHERE guard makes the
// decrement a compare-and-swap; zero rows affected means another checkout
// took the stock first.
func DecrementStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("catalog: decrement quantity must be positive")
	}
	var tag string
	var args []any
	if variantID != nil {
		tag = `UPDATE product_variants
		       SET stock_quantity = stock_quantity - $1
		       WHERE id = $2 AND stock_quantity >= $1`
		args = []any{qty, *variantID}
	} else {
		tag = `UPDATE products
		       SET stock_quantity = stock_quantity - $1, updated_at = now()
		       WHERE id = $2 AND stock_quantity >= $1`
		args = []any{qty, productID}
	}
	res, err := tx.Exec(ctx, tag, args...)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}
