package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists carts and cart items.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// GetActive loads the user's active cart with its lines.
func (s *PostgresStore) GetActive(ctx context.Context, userID uuid.UUID) (Cart, error) {
	if s == nil || s.Pool == nil {
		return Cart{}, errors.New("cart store not configured")
	}
	var c Cart
	err := s.Pool.QueryRow(ctx,
		`SELECT id, user_id, subtotal, discount_amount, total_amount, item_count, is_active, created_at, updated_at
		 FROM carts WHERE user_id = $1 AND is_active ORDER BY created_at DESC LIMIT 1`, userID).
		Scan(&c.ID, &c.UserID, &c.Subtotal, &c.DiscountAmount, &c.Total, &c.ItemCount, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, product_id, variant_id, product_name, COALESCE(image_url, ''), qty, unit_price, total_price, created_at
		 FROM cart_items WHERE cart_id = $1 ORDER BY created_at`, c.ID)
	if err != nil {
		return Cart{}, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.ProductID, &item.VariantID, &item.ProductName,
			&item.ImageURL, &item.Qty, &item.UnitPrice, &item.Total, &item.CreatedAt); err != nil {
			return Cart{}, err
		}
		c.Items = append(c.Items, item)
	}
	return c, rows.Err()
}

// Create inserts an empty cart header.
func (s *PostgresStore) Create(ctx context.Context, c *Cart) error {
	if s == nil || s.Pool == nil {
		return errors.New("cart store not configured")
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO carts (id, user_id, subtotal, discount_amount, total_amount, item_count, is_active, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.UserID, c.Subtotal, c.DiscountAmount, c.Total, c.ItemCount, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

// SaveItem upserts one cart line.
func (s *PostgresStore) SaveItem(ctx context.Context, cartID uuid.UUID, item Item) error {
	if s == nil || s.Pool == nil {
		return errors.New("cart store not configured")
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, variant_id, product_name, image_url, qty, unit_price, total_price, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO UPDATE SET qty = EXCLUDED.qty, unit_price = EXCLUDED.unit_price, total_price = EXCLUDED.total_price`,
		item.ID, cartID, item.ProductID, item.VariantID, item.ProductName,
		nilIfEmpty(item.ImageURL), item.Qty, item.UnitPrice, item.Total, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("save cart item: %w", err)
	}
	return nil
}

// DeleteItem removes one line from the cart.
func (s *PostgresStore) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	if s == nil || s.Pool == nil {
		return errors.New("cart store not configured")
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearItems removes every line from the cart.
func (s *PostgresStore) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	if s == nil || s.Pool == nil {
		return errors.New("cart store not configured")
	}
	if _, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	return nil
}

// SaveTotals writes the recalculated aggregate fields.
func (s *PostgresStore) SaveTotals(ctx context.Context, c Cart) error {
	if s == nil || s.Pool == nil {
		return errors.New("cart store not configured")
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE carts SET subtotal = $1, discount_amount = $2, total_amount = $3, item_count = $4, updated_at = $5
		 WHERE id = $6 AND is_active`,
		c.Subtotal, c.DiscountAmount, c.Total, c.ItemCount, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("save cart totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInactive
	}
	return nil
}

// Deactivate retires one cart.
func (s *PostgresStore) Deactivate(ctx context.Context, cartID uuid.UUID) error {
	if s == nil || s.Pool == nil {
		return errors.New("cart store not configured")
	}
	tag, err := s.Pool.Exec(ctx, `UPDATE carts SET is_active = false, updated_at = now() WHERE id = $1 AND is_active`, cartID)
	if err != nil {
		return fmt.Errorf("deactivate cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateExpired retires every active cart created before the cutoff and
// reports how many were swept.
func (s *PostgresStore) DeactivateExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.Pool == nil {
		return 0, errors.New("cart store not configured")
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE carts SET is_active = false, updated_at = now() WHERE is_active AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired carts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
