package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists wishlists and their items.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

func (s *PostgresStore) GetByUser(ctx context.Context, userID uuid.UUID) (Wishlist, error) {
	if s == nil || s.Pool == nil {
		return Wishlist{}, errors.New("wishlist store not configured")
	}
	var l Wishlist
	err := s.Pool.QueryRow(ctx,
		`SELECT id, user_id, item_count, created_at, updated_at FROM wishlists WHERE user_id = $1`, userID).
		Scan(&l.ID, &l.UserID, &l.ItemCount, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wishlist{}, ErrNotFound
		}
		return Wishlist{}, fmt.Errorf("load wishlist: %w", err)
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, product_id, product_name, COALESCE(image_url, ''), created_at
		 FROM wishlist_items WHERE wishlist_id = $1 ORDER BY created_at`, l.ID)
	if err != nil {
		return Wishlist{}, fmt.Errorf("list wishlist items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.ImageURL, &item.CreatedAt); err != nil {
			return Wishlist{}, err
		}
		l.Items = append(l.Items, item)
	}
	return l, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, l *Wishlist) error {
	if s == nil || s.Pool == nil {
		return errors.New("wishlist store not configured")
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO wishlists (id, user_id, item_count, created_at, updated_at) VALUES ($1,$2,$3,$4,$5)`,
		l.ID, l.UserID, l.ItemCount, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert wishlist: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddItem(ctx context.Context, listID uuid.UUID, item Item) error {
	if s == nil || s.Pool == nil {
		return errors.New("wishlist store not configured")
	}
	var imageURL *string
	if item.ImageURL != "" {
		imageURL = &item.ImageURL
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO wishlist_items (id, wishlist_id, product_id, product_name, image_url, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		item.ID, listID, item.ProductID, item.ProductName, imageURL, item.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("insert wishlist item: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteItem(ctx context.Context, listID, itemID uuid.UUID) error {
	if s == nil || s.Pool == nil {
		return errors.New("wishlist store not configured")
	}
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM wishlist_items WHERE id = $1 AND wishlist_id = $2`, itemID, listID)
	if err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ClearItems(ctx context.Context, listID uuid.UUID) error {
	if s == nil || s.Pool == nil {
		return errors.New("wishlist store not configured")
	}
	if _, err := s.Pool.Exec(ctx, `DELETE FROM wishlist_items WHERE wishlist_id = $1`, listID); err != nil {
		return fmt.Errorf("clear wishlist items: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveCount(ctx context.Context, l Wishlist) error {
	if s == nil || s.Pool == nil {
		return errors.New("wishlist store not configured")
	}
	if _, err := s.Pool.Exec(ctx,
		`UPDATE wishlists SET item_count = $1, updated_at = $2 WHERE id = $3`,
		l.ItemCount, l.UpdatedAt, l.ID); err != nil {
		return fmt.Errorf("save wishlist count: %w", err)
	}
	return nil
}
