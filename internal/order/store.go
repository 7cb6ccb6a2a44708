package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thmjiya022/nnhair/internal/catalog"
)

// PostgresStore persists orders, lines and history in Postgres. Header,
// lines, first history entry and stock decrements commit in one transaction.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

const orderColumns = `id, order_number, user_id, customer_email, customer_phone, customer_name,
	street, city, province, postal_code, country, apartment, delivery_instructions,
	subtotal, shipping_cost, tax_amount, discount_amount, total_amount, currency,
	status, payment_method, payment_status, notes, created_at, updated_at, updated_by, version`

// Create inserts the order aggregate and decrements stock for every line.
// A colliding order number surfaces as ErrNumberConflict so the caller can
// regenerate; any other failure rolls the whole write back.
func (s *PostgresStore) Create(ctx context.Context, o *Order, initial HistoryEntry) error {
	if s == nil || s.Pool == nil {
		return errors.New("order store not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`,
		o.ID, o.Number, o.UserID, o.CustomerEmail, nullable(o.CustomerPhone), nullable(o.CustomerName),
		o.Address.Street, o.Address.City, nullable(o.Address.Province), o.Address.PostalCode,
		nullable(o.Address.Country), nullable(o.Address.Apartment), nullable(o.Address.DeliveryInstructions),
		o.Subtotal, o.ShippingCost, o.TaxAmount, o.DiscountAmount, o.Total, o.Currency,
		string(o.Status), nullable(string(o.PaymentMethod)), string(o.PaymentStatus), nullable(o.Notes),
		o.CreatedAt, o.UpdatedAt, nullable(o.UpdatedBy), o.Version)
	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return ErrNumberConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range o.Lines {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, variant_id, product_name, product_sku, image_url, qty, unit_price, total_price)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			line.ID, o.ID, line.ProductID, line.VariantID, line.ProductName,
			nullable(line.ProductSKU), nullable(line.ImageURL), line.Qty, line.UnitPrice, line.Total)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		if err := catalog.DecrementStock(ctx, tx, line.ProductID, line.VariantID, line.Qty); err != nil {
			return err
		}
	}

	if err := insertHistory(ctx, tx, initial); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Get loads an order with its lines.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	return s.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetForUser loads an order only when it belongs to the given user.
func (s *PostgresStore) GetForUser(ctx context.Context, id, userID uuid.UUID) (Order, error) {
	return s.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, id, userID)
}

func (s *PostgresStore) get(ctx context.Context, query string, args ...any) (Order, error) {
	if s == nil || s.Pool == nil {
		return Order{}, errors.New("order store not configured")
	}
	row := s.Pool.QueryRow(ctx, query, args...)
	ord, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("load order: %w", err)
	}
	lines, err := s.lines(ctx, ord.ID)
	if err != nil {
		return Order{}, err
	}
	ord.Lines = lines
	return ord, nil
}

// ListForUser returns the user's order headers, newest first, plus the total count.
func (s *PostgresStore) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, int64, error) {
	if s == nil || s.Pool == nil {
		return nil, 0, errors.New("order store not configured")
	}
	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, ord)
	}
	return orders, total, rows.Err()
}

// UpdateStatus applies a status mutation guarded by the version column and
// appends the history entries in the same transaction. A stale version
// yields ErrConcurrentModification.
func (s *PostgresStore) UpdateStatus(ctx context.Context, update StatusUpdate) (Order, error) {
	if s == nil || s.Pool == nil {
		return Order{}, errors.New("order store not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx,
		`UPDATE orders
		 SET status = $1, payment_status = $2, updated_at = now(), updated_by = $3, version = version + 1
		 WHERE id = $4 AND version = $5`,
		string(update.Status), string(update.PaymentStatus), nullable(update.UpdatedBy),
		update.OrderID, update.ExpectedVersion)
	if err != nil {
		return Order{}, fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, update.OrderID).Scan(&exists); err != nil {
			return Order{}, fmt.Errorf("check order exists: %w", err)
		}
		if !exists {
			return Order{}, ErrNotFound
		}
		return Order{}, ErrConcurrentModification
	}

	for _, entry := range update.Entries {
		if err := insertHistory(ctx, tx, entry); err != nil {
			return Order{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit status update: %w", err)
	}
	return s.Get(ctx, update.OrderID)
}

// History returns the ledger entries for an order in insertion order.
func (s *PostgresStore) History(ctx context.Context, orderID uuid.UUID) ([]HistoryEntry, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("order store not configured")
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, order_id, status, COALESCE(note, ''), COALESCE(created_by, ''), created_at
		 FROM order_status_history WHERE order_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()
	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var status string
		if err := rows.Scan(&e.ID, &e.OrderID, &status, &e.Note, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Status = Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) lines(ctx context.Context, orderID uuid.UUID) ([]Line, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, product_id, variant_id, product_name, COALESCE(product_sku, ''), COALESCE(image_url, ''), qty, unit_price, total_price
		 FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.ProductID, &line.VariantID, &line.ProductName,
			&line.ProductSKU, &line.ImageURL, &line.Qty, &line.UnitPrice, &line.Total); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func insertHistory(ctx context.Context, tx pgx.Tx, entry HistoryEntry) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO order_status_history (id, order_id, status, note, created_by, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		entry.ID, entry.OrderID, string(entry.Status), nullable(entry.Note), nullable(entry.CreatedBy), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	var phone, name, province, country, apartment, instructions, method, notes, updatedBy *string
	var status, payment string
	err := row.Scan(&o.ID, &o.Number, &o.UserID, &o.CustomerEmail, &phone, &name,
		&o.Address.Street, &o.Address.City, &province, &o.Address.PostalCode,
		&country, &apartment, &instructions,
		&o.Subtotal, &o.ShippingCost, &o.TaxAmount, &o.DiscountAmount, &o.Total, &o.Currency,
		&status, &method, &payment, &notes, &o.CreatedAt, &o.UpdatedAt, &updatedBy, &o.Version)
	if err != nil {
		return Order{}, err
	}
	o.CustomerPhone = deref(phone)
	o.CustomerName = deref(name)
	o.Address.Province = deref(province)
	o.Address.Country = deref(country)
	o.Address.Apartment = deref(apartment)
	o.Address.DeliveryInstructions = deref(instructions)
	o.Status = Status(status)
	o.PaymentMethod = PaymentMethod(deref(method))
	o.PaymentStatus = PaymentStatus(payment)
	o.Notes = deref(notes)
	o.UpdatedBy = deref(updatedBy)
	return o, nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
}
