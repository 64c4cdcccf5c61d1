package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ordersvc/pkg/order"
)

// Schema creates the orders table used by Repository.
const Schema = `CREATE TABLE IF NOT EXISTS orders (
	id         TEXT PRIMARY KEY,
	user_id    BIGINT NOT NULL,
	product_id BIGINT NOT NULL,
	mode       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Repository persists orders in PostgreSQL.
type Repository struct {
	db *sql.DB
}

// New creates a PostgreSQL repository.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the orders table when it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("%w: create table: %w", order.ErrStorage, err)
	}
	return nil
}

// Add inserts a new order in a single statement.
func (r *Repository) Add(ctx context.Context, o order.Order) (order.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	const q = `INSERT INTO orders (id,user_id,product_id,mode) VALUES ($1,$2,$3,$4) RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, q, o.ID, o.UserID, o.ProductID, string(o.Mode)).Scan(&o.CreatedAt); err != nil {
		return order.Order{}, fmt.Errorf("%w: insert order: %w", order.ErrStorage, err)
	}
	return o, nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	var o order.Order
	err := r.db.QueryRowContext(ctx, "SELECT id,user_id,product_id,mode,created_at FROM orders WHERE id=$1", id).
		Scan(&o.ID, &o.UserID, &o.ProductID, &o.Mode, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: get order: %w", order.ErrStorage, err)
	}
	return o, nil
}

// List fetches all orders, oldest first.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id,user_id,product_id,mode,created_at FROM orders ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %w", order.ErrStorage, err)
	}
	defer rows.Close()

	orders := []order.Order{}
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Mode, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan order: %w", order.ErrStorage, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list orders: %w", order.ErrStorage, err)
	}
	return orders, nil
}
