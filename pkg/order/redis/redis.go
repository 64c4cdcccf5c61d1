// Package redis implements an order repository on top of Redis. Each order is
// a JSON value under "<prefix>:order:<id>" and a sorted set indexes ids by
// creation time.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ordersvc/pkg/order"
)

// Repository persists orders in Redis.
type Repository struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// New creates a Redis repository. Keys are namespaced by prefix.
func New(client *redis.Client, prefix string) *Repository {
	return &Repository{
		client: client,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *Repository) orderKey(id string) string {
	return fmt.Sprintf("%s:order:%s", r.prefix, id)
}

func (r *Repository) indexKey() string {
	return r.prefix + ":orders"
}

// Add writes the order and its index entry in one MULTI/EXEC transaction.
func (r *Repository) Add(ctx context.Context, o order.Order) (order.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = r.now()
	}

	payload, err := json.Marshal(o)
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: encode order: %w", order.ErrStorage, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.orderKey(o.ID), payload, 0)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(o.CreatedAt.UnixMilli()), Member: o.ID})
		return nil
	})
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: write order: %w", order.ErrStorage, err)
	}
	return o, nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	raw, err := r.client.Get(ctx, r.orderKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return order.Order{}, order.ErrNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: get order: %w", order.ErrStorage, err)
	}

	var o order.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return order.Order{}, fmt.Errorf("%w: decode order: %w", order.ErrStorage, err)
	}
	return o, nil
}

// List returns all orders, oldest first.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read index: %w", order.ErrStorage, err)
	}
	orders := make([]order.Order, 0, len(ids))
	if len(ids) == 0 {
		return orders, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.orderKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read orders: %w", order.ErrStorage, err)
	}

	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var o order.Order
		if err := json.Unmarshal([]byte(s), &o); err != nil {
			return nil, fmt.Errorf("%w: decode order: %w", order.ErrStorage, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}
