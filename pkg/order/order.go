package order

import (
	"context"
	"errors"
	"time"
)

// Mode is the lifecycle mode requested for an order.
type Mode string

// Supported modes.
const (
	ModeDraft    Mode = "draft"
	ModeApproved Mode = "approved"
)

// Request is the payload of an order creation call.
type Request struct {
	UserID    int64 `json:"userId" validate:"required,gt=0"`
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Mode      Mode  `json:"mode" validate:"required,oneof=draft approved"`
}

// Order represents a persisted customer order.
type Order struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	ProductID int64     `json:"productId"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromRequest builds an unsaved order from a creation request.
func FromRequest(req Request) Order {
	return Order{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Mode:      req.Mode,
	}
}

// Repository defines behavior for persisting orders.
//
// Add either stores the whole order or nothing; it assigns ID and CreatedAt
// when they are unset and returns the stored value. Faults wrap ErrStorage.
type Repository interface {
	Add(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context) ([]Order, error)
}

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrStorage indicates the underlying store failed.
	ErrStorage = errors.New("order storage failure")
)
