// Package orchestrator drives order creation: validate the user, persist the
// order, then notify. Each step runs only after the previous one resolved.
//
//	validation      next step                              error kind
//	found           persist, notify manager                -
//	not found       stop                                   not_found
//	unavailable     stop                                   unavailable
//	store fault     notify admin                           internal
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"ordersvc/pkg/apperr"
	"ordersvc/pkg/logger"
	"ordersvc/pkg/metrics"
	"ordersvc/pkg/notify"
	"ordersvc/pkg/order"
	"ordersvc/pkg/otel"
	"ordersvc/pkg/user"
)

// UserValidator confirms that a user exists.
type UserValidator interface {
	Validate(ctx context.Context, id int64) (user.User, error)
}

// OrderStore persists orders.
type OrderStore interface {
	Add(ctx context.Context, o order.Order) (order.Order, error)
}

// Notifier dispatches the post-creation email.
type Notifier interface {
	Notify(ctx context.Context, kind notify.Kind, ev notify.Event) error
}

// Orchestrator creates orders.
type Orchestrator struct {
	log      *logger.Logger
	users    UserValidator
	store    OrderStore
	notifier Notifier
	metrics  *metrics.Metrics
	validate *validator.Validate
}

// New creates an Orchestrator. m may be nil.
func New(log *logger.Logger, users UserValidator, store OrderStore, notifier Notifier, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		log:      log,
		users:    users,
		store:    store,
		notifier: notifier,
		metrics:  m,
		validate: validator.New(),
	}
}

// Create runs the creation flow for req. The returned error classifies with
// apperr.Kind; notification failures are logged and never returned.
func (o *Orchestrator) Create(ctx context.Context, req order.Request) (order.Order, error) {
	ctx, span := otel.AddSpan(ctx, "orchestrator.create",
		attribute.Int64("user.id", req.UserID),
		attribute.Int64("product.id", req.ProductID),
		attribute.String("order.mode", string(req.Mode)),
	)
	defer span.End()

	if err := o.validate.Struct(req); err != nil {
		o.metrics.Outcome("invalid")
		return order.Order{}, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}

	u, err := o.users.Validate(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		return order.Order{}, o.rejectUser(ctx, req, err)
	}

	stored, err := o.addOrder(ctx, order.FromRequest(req))
	if err != nil {
		span.RecordError(err)
		cause := fmt.Errorf("%w: add order: %w", apperr.ErrInternal, err)
		o.log.Error(ctx, "add order", "user_id", req.UserID, "product_id", req.ProductID, "error", err)
		o.metrics.Outcome("internal")

		o.notify(ctx, notify.KindInternalFailure, notify.Event{Request: req, Cause: cause})
		return order.Order{}, cause
	}

	o.metrics.Created()
	o.metrics.Outcome("created")
	o.log.Info(ctx, "order created", "order_id", stored.ID, "user_id", u.ID, "product_id", stored.ProductID, "mode", stored.Mode)

	o.notify(ctx, notify.KindSuccess, notify.Event{Order: stored})
	return stored, nil
}

// rejectUser maps a validation failure. Nothing is persisted or sent.
func (o *Orchestrator) rejectUser(ctx context.Context, req order.Request, err error) error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		o.log.Info(ctx, "user not found", "user_id", req.UserID)
		o.metrics.Outcome("not_found")
		return fmt.Errorf("validate user %d: %w", req.UserID, err)

	case errors.Is(err, apperr.ErrUnavailable):
		o.log.Warn(ctx, "user service unavailable", "user_id", req.UserID, "error", err)
		o.metrics.Outcome("unavailable")
		return fmt.Errorf("validate user %d: %w", req.UserID, err)

	default:
		o.log.Error(ctx, "unexpected user validation failure", "user_id", req.UserID, "error", err)
		o.metrics.Outcome("unavailable")
		return fmt.Errorf("%w: validate user %d: %w", apperr.ErrUnavailable, req.UserID, err)
	}
}

// addOrder calls the store, turning a panic into a storage fault.
func (o *Orchestrator) addOrder(ctx context.Context, ord order.Order) (stored order.Order, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: store panicked: %v", order.ErrStorage, r)
		}
	}()
	return o.store.Add(ctx, ord)
}

// notify sends one email on a context detached from the caller's
// cancellation. Failures are absorbed here.
func (o *Orchestrator) notify(ctx context.Context, kind notify.Kind, ev notify.Event) {
	ctx = context.WithoutCancel(ctx)

	err := o.notifier.Notify(ctx, kind, ev)
	o.metrics.Notification(kind.String(), err)
	if err != nil {
		o.log.Error(ctx, "notification failed", "kind", kind.String(), "error", err)
	}
}
