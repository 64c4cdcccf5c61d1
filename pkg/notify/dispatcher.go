// Package notify builds and dispatches the single email that follows an order
// creation attempt: a summary for the store manager on success, an alert for
// the administrator on an internal failure.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"ordersvc/pkg/apperr"
	"ordersvc/pkg/logger"
	"ordersvc/pkg/mailer"
	"ordersvc/pkg/order"
)

// Kind selects the recipient and content of a notification.
type Kind int

// Notification kinds.
const (
	KindSuccess Kind = iota + 1
	KindInternalFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindInternalFailure:
		return "internal_failure"
	default:
		return "unknown"
	}
}

// Event is the context a notification is built from. Success events carry
// the stored Order; failure events carry the Request and the Cause.
type Event struct {
	Order   order.Order
	Request order.Request
	Cause   error
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Config holds the mail switch and the recipients.
type Config struct {
	Enabled        bool
	ManagerAddress string
	AdminAddress   string
}

// Dispatcher sends notifications.
type Dispatcher struct {
	log      *logger.Logger
	sender   Sender
	cfg      Config
	validate *validator.Validate
}

// New creates a Dispatcher.
func New(log *logger.Logger, sender Sender, cfg Config) *Dispatcher {
	return &Dispatcher{
		log:      log,
		sender:   sender,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// Notify sends the email for kind. With mail sending disabled it does nothing
// and reports success. Failures wrap apperr.ErrNotification.
func (d *Dispatcher) Notify(ctx context.Context, kind Kind, ev Event) error {
	if !d.cfg.Enabled {
		d.log.Debug(ctx, "mail sending disabled, skipping notification", "kind", kind.String())
		return nil
	}

	msg, err := d.Message(kind, ev)
	if err != nil {
		return err
	}
	if err := d.validate.Struct(msg); err != nil {
		return fmt.Errorf("%w: invalid message: %w", apperr.ErrNotification, err)
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s notification: %w", kind, err)
	}
	return nil
}

// Message builds the email for kind without sending it.
func (d *Dispatcher) Message(kind Kind, ev Event) (mailer.Message, error) {
	switch kind {
	case KindSuccess:
		o := ev.Order
		return mailer.Message{
			RecipientAddress: d.cfg.ManagerAddress,
			Subject:          fmt.Sprintf("New order %s", o.ID),
			Body: fmt.Sprintf(
				"Order %s was created at %s.\nUser: %d\nProduct: %d\nMode: %s\n",
				o.ID, o.CreatedAt.Format(time.RFC3339), o.UserID, o.ProductID, o.Mode,
			),
		}, nil

	case KindInternalFailure:
		r := ev.Request
		cause := "unknown error"
		if ev.Cause != nil {
			cause = ev.Cause.Error()
		}
		return mailer.Message{
			RecipientAddress: d.cfg.AdminAddress,
			Subject:          fmt.Sprintf("Order creation failed for user %d", r.UserID),
			Body: fmt.Sprintf(
				"An order could not be created after the user was validated.\nUser: %d\nProduct: %d\nMode: %s\nKind: %s\nError: %s\n",
				r.UserID, r.ProductID, r.Mode, apperr.Kind(ev.Cause), cause,
			),
		}, nil

	default:
		return mailer.Message{}, fmt.Errorf("%w: unknown notification kind %d", apperr.ErrNotification, int(kind))
	}
}
