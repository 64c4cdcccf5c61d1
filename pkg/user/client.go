// Package user validates user ids against the external user service.
//
// Validate has three outcomes: the user (found), an error wrapping
// apperr.ErrNotFound (the service answered 404), or an error wrapping
// apperr.ErrUnavailable (timeout, network fault, open breaker or any other
// non-success answer).
package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"ordersvc/pkg/apperr"
	"ordersvc/pkg/logger"
	"ordersvc/pkg/otel"
)

// User is the representation returned by the user service.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Config configures the user service client.
type Config struct {
	BaseURL string
	// Timeout bounds a whole Validate call, retries included.
	Timeout time.Duration
	// MaxAttempts is the number of lookups per Validate call. Zero or one disables retry.
	MaxAttempts uint
	// Backoff is the first wait between attempts; later waits grow exponentially.
	Backoff time.Duration
	// BreakerFailures is the number of consecutive failures that opens the circuit.
	BreakerFailures uint32
}

// Client calls the user service.
type Client struct {
	log         *logger.Logger
	http        *http.Client
	baseURL     string
	timeout     time.Duration
	maxAttempts uint
	backoff     time.Duration
	breaker     *gobreaker.CircuitBreaker
}

// New creates a Client. A nil httpClient gets a traced default.
func New(log *logger.Logger, cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 100 * time.Millisecond
	}

	return &Client{
		log:         log,
		http:        httpClient,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		breaker:     newBreaker(log, cfg.BreakerFailures),
	}
}

// Validate confirms that the user exists. The call is abandoned once the
// configured timeout elapses.
func (c *Client) Validate(ctx context.Context, id int64) (User, error) {
	ctx, span := otel.AddSpan(ctx, "user.validate", attribute.Int64("user.id", id))
	defer span.End()

	ctx, cancel := context.WithTimeoutCause(ctx, c.timeout, errLookupTimeout)
	defer cancel()

	op := func() (User, error) {
		u, err := executeWithBreaker(c.breaker, func() (User, error) {
			return c.lookup(ctx, id)
		})
		var te *transientError
		if err != nil && !errors.As(err, &te) {
			return User{}, backoff.Permanent(err)
		}
		return u, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoff

	u, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Warn(ctx, "user lookup failed, retrying", "user_id", id, "retry_in", next.String(), "error", err)
		}),
	)
	if err == nil {
		return u, nil
	}
	span.RecordError(err)

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return User{}, err

	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return User{}, fmt.Errorf("%w: user service did not answer within %s", apperr.ErrUnavailable, c.timeout)

	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return User{}, fmt.Errorf("%w: user service circuit open: %w", apperr.ErrUnavailable, err)

	case errors.Is(err, apperr.ErrUnavailable):
		return User{}, err

	default:
		return User{}, fmt.Errorf("%w: %w", apperr.ErrUnavailable, err)
	}
}

func (c *Client) lookup(ctx context.Context, id int64) (User, error) {
	url := fmt.Sprintf("%s/user/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return User{}, fmt.Errorf("%w: build request: %w", apperr.ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return User{}, abandoned(ctx)
		}
		return User{}, &transientError{err: fmt.Errorf("%w: call user service: %w", apperr.ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var u User
		if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
			if ctx.Err() != nil {
				return User{}, abandoned(ctx)
			}
			return User{}, fmt.Errorf("%w: decode user: %w", apperr.ErrUnavailable, err)
		}
		return u, nil

	case resp.StatusCode == http.StatusNotFound:
		return User{}, fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)

	case resp.StatusCode >= http.StatusInternalServerError:
		return User{}, &transientError{err: fmt.Errorf("%w: user service status %d", apperr.ErrUnavailable, resp.StatusCode)}

	default:
		return User{}, fmt.Errorf("%w: user service status %d", apperr.ErrUnavailable, resp.StatusCode)
	}
}

var (
	errLookupTimeout = errors.New("user service did not answer in time")
	// errCallerDone marks a lookup cut short by the caller's own context.
	errCallerDone = errors.New("caller context done")
)

// abandoned classifies a lookup whose context ended. Only the client's own
// timeout blames the user service.
func abandoned(ctx context.Context) error {
	if errors.Is(context.Cause(ctx), errLookupTimeout) {
		return fmt.Errorf("%w: %w", apperr.ErrUnavailable, ctx.Err())
	}
	return fmt.Errorf("%w: %w: %w", apperr.ErrUnavailable, errCallerDone, ctx.Err())
}

// transientError marks failures worth another attempt.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }
