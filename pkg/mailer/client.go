// Package mailer sends email through the external mailer service.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"ordersvc/pkg/apperr"
	"ordersvc/pkg/logger"
	"ordersvc/pkg/otel"
)

// Message is one email as accepted by POST /send.
type Message struct {
	Subject          string `json:"subject" validate:"required"`
	Body             string `json:"body" validate:"required"`
	RecipientAddress string `json:"recipientAddress" validate:"required,email"`
}

// Client posts messages to the mailer service.
type Client struct {
	log     *logger.Logger
	http    *http.Client
	baseURL string
	timeout time.Duration
}

// New creates a Client. A nil httpClient gets a traced default.
func New(log *logger.Logger, baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		log:     log,
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// Send delivers msg. Any failure wraps apperr.ErrNotification.
func (c *Client) Send(ctx context.Context, msg Message) error {
	ctx, span := otel.AddSpan(ctx, "mailer.send", attribute.String("mail.to", msg.RecipientAddress))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encode message: %w", apperr.ErrNotification, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", apperr.ErrNotification, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug(ctx, "sending email", "to", msg.RecipientAddress, "subject", msg.Subject)

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: call mailer: %w", apperr.ErrNotification, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: mailer status %d", apperr.ErrNotification, resp.StatusCode)
	}

	c.log.Info(ctx, "email accepted", "to", msg.RecipientAddress, "status", resp.StatusCode)
	return nil
}
