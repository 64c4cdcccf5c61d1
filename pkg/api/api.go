// Package api exposes the order HTTP endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"ordersvc/pkg/apperr"
	"ordersvc/pkg/logger"
	"ordersvc/pkg/order"
	"ordersvc/pkg/otel"
)

// OrderCreator runs the order creation flow.
type OrderCreator interface {
	Create(ctx context.Context, req order.Request) (order.Order, error)
}

// OrderReader reads stored orders.
type OrderReader interface {
	Get(ctx context.Context, id string) (order.Order, error)
	List(ctx context.Context) ([]order.Order, error)
}

// Config holds the router dependencies. Tracer and Metrics are optional.
type Config struct {
	Log     *logger.Logger
	Tracer  trace.Tracer
	Creator OrderCreator
	Reader  OrderReader
	Metrics http.Handler
}

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type handlers struct {
	log     *logger.Logger
	creator OrderCreator
	reader  OrderReader
}

// NewRouter builds the HTTP routes.
func NewRouter(cfg Config) *mux.Router {
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("ordersvc")
	}
	h := &handlers{log: cfg.Log, creator: cfg.Creator, reader: cfg.Reader}

	r := mux.NewRouter()
	r.Use(traceMiddleware(cfg.Tracer, propagation.TraceContext{}))
	r.Use(logMiddleware(cfg.Log))

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/order", h.createOrder).Methods(http.MethodPost)
	r.HandleFunc("/order/{id}", h.getOrder).Methods(http.MethodGet)
	r.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})

	return r
}

// health reports liveness.
// @Summary Health check
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createOrder validates the user, stores the order and notifies.
// @Summary Create order
// @Accept json
// @Produce json
// @Param order body order.Request true "Order request"
// @Success 201 {object} order.Order
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse "user not found"
// @Failure 503 {object} errorResponse "user service unavailable"
// @Failure 500 {object} errorResponse
// @Router /order [post]
func (h *handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createOrderHandler")
	defer span.End()

	var req order.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	o, err := h.creator.Create(ctx, req)
	if err != nil {
		h.log.Warn(ctx, "create order", "kind", apperr.Kind(err), "error", err)
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

// getOrder retrieves an order by ID.
// @Summary Get order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {object} errorResponse
// @Router /order/{id} [get]
func (h *handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	id := mux.Vars(r)["id"]
	o, err := h.reader.Get(ctx, id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		h.log.Error(ctx, "get order", "order_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// listOrders lists orders.
// @Summary List orders
// @Produce json
// @Success 200 {array} order.Order
// @Router /orders [get]
func (h *handlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	orders, err := h.reader.List(ctx)
	if err != nil {
		h.log.Error(ctx, "list orders", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// decodeBody reads exactly one JSON value from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %w", apperr.ErrInvalid, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must hold a single JSON object", apperr.ErrInvalid)
	}
	return nil
}
