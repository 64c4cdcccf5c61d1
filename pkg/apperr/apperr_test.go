package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantKind   string
		wantStatus int
	}{
		{name: "nil", err: nil, wantKind: "", wantStatus: http.StatusOK},
		{name: "invalid", err: fmt.Errorf("decode: %w", ErrInvalid), wantKind: "invalid", wantStatus: http.StatusBadRequest},
		{name: "not_found", err: fmt.Errorf("user 7: %w", ErrNotFound), wantKind: "not_found", wantStatus: http.StatusNotFound},
		{name: "unavailable", err: fmt.Errorf("user service: %w", ErrUnavailable), wantKind: "unavailable", wantStatus: http.StatusServiceUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, wantKind: "unavailable", wantStatus: http.StatusServiceUnavailable},
		{name: "canceled", err: context.Canceled, wantKind: "unavailable", wantStatus: http.StatusServiceUnavailable},
		{name: "internal", err: fmt.Errorf("add order: %w", ErrInternal), wantKind: "internal", wantStatus: http.StatusInternalServerError},
		{name: "internal_wrapping_deadline", err: fmt.Errorf("%w: add order: %w", ErrInternal, context.DeadlineExceeded), wantKind: "internal", wantStatus: http.StatusInternalServerError},
		{name: "notification", err: fmt.Errorf("send: %w", ErrNotification), wantKind: "notification", wantStatus: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("boom"), wantKind: "internal", wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Kind(tt.err); got != tt.wantKind {
				t.Fatalf("Kind: expected %q, got %q", tt.wantKind, got)
			}
			if got := HTTPStatus(tt.err); got != tt.wantStatus {
				t.Fatalf("HTTPStatus: expected %d, got %d", tt.wantStatus, got)
			}
		})
	}
}

func TestNotFoundIsNotUnavailable(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("lookup: %w", ErrNotFound)
	if errors.Is(notFound, ErrUnavailable) {
		t.Fatal("not found must not classify as unavailable")
	}
	if HTTPStatus(notFound) == HTTPStatus(ErrUnavailable) {
		t.Fatal("not found and unavailable must map to different statuses")
	}
}
