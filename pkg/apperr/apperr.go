// Package apperr classifies service errors and maps them to HTTP statuses.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrInvalid marks a malformed or incomplete request.
	ErrInvalid = errors.New("invalid request")
	// ErrNotFound marks an entity that a dependency reported as absent.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks a dependency that did not answer in time or was unreachable.
	ErrUnavailable = errors.New("dependency unavailable")
	// ErrInternal marks a fault after validation succeeded, such as a storage failure.
	ErrInternal = errors.New("internal failure")
	// ErrNotification marks a failed side-channel alert. It never decides a response status.
	ErrNotification = errors.New("notification failure")
)

// Kind returns a short machine-readable name for err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	// Internal wins over whatever cause it wraps.
	case errors.Is(err, ErrInternal):
		return "internal"

	case errors.Is(err, ErrInvalid):
		return "invalid"

	case errors.Is(err, ErrNotFound):
		return "not_found"

	case errors.Is(err, ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return "unavailable"

	case errors.Is(err, ErrNotification):
		return "notification"

	default:
		return "internal"
	}
}

// HTTPStatus returns the response status for err.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case "":
		return http.StatusOK
	case "invalid":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "unavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
