package api

import (
	"encoding/json"
	"net/http"

	"ordersvc/pkg/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeAppError renders err by its apperr kind. Internal details stay in the logs.
func writeAppError(w http.ResponseWriter, err error) {
	kind := apperr.Kind(err)
	status := apperr.HTTPStatus(err)

	msg := err.Error()
	switch kind {
	case "not_found":
		msg = "user not found"
	case "unavailable":
		msg = "user service unavailable"
	case "internal", "notification":
		msg = "internal error"
	}
	writeError(w, status, kind, msg)
}
