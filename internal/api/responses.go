package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	app_errors "github.com/ykvit/knowledge-gateway/internal/errors"
)

// Shared response DTOs and helpers. All error responses funnel through
// respondWithError so the sentinel-to-status mapping lives in one place.

// ErrorResponse is the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the liveness probe body. Upstream is a best-effort
// reachability report for the completion endpoint, never a failure cause.
type HealthResponse struct {
	OK       bool   `json:"ok"`
	Upstream string `json:"upstream,omitempty"`
}

// respondWithError maps business-layer sentinel errors to HTTP status codes.
func respondWithError(w http.ResponseWriter, err error) {
	var statusCode int
	var message string

	switch {
	case errors.Is(err, app_errors.ErrValidation):
		statusCode = http.StatusBadRequest
		// Validation messages already carry the field-level detail.
		message = err.Error()
	case errors.Is(err, app_errors.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "The requested resource was not found."
	case errors.Is(err, app_errors.ErrUpstream):
		statusCode = http.StatusInternalServerError
		// Upstream failures surface their message so the caller can see
		// what the completion endpoint rejected.
		message = err.Error()
	default:
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal server error occurred."
	}

	slog.Warn("responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)
	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}
