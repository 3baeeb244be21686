package handler

// Response helpers: every endpoint sends JSON through writeJSON and every
// failure goes through writeError, so the API has exactly one error shape:
//
//	{"error":"not_found","message":"snippet not found with id abc"}
//
// Validation failures additionally carry a per-field map so forms can
// render each message inline next to its input:
//
//	{"error":"validation_error","message":"...","fields":{"title":"Title is required"}}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dhkim/snipstash/internal/apperror"
)

// ErrorResponse is the standard error payload for all endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`            // machine-readable kind
	Message string            `json:"message"`          // human-readable description
	Fields  map[string]string `json:"fields,omitempty"` // per-field messages (validation only)
}

// writeJSON sends a JSON response. Headers and status must be written
// before the body — once Encode starts writing, header changes are
// silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and the standard error
// payload. This is the only place domain errors meet status codes — the
// service layer stays protocol-agnostic.
func writeError(w http.ResponseWriter, err error) {
	// Multi-field validation failures carry their field map through.
	var fields apperror.Fields
	if errors.As(err, &fields) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: fields.Error(),
			Fields:  fields,
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		kind := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			kind = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			kind = "not_found"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			kind = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			kind = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			kind = "conflict"
		}

		resp := ErrorResponse{Error: kind, Message: appErr.Message}
		if appErr.Field != "" {
			resp.Fields = map[string]string{appErr.Field: appErr.Message}
		}
		writeJSON(w, status, resp)
		return
	}

	// Unknown error: generic 500. The raw message may contain SQL or file
	// paths — it goes to the log, never to the client.
	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
