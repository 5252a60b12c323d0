package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so the API has one
// response shape. Errors always look like:
//
//	{"error": "not_found", "message": "application not found with id 7"}
//
// Validation errors add a per-field map the client can show next to each
// form input:
//
//	{"error": "validation_error", "message": "...",
//	 "fields": {"company": "Company is required"}}

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/jobtrack/internal/apperror"
)

// maxBodyBytes caps request bodies. The largest legitimate payload is an
// application with maximum-length notes.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`            // machine-readable, e.g. "not_found"
	Message string            `json:"message"`          // human-readable
	Fields  map[string]string `json:"fields,omitempty"` // validation errors only
}

// writeJSON sends data as JSON. Headers and status go out before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// The mapping lives here, not in the services: services speak apperror,
// and errors.Is walks the wrap chain down to the sentinel.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		resp := ErrorResponse{Error: errorType, Message: appErr.Message}
		if status == http.StatusBadRequest || status == http.StatusConflict {
			resp.Fields = apperror.Fields(err)
			if resp.Fields == nil && appErr.Field != "" {
				resp.Fields = map[string]string{appErr.Field: appErr.Message}
			}
		}
		writeJSON(w, status, resp)
		return
	}

	// Never leak raw errors (SQL, file paths) to clients.
	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a single JSON object from the body into dst.
// Unknown fields are rejected so typos ("applied_on") fail loudly.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "Request body is required")
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", "Request body is too large")
		default:
			return apperror.ValidationFailed("body", fmt.Sprintf("Invalid JSON body: %v", err))
		}
	}
	if dec.More() {
		return apperror.ValidationFailed("body", "Request body must be a single JSON object")
	}
	return nil
}

// idParam parses the {id} route parameter.
func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", fmt.Sprintf("invalid application id %q", raw))
	}
	return id, nil
}
