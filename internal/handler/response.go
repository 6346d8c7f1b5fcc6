package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON, SVG and errors.
//
// CONSISTENT ERROR FORMAT:
// Every JSON error response has the same shape:
//   {"error": "not_found", "message": "user not found with id octocat"}
//
// Widget endpoints are the exception: an <img> tag cannot show JSON, so they
// answer errors with an SVG error card instead (see widget.go).

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/readme-widgets/internal/apperror"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all JSON endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input, for validation errors
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body; once Encode writes, header
// changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusOf maps a domain error to an HTTP status.
//
// The service layer knows nothing about HTTP. It returns apperror sentinels and
// this is the one place they become status codes:
//
//	ErrValidation → 400    ErrNotFound    → 404
//	ErrUnauthorized → 401  ErrForbidden   → 403
//	ErrConflict → 409      ErrRateLimited → 429
//	ErrUpstream → 502      anything else  → 500
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, apperror.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// errors.As walks the whole chain, so a service returning
// fmt.Errorf("creating project: %w", apperror.ValidationFailed(...)) still maps
// to 400 with the validation message.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusOf(err)
	setRetryAfter(w, err)

	var appErr *apperror.AppError
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		// Never expose internal error details; they may contain SQL or paths.
		logger.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:   apperror.Kind(err),
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// setRetryAfter copies a rate-limit or upstream backoff into Retry-After.
func setRetryAfter(w http.ResponseWriter, err error) {
	if d := apperror.RetryAfter(err); d > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int((d+time.Second-1)/time.Second)))
	}
}

// writeSVG sends an SVG document.
func writeSVG(w http.ResponseWriter, status int, doc string) {
	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	// Image proxies send no Origin, so the CORS middleware stays silent for them.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(doc))
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.ValidationFailed("body", fmt.Sprintf("request body must be %d bytes or less", maxBodyBytes))
		}
		return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
	}
	return nil
}
