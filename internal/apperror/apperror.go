// Package apperror defines the error taxonomy shared by every layer of the widget service.
//
// ERROR TAXONOMY:
// Each sentinel below names one class of failure. Constructors wrap a sentinel in an
// *AppError that also carries a human-readable message, so callers can branch with
// errors.Is() and still show something sensible to the user:
//
//	ErrValidation  → bad input the normalizer could not absorb (missing username)  → 400
//	ErrNotFound    → the GitHub user/repo (or a stored project) does not exist       → 404
//	ErrRateLimited → GitHub answered 429 / exhausted quota                           → 429
//	ErrUpstream    → network failure, timeout or 5xx from GitHub; retryable          → 502
//	ErrGeneration  → layout/compositor failure; should be unreachable                → 500
package apperror

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrUpstream     = errors.New("upstream unavailable")
	ErrGeneration   = errors.New("generation failed")
)

type AppError struct {
	Err        error         // sentinel identifying the class
	Message    string        // Human-readable error message
	Field      string        // Optional: field causing the error
	RetryAfter time.Duration // Optional: suggested backoff (rate limiting, transient failures)
	Cause      error         // Optional: underlying error, for logs only
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when a write endpoint is called without a valid token.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// RateLimited reports that GitHub refused the call because the quota is exhausted.
// retryAfter is taken from Retry-After / X-RateLimit-Reset when GitHub sends one.
func RateLimited(resource string, retryAfter time.Duration) *AppError {
	if retryAfter <= 0 {
		retryAfter = DefaultRateLimitBackoff
	}
	return &AppError{
		Err:        ErrRateLimited,
		Message:    fmt.Sprintf("GitHub rate limit reached while fetching %s", resource),
		RetryAfter: retryAfter,
	}
}

// Upstream wraps a transient failure talking to GitHub (network, timeout, 5xx).
func Upstream(resource string, cause error) *AppError {
	return &AppError{
		Err:        ErrUpstream,
		Message:    fmt.Sprintf("could not reach GitHub while fetching %s", resource),
		RetryAfter: DefaultTransientBackoff,
		Cause:      cause,
	}
}

// Generation wraps a failure inside layout or composition.
func Generation(widgetType string, cause error) *AppError {
	return &AppError{
		Err:     ErrGeneration,
		Message: fmt.Sprintf("could not generate %s widget", widgetType),
		Cause:   cause,
	}
}

// Suggested client backoffs. A rate limit resets on GitHub's schedule, so it waits longer.
const (
	DefaultRateLimitBackoff = 5 * time.Minute
	DefaultTransientBackoff = 30 * time.Second
)

// Kind returns a stable machine-readable name for err's class.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUpstream):
		return "upstream_unavailable"
	case errors.Is(err, ErrGeneration):
		return "generation_failed"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal_error"
	}
}

// UserMessage is the text a widget shows in its inline error state.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		var appErr *AppError
		if errors.As(err, &appErr) {
			return appErr.Message
		}
		return "Not found"
	case errors.Is(err, ErrRateLimited):
		return "GitHub rate limit reached, try again later"
	case errors.Is(err, ErrUpstream):
		return "GitHub is unreachable right now, retrying may help"
	case errors.Is(err, ErrValidation):
		var appErr *AppError
		if errors.As(err, &appErr) {
			return appErr.Message
		}
		return "Invalid widget settings"
	default:
		return "Something went wrong while generating this widget"
	}
}

// RetryAfter extracts the suggested backoff from err, or 0 if there is none.
func RetryAfter(err error) time.Duration {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.RetryAfter
	}
	return 0
}
