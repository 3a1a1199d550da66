package godeepl

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResult is returned when a backend answers without any translated text.
var ErrEmptyResult = errors.New("empty translation result")

// TranslationError is the base error type for translation failures.
type TranslationError struct {
	Message string
	Cause   error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates a backend failure that carries no HTTP-like status
// (transport failure, malformed payload, browser crash).
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// StatusError is a failure mapped to a status code: 429 rate limited,
// 403 forbidden, 408 timeout, or whatever the service answered.
type StatusError struct {
	Code    int
	Message string
	Cause   error
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	if e.Cause != nil {
		return fmt.Sprintf("status %d: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("status %d: %s", e.Code, msg)
}

func (e *StatusError) Unwrap() error {
	return e.Cause
}

// ValidationError reports a request rejected before reaching a backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// StatusCode extracts the status code carried by err, or 0.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}

// IsRateLimited reports whether err is a 429 from the service.
func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}
