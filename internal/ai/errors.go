package ai

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks a provider that is not configured (missing api key).
var ErrUnavailable = errors.New("ai provider unavailable")

type ErrorKind string

const (
	KindRateLimited  ErrorKind = "rate_limited"
	KindUnauthorized ErrorKind = "unauthorized"
	KindBadInput     ErrorKind = "bad_input"
	KindServerError  ErrorKind = "server_error"
)

// ProviderError is the tagged failure type for external AI calls. The
// Retryable flag drives the backoff policy: only rate limits and server
// errors are worth retrying.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ai provider error [%s]: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("ai provider error [%s]", e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindServerError
}

func newProviderError(kind ErrorKind, status int, msg string, cause error) *ProviderError {
	return &ProviderError{Kind: kind, StatusCode: status, Message: msg, Err: cause}
}

func RateLimited(msg string, cause error) *ProviderError {
	return newProviderError(KindRateLimited, 429, msg, cause)
}

func Unauthorized(msg string, cause error) *ProviderError {
	return newProviderError(KindUnauthorized, 401, msg, cause)
}

func BadInput(msg string, cause error) *ProviderError {
	return newProviderError(KindBadInput, 400, msg, cause)
}

func ServerError(msg string, cause error) *ProviderError {
	return newProviderError(KindServerError, 500, msg, cause)
}

// ClassifyStatus maps an HTTP status from a provider API to the taxonomy.
func ClassifyStatus(status int, msg string, cause error) *ProviderError {
	switch {
	case status == 429:
		return newProviderError(KindRateLimited, status, msg, cause)
	case status == 401 || status == 403:
		return newProviderError(KindUnauthorized, status, msg, cause)
	case status == 400:
		return newProviderError(KindBadInput, status, msg, cause)
	default:
		return newProviderError(KindServerError, status, msg, cause)
	}
}

// IsRetryable reports whether err is a provider error worth retrying.
// Unknown errors are treated as non-retryable.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}
