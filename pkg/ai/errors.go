package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrEmptyResponse indicates the provider answered without any content.
var ErrEmptyResponse = errors.New("empty response from provider")

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindRateLimited      ErrorKind = "rate_limited"
	KindUnauthenticated  ErrorKind = "unauthenticated"
	KindModelUnavailable ErrorKind = "model_unavailable"
	KindUnknown          ErrorKind = "unknown"
)

// ProviderError is a transport or provider-side failure. Message carries the
// provider's raw diagnostic for display.
type ProviderError struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider error (%s)", e.Kind)
	}
	return fmt.Sprintf("provider error (%s): %s", e.Kind, e.Message)
}

// Transient reports whether a retry may succeed.
func (e *ProviderError) Transient() bool {
	switch e.Kind {
	case KindRateLimited:
		return true
	case KindModelUnavailable:
		return e.Status == http.StatusServiceUnavailable
	}
	return e.Status >= 500
}

// SchemaError indicates the provider responded but the content did not match
// the expected analysis structure. Never retried.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("analysis schema violation: missing %s", e.Field)
	}
	return fmt.Sprintf("analysis schema violation: %s", e.Reason)
}

// classify maps an HTTP status and provider message onto an error kind.
// Status codes win; message substrings are a fallback for proxies that
// flatten the status.
func classify(status int, message string) *ProviderError {
	kind := KindUnknown
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindUnauthenticated
	case status == http.StatusNotFound || status == http.StatusServiceUnavailable:
		kind = KindModelUnavailable
	default:
		lower := strings.ToLower(message)
		switch {
		case strings.Contains(message, "RESOURCE_EXHAUSTED"), strings.Contains(lower, "quota"), strings.Contains(lower, "429"):
			kind = KindRateLimited
		case strings.Contains(lower, "api key"), strings.Contains(lower, "api_key_invalid"):
			kind = KindUnauthenticated
		case strings.Contains(lower, "overloaded"), strings.Contains(lower, "unavailable"):
			kind = KindModelUnavailable
		}
	}
	return &ProviderError{Kind: kind, Status: status, Message: message}
}

func isTransient(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Transient()
	}
	return false
}
