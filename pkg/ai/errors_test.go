package ai

import (
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		message string
		want    ErrorKind
	}{
		{"status 429", http.StatusTooManyRequests, "slow down", KindRateLimited},
		{"status 401", http.StatusUnauthorized, "", KindUnauthenticated},
		{"status 403", http.StatusForbidden, "", KindUnauthenticated},
		{"status 404", http.StatusNotFound, "model not found", KindModelUnavailable},
		{"status 503", http.StatusServiceUnavailable, "", KindModelUnavailable},
		{"resource exhausted substring", http.StatusBadRequest, "RESOURCE_EXHAUSTED: out of quota", KindRateLimited},
		{"quota substring", http.StatusInternalServerError, "Quota exceeded for requests", KindRateLimited},
		{"api key substring", http.StatusBadRequest, "API key not valid", KindUnauthenticated},
		{"overloaded substring", http.StatusInternalServerError, "The model is overloaded", KindModelUnavailable},
		{"plain 500", http.StatusInternalServerError, "internal error", KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.status, tc.message)
			if got.Kind != tc.want {
				t.Fatalf("classify(%d, %q) = %s, want %s", tc.status, tc.message, got.Kind, tc.want)
			}
			if got.Message != tc.message {
				t.Fatalf("expected message preserved, got %q", got.Message)
			}
		})
	}
}

func TestProviderErrorTransient(t *testing.T) {
	if !(&ProviderError{Kind: KindRateLimited}).Transient() {
		t.Fatalf("rate limited must be transient")
	}
	if !(&ProviderError{Kind: KindModelUnavailable, Status: http.StatusServiceUnavailable}).Transient() {
		t.Fatalf("503 model unavailable must be transient")
	}
	if (&ProviderError{Kind: KindModelUnavailable, Status: http.StatusNotFound}).Transient() {
		t.Fatalf("404 model unavailable must not be transient")
	}
	if (&ProviderError{Kind: KindUnauthenticated, Status: http.StatusUnauthorized}).Transient() {
		t.Fatalf("credential failure must not be transient")
	}
	if !(&ProviderError{Kind: KindUnknown, Status: http.StatusInternalServerError}).Transient() {
		t.Fatalf("5xx unknown must be transient")
	}
}
