package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	apiKey := "secret-key"
	middleware := AuthMiddleware(apiKey, nil, NewAbuseDetector(MaxRequestsPerWindow))

	tests := []struct {
		name           string
		providedKey    string
		path           string
		expectedStatus int
	}{
		{"Valid API Key", apiKey, "/api/v1/plans", http.StatusOK},
		{"Invalid API Key", "wrong-key", "/api/v1/plans", http.StatusUnauthorized},
		{"Missing API Key", "", "/api/v1/payments", http.StatusUnauthorized},
		{"Admin needs key", "", "/api/v1/admin/tasks", http.StatusUnauthorized},
		{"Public Path - Healthz", "", "/healthz", http.StatusOK},
		{"Public Path - Metrics", "", "/metrics", http.StatusOK},
		{"Public Path - Version", "", "/version", http.StatusOK},
		{"Public Path - Provider callback", "", "/api/v1/payments/callback/mpesa", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.providedKey != "" {
				req.Header.Set(HeaderAPIKey, tt.providedKey)
			}
			rec := httptest.NewRecorder()

			handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}

func TestExtractIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set(HeaderForwardedFor, "203.0.113.9, 198.51.100.7")

	if got := extractIP(req, nil); got != "10.0.0.1" {
		t.Errorf("untrusted peer: expected 10.0.0.1, got %s", got)
	}
	if got := extractIP(req, []string{"10.0.0.1"}); got != "198.51.100.7" {
		t.Errorf("trusted proxy: expected 198.51.100.7, got %s", got)
	}
}
