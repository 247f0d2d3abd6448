package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitMiddleware(t *testing.T) {
	const limit = 50
	detector := NewAbuseDetector(limit)
	middleware := RateLimitMiddleware(nil, detector)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ip := "192.168.1.100"
	req := httptest.NewRequest("GET", "/api/v1/plans", nil)
	req.RemoteAddr = ip + ":1234"

	for i := 0; i < limit; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d failed with status %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429 Too Many Requests, got %d", rec.Code)
	}

	if count := detector.Requests(ip); count != limit+1 {
		t.Errorf("expected count %d, got %d", limit+1, count)
	}

	other := httptest.NewRequest("GET", "/api/v1/plans", nil)
	other.RemoteAddr = "192.168.1.101:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("other clients are unaffected, got %d", rec.Code)
	}
}

func TestRateLimitMiddleware_CallbacksAreExempt(t *testing.T) {
	const limit = 5
	detector := NewAbuseDetector(limit)
	handler := RateLimitMiddleware(nil, detector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ip := "196.201.214.200"
	for i := 0; i < limit*3; i++ {
		req := httptest.NewRequest(http.MethodPost, CallbackPathPrefix+"mpesa", nil)
		req.RemoteAddr = ip + ":443"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("callback %d from provider got status %d", i+1, rec.Code)
		}
	}
	if count := detector.Requests(ip); count != 0 {
		t.Errorf("callbacks should not be counted, got %d", count)
	}

	// The same address is still limited on the rest of the API
	for i := 0; i <= limit; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		req.RemoteAddr = ip + ":443"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if i == limit && rec.Code != http.StatusTooManyRequests {
			t.Errorf("expected 429 past the limit, got %d", rec.Code)
		}
	}
}
