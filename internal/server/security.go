package server

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/RentalsLedger_Go/internal/logger"
)

func isPublicPath(path string) bool {
	for _, p := range PublicPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func isRateLimitExempt(path string) bool {
	for _, p := range rateLimitExemptPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// AuthMiddleware requires the X-API-Key header on every non-public path
func AuthMiddleware(apiKey string, trustedProxies []string, detector *AbuseDetector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get(HeaderAPIKey)
			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
				ip := extractIP(r, trustedProxies)
				detector.RecordFailedAuth(ip)

				logger.FromContext(r.Context()).Warn(LogMsgAuthFailed,
					"path", r.URL.Path,
					"has_key", providedKey != "",
					"ip", ip)

				http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestSizeLimitMiddleware limits request body size
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

type clientCounters struct {
	requests   int
	failedAuth int
}

// AbuseDetector counts requests and failed authentications per client IP. Each client's
// counters start a fresh window AbuseWindow after they were first created, and the
// least recently seen clients are dropped once AbuseTrackedClients is reached.
type AbuseDetector struct {
	mu          sync.Mutex
	clients     *expirable.LRU[string, *clientCounters]
	maxRequests int
}

// NewAbuseDetector creates a detector that blocks a client after maxRequests in one window
func NewAbuseDetector(maxRequests int) *AbuseDetector {
	return &AbuseDetector{
		clients:     expirable.NewLRU[string, *clientCounters](AbuseTrackedClients, nil, AbuseWindow),
		maxRequests: maxRequests,
	}
}

// Caller must hold the mutex
func (d *AbuseDetector) counters(ip string) *clientCounters {
	c, ok := d.clients.Get(ip)
	if !ok {
		c = &clientCounters{}
		d.clients.Add(ip, c)
	}
	return c
}

// RecordFailedAuth counts a failed authentication and alerts past FailedAuthAlertAt
func (d *AbuseDetector) RecordFailedAuth(ip string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.counters(ip)
	c.failedAuth++
	if c.failedAuth >= FailedAuthAlertAt {
		slog.Warn(SecurityAlertFailedAuth, "ip", ip, "count", c.failedAuth)
	}
}

// RecordRequest counts a request and reports whether the client is still under its limit
func (d *AbuseDetector) RecordRequest(ip string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.counters(ip)
	c.requests++
	if c.requests <= d.maxRequests {
		return true
	}
	// Log every 100 blocked requests
	if (c.requests-d.maxRequests)%100 == 1 {
		slog.Warn(SecurityAlertHighRate, "ip", ip, "count_in_window", c.requests)
	}
	return false
}

// Requests returns the client's request count in its current window
func (d *AbuseDetector) Requests(ip string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.clients.Peek(ip); ok {
		return c.requests
	}
	return 0
}

// RateLimitMiddleware rejects clients over the detector's request limit
func RateLimitMiddleware(trustedProxies []string, detector *AbuseDetector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isRateLimitExempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if !detector.RecordRequest(extractIP(r, trustedProxies)) {
				http.Error(w, ErrMsgTooManyRequests, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractIP gets the client IP address from request.
// It only trusts X-Forwarded-For if the request comes from a trusted proxy.
func extractIP(r *http.Request, trustedProxies []string) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}

	for _, proxy := range trustedProxies {
		if proxy != remoteIP {
			continue
		}
		if forwarded := r.Header.Get(HeaderForwardedFor); forwarded != "" {
			// Rightmost hop is the one our trusted proxy saw
			ips := strings.Split(forwarded, ",")
			return strings.TrimSpace(ips[len(ips)-1])
		}
		break
	}

	return remoteIP
}

// SecurityHeadersMiddleware adds security headers to responses. API responses carry
// payment and quota state, so they are never cached.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(HeaderContentType, HeaderValueNoSniff)
			h.Set(HeaderFrameOptions, HeaderValueDeny)
			h.Set(HeaderReferrerPolicy, HeaderValueReferrerStrictOrigin)
			if strings.HasPrefix(r.URL.Path, "/api/") {
				h.Set(HeaderCacheControl, HeaderValueNoStore)
			}
			next.ServeHTTP(w, r)
		})
	}
}
