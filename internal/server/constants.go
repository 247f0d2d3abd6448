package server

import "time"

// HTTP error messages for middleware responses
const (
	ErrMsgUnauthorized    = "Unauthorized"
	ErrMsgTooManyRequests = "Too Many Requests"
)

// Security alert message templates
const (
	SecurityAlertFailedAuth = "SECURITY ALERT: repeated failed authentication"
	SecurityAlertHighRate   = "SECURITY ALERT: blocking high request rate"
)

// Log messages for server lifecycle and request handling
const (
	LogMsgServerStarting   = "Server starting"
	LogMsgRequestStarted   = "Request started"
	LogMsgRequestCompleted = "Request completed"
	LogMsgRequestHeaders   = "Request headers"
	LogMsgAuthFailed       = "Authentication failed"
)

// HTTP header names
const (
	HeaderAPIKey         = "X-API-Key"
	HeaderAuthorization  = "Authorization"
	HeaderRequestID      = "X-Request-ID"
	HeaderForwardedFor   = "X-Forwarded-For"
	HeaderContentType    = "X-Content-Type-Options"
	HeaderFrameOptions   = "X-Frame-Options"
	HeaderReferrerPolicy = "Referrer-Policy"
	HeaderCacheControl   = "Cache-Control"
)

// Security header values
const (
	HeaderValueNoSniff              = "nosniff"
	HeaderValueDeny                 = "DENY"
	HeaderValueReferrerStrictOrigin = "strict-origin-when-cross-origin"
	HeaderValueNoStore              = "no-store"
)

// Abuse detection limits, counted per client IP
const (
	AbuseWindow          = 5 * time.Minute
	AbuseTrackedClients  = 10000
	MaxRequestsPerWindow = 1000
	FailedAuthAlertAt    = 5
	MaxRequestBodyBytes  = 1 << 20
)

// PublicPaths are path prefixes that bypass API key authentication. Provider callbacks
// are public: the provider cannot send our key, and reconciliation only trusts references
// we issued.
var PublicPaths = []string{
	"/swagger/",
	"/healthz",
	"/readyz",
	"/version",
	"/metrics",
	CallbackPathPrefix,
}

// CallbackPathPrefix is where providers deliver payment callbacks
const CallbackPathPrefix = "/api/v1/payments/callback/"

// rateLimitExemptPaths skip the per-client request counter. Providers deliver callbacks
// from a few addresses and must always get an acknowledgement.
var rateLimitExemptPaths = []string{CallbackPathPrefix}

// quietPaths are not request-logged
var quietPaths = []string{"/healthz", "/readyz", "/metrics", "/swagger/"}

// RedactedValue replaces secret header values in logs
const RedactedValue = "[REDACTED]"
