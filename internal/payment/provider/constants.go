package provider

import "time"

// HTTP client defaults
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 500 * time.Millisecond

	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderAuthorization  = "Authorization"
	HeaderContentType    = "Content-Type"
	ContentTypeJSON      = "application/json"

	// ResponseCodeAccepted is the provider's "request accepted for processing" code
	ResponseCodeAccepted = "0"
)

// Log messages
const (
	LogMsgProviderRetry    = "Retrying payment provider request"
	LogMsgProviderRejected = "Payment provider rejected initiation"
	LogMsgProviderAccepted = "Payment provider accepted initiation"
	LogMsgFakeInitiated    = "Fake provider initiated payment"
)

// Error messages
const (
	ErrMsgMarshalRequest  = "failed to marshal provider request"
	ErrMsgBuildRequest    = "failed to build provider request"
	ErrMsgDecodeResponse  = "failed to decode provider response"
	ErrMsgProviderStatus  = "provider returned status %d"
	ErrMsgMaxRetries      = "provider request failed after retries"
	ErrMsgMissingEndpoint = "provider endpoint is not configured"
)
