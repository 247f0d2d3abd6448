package domain

import "time"

// Payment lifecycle windows
const (
	// PaymentAwaitingWindow is how long a provider-acknowledged PENDING payment is
	// reused before initiation re-sends it
	PaymentAwaitingWindow = 15 * time.Minute

	// PaymentInFlightWindow covers a PENDING row whose provider call has not returned yet
	PaymentInFlightWindow = 60 * time.Second

	// PaymentCompletedWindow is how long a SUCCESS payment answers a repeated intent as
	// already completed. Later the same intent buys again.
	PaymentCompletedWindow = 15 * time.Minute

	// PaymentExpiryAge is when a PENDING payment becomes EXPIRED
	PaymentExpiryAge = 30 * time.Minute
)

// Defaults
const (
	DefaultCurrency           = "KES"
	IdempotencyRetrySeparator = ":retry:"
	IntentKeyNewTerm          = "new"
)

// Payment failure reasons recorded on the row
const (
	FailureReasonExpired          = "no provider confirmation before expiry"
	FailureReasonProviderRejected = "provider rejected the request"
	FailureReasonNoReference      = "provider returned no reference"
	FailureReasonCallbackFailed   = "provider reported failure"
	FailureReasonOwnership        = "target subscription does not belong to payer; activation needs manual review"
	FailureReasonActivation       = "activation rejected; needs manual review"
	FailureReasonRefunded         = "refunded by admin"
)
