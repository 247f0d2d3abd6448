package domain

import (
	"time"
)

// PaymentStatus is the state of one payment attempt
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusExpired  PaymentStatus = "EXPIRED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// IsTerminal reports whether the automatic flow is finished with this status
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusExpired, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment is one payment attempt row
type Payment struct {
	ID                   string        `json:"id" db:"id"`
	UserID               string        `json:"user_id" db:"user_id"`
	PlanID               string        `json:"plan_id" db:"plan_id"`
	AmountCents          int64         `json:"amount_cents" db:"amount_cents"`
	Currency             string        `json:"currency" db:"currency"`
	Status               PaymentStatus `json:"status" db:"status"`
	Provider             string        `json:"provider" db:"provider"`
	ExternalRef          *string       `json:"external_ref,omitempty" db:"external_ref"`
	TransactionCode      *string       `json:"transaction_code,omitempty" db:"transaction_code"`
	IntentKey            string        `json:"-" db:"intent_key"`
	IdempotencyKey       string        `json:"-" db:"idempotency_key"`
	TargetSubscriptionID *string       `json:"target_subscription_id,omitempty" db:"target_subscription_id"`
	PhoneNumber          string        `json:"-" db:"phone_number"`
	ProviderMessage      string        `json:"provider_message,omitempty" db:"provider_message"`
	FailureReason        string        `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" db:"updated_at"`
	CompletedAt          *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
}

// HasExternalRef reports whether the provider acknowledged the attempt
func (p Payment) HasExternalRef() bool {
	return p.ExternalRef != nil && *p.ExternalRef != ""
}

// InitiateOutcome tells the caller what the initiation call actually did
type InitiateOutcome string

const (
	// InitiateOutcomeCreated: a new row was created and the provider was called
	InitiateOutcomeCreated InitiateOutcome = "created"
	// InitiateOutcomeReinitiated: a stale pending row was re-sent to the provider
	InitiateOutcomeReinitiated InitiateOutcome = "reinitiated"
	// InitiateOutcomeAwaitingConfirmation: a recent pending request exists, user should check their device
	InitiateOutcomeAwaitingConfirmation InitiateOutcome = "awaiting_confirmation"
	// InitiateOutcomeInProgress: another request for the same intent is talking to the provider
	InitiateOutcomeInProgress InitiateOutcome = "in_progress"
	// InitiateOutcomeAlreadyCompleted: the same intent was already paid
	InitiateOutcomeAlreadyCompleted InitiateOutcome = "already_completed"
)

// InitiatePaymentRequest is a purchase intent
type InitiatePaymentRequest struct {
	UserID               string  `json:"user_id" validate:"required,uuid4"`
	PlanID               string  `json:"plan_id" validate:"required,uuid4"`
	AmountCents          int64   `json:"amount_cents" validate:"gt=0"`
	PhoneNumber          string  `json:"phone_number" validate:"required,phone"`
	TargetSubscriptionID *string `json:"target_subscription_id,omitempty" validate:"omitempty,uuid4"`
}

// InitiatePaymentResult is returned for every initiation, including deduplicated ones
type InitiatePaymentResult struct {
	Payment Payment         `json:"payment"`
	Outcome InitiateOutcome `json:"outcome"`
	Message string          `json:"message"`
}

// CallbackResult is the normalized provider outcome
type CallbackResult string

const (
	CallbackResultSuccess CallbackResult = "success"
	CallbackResultFailed  CallbackResult = "failed"
	CallbackResultUnknown CallbackResult = "unknown"
)

// Callback is a provider callback reduced to the fields reconciliation needs
type Callback struct {
	Provider        string
	Reference       string
	Result          CallbackResult
	ResultCode      string
	ResultDesc      string
	TransactionCode string
}

// ReconcileOutcome records what happened to one callback delivery
type ReconcileOutcome string

const (
	ReconcileOutcomeApplied         ReconcileOutcome = "applied"
	ReconcileOutcomeFailedRecorded  ReconcileOutcome = "failed_recorded"
	ReconcileOutcomeDuplicate       ReconcileOutcome = "duplicate"
	ReconcileOutcomeUnknownPayment  ReconcileOutcome = "unknown_payment"
	ReconcileOutcomeUnparseable     ReconcileOutcome = "unparseable"
	ReconcileOutcomeLateSuccess     ReconcileOutcome = "late_success"
	ReconcileOutcomeActivationError ReconcileOutcome = "activation_rejected"
)
