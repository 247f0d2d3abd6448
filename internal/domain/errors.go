package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories the ledger can report.
// Adding a kind requires updating every exhaustive switch over it (see handler.statusForKind).
type ErrorKind int

const (
	ErrorKindInternal ErrorKind = iota
	ErrorKindInvalidInput
	ErrorKindNotFound
	ErrorKindInsufficientListingQuota
	ErrorKindInsufficientFeaturedQuota
	ErrorKindOwnershipViolation
	ErrorKindPlanSuspended
	ErrorKindPaymentInProgress
	ErrorKindInvalidTransition
	ErrorKindProviderFailure
	ErrorKindListingNotPublishable
)

// AllErrorKinds lists every kind, in declaration order
var AllErrorKinds = []ErrorKind{
	ErrorKindInternal,
	ErrorKindInvalidInput,
	ErrorKindNotFound,
	ErrorKindInsufficientListingQuota,
	ErrorKindInsufficientFeaturedQuota,
	ErrorKindOwnershipViolation,
	ErrorKindPlanSuspended,
	ErrorKindPaymentInProgress,
	ErrorKindInvalidTransition,
	ErrorKindProviderFailure,
	ErrorKindListingNotPublishable,
}

// String returns the stable wire code for the kind
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindInternal:
		return "INTERNAL"
	case ErrorKindInvalidInput:
		return "INVALID_INPUT"
	case ErrorKindNotFound:
		return "NOT_FOUND"
	case ErrorKindInsufficientListingQuota:
		return "INSUFFICIENT_LISTING_QUOTA"
	case ErrorKindInsufficientFeaturedQuota:
		return "INSUFFICIENT_FEATURED_QUOTA"
	case ErrorKindOwnershipViolation:
		return "OWNERSHIP_VIOLATION"
	case ErrorKindPlanSuspended:
		return "PLAN_SUSPENDED"
	case ErrorKindPaymentInProgress:
		return "PAYMENT_IN_PROGRESS"
	case ErrorKindInvalidTransition:
		return "INVALID_TRANSITION"
	case ErrorKindProviderFailure:
		return "PROVIDER_FAILURE"
	case ErrorKindListingNotPublishable:
		return "LISTING_NOT_PUBLISHABLE"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	ErrMsgInternal                = "internal error"
	ErrMsgInvalidInput            = "invalid input"
	ErrMsgNotFound                = "not found"
	ErrMsgInsufficientListing     = "insufficient listing quota"
	ErrMsgInsufficientFeatured    = "insufficient featured quota"
	ErrMsgOwnershipViolation      = "subscription does not belong to user"
	ErrMsgPlanSuspended           = "plan is suspended"
	ErrMsgPaymentInProgress       = "another payment for this subscription is pending"
	ErrMsgInvalidTransition       = "invalid payment status transition"
	ErrMsgProviderFailure         = "payment provider did not accept the request"
	ErrMsgListingNotPublishable   = "listing cannot be published"
	ErrMsgTxClosed                = "tx is closed"
	ErrMsgPlanNotFound            = "plan not found"
	ErrMsgSubscriptionNotFound    = "subscription not found"
	ErrMsgPaymentNotFound         = "payment not found"
	ErrMsgListingNotFound         = "listing not found"
	ErrMsgNegativeQuotaRequest    = "quota request must not be negative"
	ErrMsgAmountMismatch          = "amount does not match plan price"
	ErrMsgInvalidPhoneNumber      = "invalid phone number"
	ErrMsgInvalidSubscriptionPlan = "plan quotas and duration must be positive"
)

// Sentinel errors, one per kind. errors.Is(err, ErrNotFound) matches any error of that kind.
var (
	ErrInternal                  = &Error{Kind: ErrorKindInternal, Msg: ErrMsgInternal}
	ErrInvalidInput              = &Error{Kind: ErrorKindInvalidInput, Msg: ErrMsgInvalidInput}
	ErrNotFound                  = &Error{Kind: ErrorKindNotFound, Msg: ErrMsgNotFound}
	ErrInsufficientListingQuota  = &Error{Kind: ErrorKindInsufficientListingQuota, Msg: ErrMsgInsufficientListing}
	ErrInsufficientFeaturedQuota = &Error{Kind: ErrorKindInsufficientFeaturedQuota, Msg: ErrMsgInsufficientFeatured}
	ErrOwnershipViolation        = &Error{Kind: ErrorKindOwnershipViolation, Msg: ErrMsgOwnershipViolation}
	ErrPlanSuspended             = &Error{Kind: ErrorKindPlanSuspended, Msg: ErrMsgPlanSuspended}
	ErrPaymentInProgress         = &Error{Kind: ErrorKindPaymentInProgress, Msg: ErrMsgPaymentInProgress}
	ErrInvalidTransition         = &Error{Kind: ErrorKindInvalidTransition, Msg: ErrMsgInvalidTransition}
	ErrProviderFailure           = &Error{Kind: ErrorKindProviderFailure, Msg: ErrMsgProviderFailure}
	ErrListingNotPublishable     = &Error{Kind: ErrorKindListingNotPublishable, Msg: ErrMsgListingNotPublishable}

	// ErrTxClosed is reported by fakes when a finished transaction is reused
	ErrTxClosed = errors.New(ErrMsgTxClosed)
)

// Error is a kinded domain error. Wrap it with fmt.Errorf("%w") for extra context.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error or *QuotaError of the same kind
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case *Error:
		return t.Kind == e.Kind
	case *QuotaError:
		return t.Kind == e.Kind
	}
	return false
}

// NewError builds a kinded error with a specific message
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WrapError attaches a kind to an underlying error
func WrapError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// QuotaError reports a shortfall on one resource. No deduction happened when it is returned.
type QuotaError struct {
	Kind   ErrorKind
	Needed int
	Have   int
}

func (e *QuotaError) Error() string {
	msg := ErrMsgInsufficientListing
	if e.Kind == ErrorKindInsufficientFeaturedQuota {
		msg = ErrMsgInsufficientFeatured
	}
	return fmt.Sprintf("%s: needed %d, have %d", msg, e.Needed, e.Have)
}

// Is matches the sentinel of the same kind
func (e *QuotaError) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Kind == e.Kind
	}
	return false
}

// Shortfall is how many units are missing
func (e *QuotaError) Shortfall() int {
	return e.Needed - e.Have
}

// KindOf returns the kind carried anywhere in err's chain, or ErrorKindInternal
func KindOf(err error) ErrorKind {
	var qe *QuotaError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrorKindInternal
}
