package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details for security reasons.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"
	ErrMsgMissingQueryParam     = "Missing %s query parameter"
	ErrMsgInvalidLimit          = "Invalid limit parameter"
	ErrMsgInvalidPathID         = "Invalid %s in path"
)

// User-facing messages per error kind
const (
	ErrMsgGenericServerError  = "Something went wrong. Please try again."
	ErrMsgInvalidInputUser    = "Invalid request. Please check your inputs."
	ErrMsgNotFoundUser        = "Resource not found."
	ErrMsgListingQuotaUser    = "You have no listing slots left. Upgrade or renew your plan."
	ErrMsgFeaturedQuotaUser   = "You have no featured slots left. Upgrade or renew your plan."
	ErrMsgOwnershipUser       = "That subscription does not belong to you."
	ErrMsgPlanSuspendedUser   = "That plan is no longer available."
	ErrMsgPaymentPendingUser  = "Another payment for this subscription is still pending. Please complete it or wait for it to expire."
	ErrMsgInvalidStateUser    = "That action is not allowed in the payment's current state."
	ErrMsgProviderFailureUser = "We could not reach the payment provider. Please try again."
	ErrMsgNotPublishableUser  = "This listing cannot be published yet."
)

// Success messages for API responses
const (
	MsgUsageReset         = "Subscription usage reset"
	MsgSubscriptionOff    = "Subscription deactivated"
	MsgPlanDeleted        = "Plan deleted"
	MsgPlanSuspended      = "Plan is in use and was suspended instead of deleted"
	MsgTaskCompleted      = "Task completed"
	MsgCallbackAcceptDesc = "Accepted"
)

// Log messages
const (
	LogMsgServiceError     = "Service call failed"
	LogMsgCallbackQueued   = "Callback queued"
	LogMsgCallbackInline   = "Callback queue unavailable, reconciling inline"
	LogMsgCallbackReadFail = "Failed to read callback body"
)
