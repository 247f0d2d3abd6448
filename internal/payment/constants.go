package payment

// Phone normalization
const (
	DefaultCountryCode = "254"
	minPhoneDigits     = 10
	maxPhoneDigits     = 15
	localNumberDigits  = 9
)

// Defaults for history queries
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// Payer-facing outcome messages
const (
	MsgCreated              = "Payment request sent. Confirm the prompt on your phone."
	MsgReinitiated          = "Payment request re-sent. Confirm the prompt on your phone."
	MsgAwaitingConfirmation = "A payment request is already waiting. Check your phone."
	MsgInProgress           = "Your payment request is being sent. Check your phone shortly."
	MsgAlreadyCompleted     = "This purchase has already been paid."
)

// Manual review reasons, used as metric labels
const (
	ReviewLateSuccess = "late_success"
	ReviewOwnership   = "ownership"
	ReviewActivation  = "activation"
)

// Log messages
const (
	LogMsgPaymentCreated      = "Payment created"
	LogMsgPaymentDeduplicated = "Payment initiation deduplicated"
	LogMsgPaymentReinitiating = "Re-sending stale pending payment"
	LogMsgProviderCallFailed  = "Payment provider call failed"
	LogMsgProviderNoReference = "Payment provider returned no reference"
	LogMsgPaymentAcknowledged = "Payment acknowledged by provider"
	LogMsgFinalizeSkipped     = "Payment left pending state before provider acknowledgement was stored"
	LogMsgPaymentsExpired     = "Stale pending payments expired"
	LogMsgPaymentRefunded     = "Payment refunded"
	LogMsgCallbackUnparseable = "Callback could not be parsed, dropping"
	LogMsgCallbackUnknown     = "Callback for unknown payment"
	LogMsgCallbackDuplicate   = "Duplicate callback for finished payment"
	LogMsgCallbackNoResult    = "Callback has no usable result code, leaving payment pending"
	LogMsgLateSuccess         = "Provider reported success for an expired payment; manual review required"
	LogMsgPaymentSucceeded    = "Payment succeeded and plan applied"
	LogMsgPaymentFailed       = "Payment failed"
	LogMsgActivationRejected  = "Payment succeeded but activation was rejected; manual review required"
)

// Error messages
const (
	ErrMsgBeginTx        = "failed to begin transaction"
	ErrMsgCommitTx       = "failed to commit transaction"
	ErrMsgLockIntent     = "failed to lock payment intent"
	ErrMsgLoadPayment    = "failed to load payment"
	ErrMsgSavePayment    = "failed to save payment"
	ErrMsgCreatePayment  = "failed to create payment"
	ErrMsgExpirePayments = "failed to expire payments"
	ErrMsgPhoneRequired  = "phone number is required"
	ErrMsgTransitionFmt  = "%s: %s -> %s"
)
