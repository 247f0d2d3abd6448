package subscription

// Log messages
const (
	LogMsgPlanApplied          = "Plan applied to subscription"
	LogMsgQuotaConsumed        = "Quota consumed"
	LogMsgQuotaRejected        = "Quota request rejected"
	LogMsgSubscriptionReset    = "Subscription usage reset"
	LogMsgSubscriptionDisabled = "Subscription deactivated"
	LogMsgListingsUnpublished  = "Listings unpublished after last term lapsed"
	LogMsgSweepUserFailed      = "Failed to re-check user after expiry"
	LogMsgExpiredDeactivated   = "Expired subscriptions deactivated"
	LogMsgPlanCreated          = "Plan created"
	LogMsgPlanUpdated          = "Plan updated"
	LogMsgPlanStatusChanged    = "Plan status changed"
	LogMsgPlanDeleted          = "Plan delete requested"
	LogMsgPlansSeeded          = "Plan catalog synced"
)

// Error messages
const (
	ErrMsgBeginTx       = "failed to begin transaction"
	ErrMsgCommitTx      = "failed to commit transaction"
	ErrMsgLockUser      = "failed to lock user ledger"
	ErrMsgLoadTerms     = "failed to load subscription terms"
	ErrMsgSaveTerm      = "failed to save subscription term"
	ErrMsgCreateTerm    = "failed to create subscription term"
	ErrMsgPersistQuota  = "failed to persist quota deduction"
	ErrMsgUnpublish     = "failed to unpublish listings"
	ErrMsgPlanNameEmpty = "plan name must not be empty"
	ErrMsgReadSeed      = "failed to read plan seed"
	ErrMsgInvalidSeed   = "invalid plan seed"
	ErrMsgParseSeed     = "failed to parse plan seed"
)

// Metric label values for plan activations
const (
	effectCreated     = "created"
	effectExtended    = "extended"
	effectReactivated = "reactivated"
)
