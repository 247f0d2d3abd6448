package postgres

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"
	// PgErrorCodeCheckViolation is raised when a CHECK constraint (e.g. non-negative quota) fails
	PgErrorCodeCheckViolation = "23514"
)

// Advisory lock namespaces
const (
	lockNamespaceUser   = "ledger:user:"
	lockNamespaceIntent = "payment:intent:"
)

// Column lists shared by the scan helpers
const (
	planColumns = `id, name, price_cents, duration_days, listing_quota, featured_quota, is_active, created_at, updated_at`

	subscriptionColumns = `id, user_id, plan_id, plan_name, listing_quota, featured_quota, duration_days,
		started_at, expires_at, remaining_listings, remaining_featured, is_active, created_at, updated_at`

	paymentColumns = `id, user_id, plan_id, amount_cents, currency, status, provider, external_ref, transaction_code,
		intent_key, idempotency_key, target_subscription_id, phone_number, provider_message, failure_reason,
		created_at, updated_at, completed_at`

	listingColumns = `id, owner_id, title, is_featured, is_published, slot_consumed, featured_until, published_at,
		created_at, updated_at`
)

// Log Messages
const (
	LogMsgRollbackFailed = "Failed to rollback transaction"
)

// Error Messages
const (
	ErrMsgBeginTx            = "failed to begin transaction"
	ErrMsgLockUser           = "failed to lock user ledger"
	ErrMsgLockIntent         = "failed to lock payment intent"
	ErrMsgQuerySubscriptions = "failed to query subscriptions"
	ErrMsgScanSubscription   = "failed to scan subscription"
	ErrMsgInsertSubscription = "failed to insert subscription"
	ErrMsgUpdateSubscription = "failed to update subscription"
	ErrMsgDeactivateExpired  = "failed to deactivate expired subscriptions"
	ErrMsgCountSubscriptions = "failed to count live subscriptions"
	ErrMsgUnpublishListings  = "failed to unpublish listings"
	ErrMsgQueryPlans         = "failed to query plans"
	ErrMsgInsertPlan         = "failed to insert plan"
	ErrMsgPlanNameTaken      = "a plan with this name already exists"
	ErrMsgUpdatePlan         = "failed to update plan"
	ErrMsgDeletePlan         = "failed to delete plan"
	ErrMsgQueryPayments      = "failed to query payments"
	ErrMsgInsertPayment      = "failed to insert payment"
	ErrMsgUpdatePayment      = "failed to update payment"
	ErrMsgExpirePayments     = "failed to expire pending payments"
	ErrMsgQueryListings      = "failed to query listings"
	ErrMsgInsertListing      = "failed to insert listing"
	ErrMsgUpdateListing      = "failed to update listing"
	ErrMsgClearBoosts        = "failed to clear expired boosts"
	ErrMsgDuplicatePayment   = "payment with this idempotency key already exists"
	ErrMsgNegativeRemaining  = "remaining quota would become negative"
)
