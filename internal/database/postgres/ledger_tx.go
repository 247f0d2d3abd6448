package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

// LedgerTx is one database transaction over subscriptions, payments and listings.
// It implements repository.SubscriptionTx, repository.PaymentTx and repository.ListingTx so a
// publish or a payment activation commits together with its quota change.
type LedgerTx struct {
	tx pgx.Tx
}

func beginLedgerTx(ctx context.Context, db *pgxpool.Pool) (*LedgerTx, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBeginTx, err)
	}
	return &LedgerTx{tx: tx}, nil
}

// Commit commits the transaction
func (t *LedgerTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls back the transaction
func (t *LedgerTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// LockUser takes the per-user ledger lock for the rest of the transaction
func (t *LedgerTx) LockUser(ctx context.Context, userID string) error {
	if err := advisoryLock(ctx, t.tx, lockNamespaceUser, userID); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgLockUser, err)
	}
	return nil
}

// GetUserSubscriptionsForUpdate row-locks the user's active terms in consumption order
func (t *LedgerTx) GetUserSubscriptionsForUpdate(ctx context.Context, userID string) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND is_active
		ORDER BY expires_at, started_at, id
		FOR UPDATE
	`
	rows, err := t.tx.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgQuerySubscriptions, err)
	}
	subs, err := collect(rows, scanSubscription)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgScanSubscription, err)
	}
	return subs, nil
}

// GetSubscriptionForUpdate row-locks one term
func (t *LedgerTx) GetSubscriptionForUpdate(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	return getSubscription(ctx, t.tx, subscriptionID, true)
}

// CreateSubscription inserts a new term and fills in its generated fields
func (t *LedgerTx) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, plan_id, plan_name, listing_quota, featured_quota, duration_days,
			started_at, expires_at, remaining_listings, remaining_featured, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	err := t.tx.QueryRow(ctx, query,
		sub.UserID,
		sub.PlanID,
		sub.PlanName,
		sub.ListingQuota,
		sub.FeaturedQuota,
		sub.DurationDays,
		sub.StartedAt,
		sub.ExpiresAt,
		sub.RemainingListings,
		sub.RemainingFeatured,
		sub.IsActive,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgInsertSubscription, err)
	}
	return nil
}

// SaveSubscription writes the lifecycle fields of a term
func (t *LedgerTx) SaveSubscription(ctx context.Context, sub *domain.Subscription) error {
	query := `
		UPDATE subscriptions
		SET started_at = $2, expires_at = $3, remaining_listings = $4, remaining_featured = $5,
			is_active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := t.tx.QueryRow(ctx, query,
		sub.ID,
		sub.StartedAt,
		sub.ExpiresAt,
		sub.RemainingListings,
		sub.RemainingFeatured,
		sub.IsActive,
	).Scan(&sub.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return domain.WrapError(domain.ErrorKindInternal, ErrMsgNegativeRemaining, err)
		}
		return notFoundOr(err, domain.ErrMsgSubscriptionNotFound, ErrMsgUpdateSubscription)
	}
	return nil
}

// UpdateRemaining persists the counters of the terms a deduction changed
func (t *LedgerTx) UpdateRemaining(ctx context.Context, subs []domain.Subscription) error {
	if len(subs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range subs {
		batch.Queue(`
			UPDATE subscriptions
			SET remaining_listings = $2, remaining_featured = $3, updated_at = NOW()
			WHERE id = $1
		`, s.ID, s.RemainingListings, s.RemainingFeatured)
	}
	results := t.tx.SendBatch(ctx, batch)
	defer results.Close()
	for range subs {
		tag, err := results.Exec()
		if err != nil {
			if isCheckViolation(err) {
				return domain.WrapError(domain.ErrorKindInternal, ErrMsgNegativeRemaining, err)
			}
			return fmt.Errorf("%s: %w", ErrMsgUpdateSubscription, err)
		}
		if tag.RowsAffected() != 1 {
			return domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgSubscriptionNotFound)
		}
	}
	return nil
}

// CountLiveSubscriptions counts active terms that have not yet expired at now
func (t *LedgerTx) CountLiveSubscriptions(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM subscriptions WHERE user_id = $1 AND is_active AND expires_at > $2
	`, userID, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgCountSubscriptions, err)
	}
	return count, nil
}

// UnpublishUserListings takes every listing of the user offline and frees its slot
func (t *LedgerTx) UnpublishUserListings(ctx context.Context, userID string) (int64, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE listings
		SET is_published = FALSE, slot_consumed = FALSE, featured_until = NULL, updated_at = NOW()
		WHERE owner_id = $1 AND (is_published OR slot_consumed)
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgUnpublishListings, err)
	}
	return tag.RowsAffected(), nil
}

// LockIntent serializes initiation attempts for one purchase intent
func (t *LedgerTx) LockIntent(ctx context.Context, intentKey string) error {
	if err := advisoryLock(ctx, t.tx, lockNamespaceIntent, intentKey); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgLockIntent, err)
	}
	return nil
}

// GetLatestPaymentByIntent returns the newest attempt for the intent, or nil if there is none
func (t *LedgerTx) GetLatestPaymentByIntent(ctx context.Context, intentKey string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE intent_key = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	return getOptionalPayment(ctx, t.tx, query, intentKey)
}

// GetPendingPaymentForTarget returns a pending payment that extends the given term, or nil
func (t *LedgerTx) GetPendingPaymentForTarget(ctx context.Context, userID, targetSubscriptionID string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1 AND target_subscription_id = $2 AND status = 'PENDING'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return getOptionalPayment(ctx, t.tx, query, userID, targetSubscriptionID)
}

// GetPaymentForUpdate row-locks one payment
func (t *LedgerTx) GetPaymentForUpdate(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return getPayment(ctx, t.tx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID)
}

// GetPaymentByExternalRefForUpdate row-locks the payment the provider knows by externalRef
func (t *LedgerTx) GetPaymentByExternalRefForUpdate(ctx context.Context, provider, externalRef string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE provider = $1 AND external_ref = $2 FOR UPDATE`
	return getPayment(ctx, t.tx, query, provider, externalRef)
}

// CreatePayment inserts a new attempt
func (t *LedgerTx) CreatePayment(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (user_id, plan_id, amount_cents, currency, status, provider, intent_key,
			idempotency_key, target_subscription_id, phone_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := t.tx.QueryRow(ctx, query,
		p.UserID,
		p.PlanID,
		p.AmountCents,
		p.Currency,
		string(p.Status),
		p.Provider,
		p.IntentKey,
		p.IdempotencyKey,
		p.TargetSubscriptionID,
		p.PhoneNumber,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrorKindPaymentInProgress, ErrMsgDuplicatePayment, err)
		}
		return fmt.Errorf("%s: %w", ErrMsgInsertPayment, err)
	}
	return nil
}

// UpdatePayment writes the mutable fields of a payment
func (t *LedgerTx) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE payments
		SET status = $2, external_ref = $3, transaction_code = $4, provider_message = $5,
			failure_reason = $6, updated_at = $7, completed_at = $8
		WHERE id = $1
	`,
		p.ID,
		string(p.Status),
		p.ExternalRef,
		p.TransactionCode,
		p.ProviderMessage,
		p.FailureReason,
		p.UpdatedAt,
		p.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgUpdatePayment, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgPaymentNotFound)
	}
	return nil
}

// GetListingForUpdate row-locks one listing
func (t *LedgerTx) GetListingForUpdate(ctx context.Context, listingID string) (*domain.Listing, error) {
	return getListing(ctx, t.tx, listingID, true)
}

// UpdateListing writes the publish state of a listing
func (t *LedgerTx) UpdateListing(ctx context.Context, l *domain.Listing) error {
	err := t.tx.QueryRow(ctx, `
		UPDATE listings
		SET is_featured = $2, is_published = $3, slot_consumed = $4, featured_until = $5,
			published_at = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`,
		l.ID,
		l.IsFeatured,
		l.IsPublished,
		l.SlotConsumed,
		l.FeaturedUntil,
		l.PublishedAt,
	).Scan(&l.UpdatedAt)
	if err != nil {
		return notFoundOr(err, domain.ErrMsgListingNotFound, ErrMsgUpdateListing)
	}
	return nil
}
