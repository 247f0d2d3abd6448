package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/repository"
)

// SubscriptionRepository implements repository.Subscription for PostgreSQL
type SubscriptionRepository struct {
	db *pgxpool.Pool
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// BeginTx starts a ledger transaction
func (r *SubscriptionRepository) BeginTx(ctx context.Context) (repository.SubscriptionTx, error) {
	return beginLedgerTx(ctx, r.db)
}

// GetSubscription retrieves one term by id
func (r *SubscriptionRepository) GetSubscription(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	return getSubscription(ctx, r.db, subscriptionID, false)
}

// ListUserSubscriptions returns every term of the user, newest expiry first
func (r *SubscriptionRepository) ListUserSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY expires_at DESC, id`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgQuerySubscriptions, err)
	}
	subs, err := collect(rows, scanSubscription)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgScanSubscription, err)
	}
	return subs, nil
}

// DeactivateExpired flips every lapsed term in one statement and reports the affected owners
func (r *SubscriptionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, []string, error) {
	query := `
		UPDATE subscriptions
		SET is_active = FALSE, updated_at = NOW()
		WHERE is_active AND expires_at <= $1
		RETURNING user_id
	`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", ErrMsgDeactivateExpired, err)
	}
	defer rows.Close()

	var count int64
	seen := make(map[string]struct{})
	users := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return 0, nil, fmt.Errorf("%s: %w", ErrMsgDeactivateExpired, err)
		}
		count++
		if _, ok := seen[userID]; !ok {
			seen[userID] = struct{}{}
			users = append(users, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("%s: %w", ErrMsgDeactivateExpired, err)
	}
	return count, users, nil
}

func getSubscription(ctx context.Context, q querier, subscriptionID string, forUpdate bool) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	sub, err := scanSubscription(q.QueryRow(ctx, query, subscriptionID))
	if err != nil {
		return nil, notFoundOr(err, domain.ErrMsgSubscriptionNotFound, ErrMsgQuerySubscriptions)
	}
	return sub, nil
}
