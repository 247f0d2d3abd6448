package repository

import (
	"context"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

// Subscription defines the interface for subscription term persistence
type Subscription interface {
	BeginTx(ctx context.Context) (SubscriptionTx, error)

	GetSubscription(ctx context.Context, subscriptionID string) (*domain.Subscription, error)
	ListUserSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error)

	// DeactivateExpired flips every active term with expires_at <= now in one statement
	// and returns the distinct owners of the affected terms
	DeactivateExpired(ctx context.Context, now time.Time) (int64, []string, error)
}

// SubscriptionTx is a transaction over a user's ledger.
// Callers take LockUser before reading terms they intend to modify.
type SubscriptionTx interface {
	Tx

	// LockUser serializes every ledger mutation for the user until the transaction ends
	LockUser(ctx context.Context, userID string) error

	GetUserSubscriptionsForUpdate(ctx context.Context, userID string) ([]domain.Subscription, error)
	GetSubscriptionForUpdate(ctx context.Context, subscriptionID string) (*domain.Subscription, error)
	CreateSubscription(ctx context.Context, sub *domain.Subscription) error
	SaveSubscription(ctx context.Context, sub *domain.Subscription) error
	UpdateRemaining(ctx context.Context, subs []domain.Subscription) error
	CountLiveSubscriptions(ctx context.Context, userID string, now time.Time) (int, error)

	// UnpublishUserListings takes every listing of the user offline and frees its slot
	UnpublishUserListings(ctx context.Context, userID string) (int64, error)
}
