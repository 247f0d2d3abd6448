package repository

import (
	"context"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

// Payment defines the interface for payment persistence
type Payment interface {
	BeginTx(ctx context.Context) (PaymentTx, error)

	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListUserPayments(ctx context.Context, userID string, limit int) ([]domain.Payment, error)

	// ExpirePending marks PENDING payments created before cutoff as EXPIRED
	ExpirePending(ctx context.Context, cutoff, now time.Time) (int64, error)
}

// PaymentTx also carries the ledger so a successful payment activates in the same transaction
type PaymentTx interface {
	SubscriptionTx

	// LockIntent serializes initiation of the same purchase intent
	LockIntent(ctx context.Context, intentKey string) error

	GetLatestPaymentByIntent(ctx context.Context, intentKey string) (*domain.Payment, error)
	GetPendingPaymentForTarget(ctx context.Context, userID, targetSubscriptionID string) (*domain.Payment, error)
	GetPaymentForUpdate(ctx context.Context, paymentID string) (*domain.Payment, error)
	GetPaymentByExternalRefForUpdate(ctx context.Context, provider, externalRef string) (*domain.Payment, error)
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	UpdatePayment(ctx context.Context, payment *domain.Payment) error
}
